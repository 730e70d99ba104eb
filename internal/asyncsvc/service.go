// Package asyncsvc is the side-service running on its own port: item
// processing, batch fan-out, an external data proxy, analytics and a
// WebSocket echo.
package asyncsvc

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/isdelr/blogstack/internal/logger"
	"github.com/isdelr/blogstack/internal/metrics"
	"github.com/isdelr/blogstack/internal/models"
	"github.com/isdelr/blogstack/internal/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/sync/errgroup"
)

const (
	serviceName = "async"
	version     = "1.0.0"
)

// Service wires the side-service handlers.
type Service struct {
	posts       services.PostServiceProvider
	stats       services.StatsServiceProvider
	processor   *Processor
	external    *ExternalClient
	activity    *ActivityLog
	concurrency int
	upgrader    websocket.Upgrader
	now         func() time.Time
}

// New creates a new Service.
func New(posts services.PostServiceProvider, stats services.StatsServiceProvider, processor *Processor,
	external *ExternalClient, activity *ActivityLog, concurrency int) *Service {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{
		posts:       posts,
		stats:       stats,
		processor:   processor,
		external:    external,
		activity:    activity,
		concurrency: concurrency,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Router returns the side-service routes.
func (s *Service) Router(log zerolog.Logger, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware(log))
	r.Use(middleware.Recoverer)
	r.Use(metrics.InstrumentHandler(serviceName))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/async", func(r chi.Router) {
		r.Get("/health", s.Health)
		r.Get("/posts", s.Posts)
		r.Get("/external", s.External)
		r.Post("/batch", s.Batch)
		r.Get("/analytics", s.Analytics)
		r.Get("/ws", s.Echo)
		r.Get("/ws-test", s.TestPage)
	})
	return r
}

func (s *Service) timestamp() string {
	return s.now().Format(time.RFC3339Nano)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"status": "error", "message": message})
}

// processAll runs every item through the processor with bounded
// parallelism. A failed item is replaced by {"error": message}.
func (s *Service) processAll(ctx context.Context, items []any) ([]any, int) {
	results := make([]any, len(items))
	failures := make([]bool, len(items))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, item := range items {
		g.Go(func() error {
			p, err := s.processor.Process(ctx, item)
			if err != nil {
				results[i] = map[string]string{"error": err.Error()}
				failures[i] = true
				return nil
			}
			results[i] = p
			return nil
		})
	}
	g.Wait()

	failed := 0
	for _, f := range failures {
		if f {
			failed++
		}
	}
	return results, failed
}

// Health reports the service status and its endpoints.
func (s *Service) Health(w http.ResponseWriter, r *http.Request) {
	s.activity.Record("Health check requested")
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"service":   "async_service",
		"timestamp": s.timestamp(),
		"version":   version,
		"endpoints": map[string]string{
			"health":         "/async/health",
			"posts":          "/async/posts",
			"external":       "/async/external",
			"analytics":      "/async/analytics",
			"batch":          "/async/batch",
			"websocket":      "/async/ws",
			"websocket_test": "/async/ws-test",
		},
	})
}

// Posts processes the latest posts of the shared store.
func (s *Service) Posts(w http.ResponseWriter, r *http.Request) {
	s.activity.Record("Async posts endpoint accessed")

	page, err := s.posts.ListPosts(r.Context(), models.PostQuery{Page: models.NewPageRequest(1, models.DefaultPerPage)})
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Failed to list posts")
		s.activity.Record("Error in async posts: " + err.Error())
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	items := make([]any, len(page.Items))
	for i, p := range page.Items {
		items[i] = p
	}
	processed, _ := s.processAll(r.Context(), items)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"posts":  processed,
		"total":  len(processed),
	})
}

// External proxies the configured external JSON source.
func (s *Service) External(w http.ResponseWriter, r *http.Request) {
	s.activity.Record("External data fetch requested")

	var data any
	raw, err := s.external.Fetch(r.Context())
	if err == nil {
		err = json.Unmarshal(raw, &data)
	}
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("External fetch failed")
		s.activity.Record("Error fetching external data: " + err.Error())
		writeError(w, http.StatusBadRequest, "Failed to get external data: "+err.Error())
		return
	}
	processed, err := s.processor.Process(r.Context(), data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "success",
		"external_data":  raw,
		"highlights":     s.external.Highlights(raw),
		"processed_data": processed,
	})
}

type batchRequest struct {
	Items []any `json:"items"`
}

// Batch processes every submitted item concurrently and answers once all
// of them have finished.
func (s *Service) Batch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<20)).Decode(&req); err != nil {
		s.activity.Record("Error in batch processing: " + err.Error())
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.activity.Record("Batch processing items")

	results, failed := s.processAll(r.Context(), req.Items)
	metrics.RecordBatch(len(results)-failed, failed)
	hlog.FromRequest(r).Info().Int("items", len(results)).Int("failed", failed).Msg("Batch processed")

	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "success",
		"processed_items": results,
		"total_processed": len(results),
	})
}

// Analytics gathers the external source, three processed probes and host
// statistics concurrently. A failing section is reported in place.
func (s *Service) Analytics(w http.ResponseWriter, r *http.Request) {
	s.activity.Record("Analytics request received")
	ctx := r.Context()

	sections := map[string]func(context.Context) (any, error){
		"external_weather": func(ctx context.Context) (any, error) {
			raw, err := s.external.Fetch(ctx)
			if err != nil {
				return map[string]string{"status": "error", "message": err.Error()}, nil
			}
			return map[string]any{"status": "success", "data": raw}, nil
		},
		"user_activity": func(ctx context.Context) (any, error) {
			counts, err := s.stats.Counts(ctx)
			if err != nil {
				return nil, err
			}
			return s.processor.Process(ctx, map[string]any{"type": "user_activity", "total_users": counts.Users})
		},
		"post_stats": func(ctx context.Context) (any, error) {
			counts, err := s.stats.Counts(ctx)
			if err != nil {
				return nil, err
			}
			return s.processor.Process(ctx, map[string]any{"type": "post_statistics", "total_posts": counts.Posts})
		},
		"comment_analysis": func(ctx context.Context) (any, error) {
			counts, err := s.stats.Counts(ctx)
			if err != nil {
				return nil, err
			}
			return s.processor.Process(ctx, map[string]any{"type": "comment_analysis", "total_comments": counts.Comments})
		},
		"system": func(ctx context.Context) (any, error) {
			return collectSystemStats(ctx)
		},
	}

	names := make([]string, 0, len(sections))
	for name := range sections {
		names = append(names, name)
	}
	results := make([]any, len(names))

	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			v, err := sections[name](ctx)
			if err != nil {
				results[i] = map[string]string{"error": err.Error()}
				return nil
			}
			results[i] = v
			return nil
		})
	}
	g.Wait()

	analytics := make(map[string]any, len(names)+1)
	for i, name := range names {
		analytics[name] = results[i]
	}
	analytics["generated_at"] = s.timestamp()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "success",
		"analytics": analytics,
	})
}
