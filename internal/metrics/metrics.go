package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "blogstack",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
		[]string{"service"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blogstack",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"service", "method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "blogstack",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"service", "method", "route"},
	)

	wsConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "blogstack",
			Subsystem: "websocket",
			Name:      "connections",
			Help:      "Currently open websocket connections.",
		},
		[]string{"service"},
	)

	wsMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blogstack",
			Subsystem: "websocket",
			Name:      "messages_total",
			Help:      "Websocket frames received, by event.",
		},
		[]string{"service", "event"},
	)

	batchItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blogstack",
			Subsystem: "async",
			Name:      "batch_items_total",
			Help:      "Items processed by the batch endpoint.",
		},
		[]string{"outcome"},
	)

	jobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blogstack",
			Subsystem: "jobs",
			Name:      "runs_total",
			Help:      "Background job runs.",
		},
		[]string{"job", "success"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		wsConnections,
		wsMessages,
		batchItems,
		jobRuns,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler records request metrics labelled with the chi route pattern.
func InstrumentHandler(service string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			inflight := httpInFlight.WithLabelValues(service)
			inflight.Inc()
			defer inflight.Dec()

			next.ServeHTTP(rec, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}

			httpRequests.WithLabelValues(service, r.Method, route, strconv.Itoa(rec.status)).Inc()
			httpDuration.WithLabelValues(service, r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

// WSConnected counts an opened websocket.
func WSConnected(service string) { wsConnections.WithLabelValues(service).Inc() }

// WSDisconnected counts a closed websocket.
func WSDisconnected(service string) { wsConnections.WithLabelValues(service).Dec() }

// RecordWSMessage counts a received websocket frame.
func RecordWSMessage(service, event string) {
	if event == "" {
		event = "unknown"
	}
	wsMessages.WithLabelValues(service, event).Inc()
}

// RecordBatch counts processed batch items by outcome.
func RecordBatch(succeeded, failed int) {
	batchItems.WithLabelValues("success").Add(float64(succeeded))
	batchItems.WithLabelValues("error").Add(float64(failed))
}

// RecordJobRun counts a background job execution.
func RecordJobRun(job string, success bool) {
	jobRuns.WithLabelValues(job, strconv.FormatBool(success)).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack supports websocket upgrades through the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijacking not supported")
	}
	return h.Hijack()
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
