package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/blogstack/internal/api/handlers"
	"github.com/isdelr/blogstack/internal/auth"
	"github.com/isdelr/blogstack/internal/logger"
	"github.com/isdelr/blogstack/internal/metrics"
	"github.com/isdelr/blogstack/internal/services"
	"github.com/isdelr/blogstack/internal/soap"
	"github.com/isdelr/blogstack/internal/websocket"
	"github.com/rs/zerolog"
)

// Deps are the collaborators the main router serves.
type Deps struct {
	Users    services.UserServiceProvider
	Posts    services.PostServiceProvider
	Comments services.CommentServiceProvider
	Stats    services.StatsServiceProvider
	Sessions services.SessionStore
	Tokens   *auth.TokenIssuer
	Hub      *websocket.Hub

	Logger         zerolog.Logger
	AllowedOrigins []string
	PublicURL      string
	SecureCookies  bool
}

// NewRouter creates and configures a new Chi router.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware(d.Logger))
	r.Use(middleware.Recoverer)
	r.Use(metrics.InstrumentHandler("main"))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "SOAPAction"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(d.Users, d.Tokens, d.SecureCookies)
	postHandler := handlers.NewPostHandler(d.Posts, d.Comments)
	altHandler := handlers.NewAltHandler(d.Users, d.Posts, d.Comments, d.Stats)
	resourceHandler := handlers.NewResourceHandler(d.Users, d.Posts, d.Comments, d.Stats)
	webHandler := handlers.NewWebHandler(d.Users, d.Posts, d.Comments, d.Stats, d.Sessions, d.SecureCookies)
	realtimeHandler := handlers.NewRealtimeHandler(d.Hub)
	soapHandler := soap.NewHandler(d.Users, d.Stats, d.PublicURL)

	r.Handle("/metrics", metrics.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/soap", soapHandler.Describe)
	r.Post("/soap", soapHandler.Invoke)
	r.Get("/ws", realtimeHandler.Serve)

	// Browser routes authenticated by the session cookie.
	r.Group(func(r chi.Router) {
		r.Use(auth.LoadSession(d.Sessions))

		r.Get("/", webHandler.Home)
		r.Get("/register", webHandler.RegisterPage)
		r.Post("/register", webHandler.Register)
		r.Get("/login", webHandler.LoginPage)
		r.Post("/login", webHandler.Login)
		r.Post("/logout", webHandler.Logout)
		r.Get("/users", webHandler.Users)
		r.Get("/posts", webHandler.Posts)
		r.Get("/posts/{id}", webHandler.ViewPost)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSession)
			r.Post("/users/{id}/edit", webHandler.EditUser)
			r.Post("/users/{id}/delete", webHandler.DeleteUser)
			r.Post("/posts/create", webHandler.CreatePost)
			r.Post("/posts/{id}/edit", webHandler.EditPost)
			r.Post("/posts/{id}/delete", webHandler.DeletePost)
			r.Post("/comments/create/{postID}", webHandler.CreateComment)
			r.Post("/comments/{id}/delete", webHandler.DeleteComment)
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", userHandler.Register)
		r.Post("/auth/login", userHandler.Login)

		r.Get("/users", userHandler.List)
		r.Post("/users", userHandler.Register)
		r.Get("/users/{id}", userHandler.Get)
		r.Get("/posts", postHandler.List)
		r.Get("/posts/{id}", postHandler.Get)
		r.Get("/posts/{id}/comments", postHandler.ListComments)

		// Token-protected writes
		r.Group(func(r chi.Router) {
			r.Use(d.Tokens.Middleware)
			r.Get("/auth/me", userHandler.GetMe)
			r.Put("/users/{id}", userHandler.Update)
			r.Delete("/users/{id}", userHandler.Delete)
			r.Put("/users/{id}/password", userHandler.ChangePassword)
			r.Post("/posts", postHandler.Create)
			r.Put("/posts/{id}", postHandler.Update)
			r.Delete("/posts/{id}", postHandler.Delete)
			r.Post("/posts/{id}/comments", postHandler.CreateComment)
			r.Put("/comments/{id}", postHandler.UpdateComment)
			r.Delete("/comments/{id}", postHandler.DeleteComment)
		})

		r.Route("/v2", func(r chi.Router) {
			r.Get("/users/{id}/stats", resourceHandler.UserStats)
			r.Get("/users/{id}/posts", resourceHandler.UserPosts)
			r.Get("/posts/{id}/comments", resourceHandler.PostComments)
			r.Get("/posts/{id}/analytics", resourceHandler.PostAnalytics)
			r.Get("/comments/{id}/details", resourceHandler.CommentDetails)
			r.Get("/stats/overview", resourceHandler.Overview)
			r.Get("/stats/activity", resourceHandler.Activity)
			r.Get("/search/posts", resourceHandler.SearchPosts)
			r.Get("/search/users", resourceHandler.SearchUsers)

			r.Group(func(r chi.Router) {
				r.Use(d.Tokens.Middleware)
				r.Post("/posts/{id}/comments", resourceHandler.AddComment)
				r.Put("/posts/{id}/publish", resourceHandler.Publish)
				r.Put("/comments/{id}/approve", resourceHandler.Approve)
			})
		})
	})

	r.Route("/alt", func(r chi.Router) {
		r.Get("/health", altHandler.Health)
		r.Get("/users", altHandler.Users)
		r.Get("/users/{id}", altHandler.User)
		r.Get("/posts", altHandler.Posts)
		r.Get("/posts/{id}/analytics", altHandler.PostAnalytics)
		r.Get("/search", altHandler.Search)
		r.Get("/stats", altHandler.Stats)
		r.With(d.Tokens.Middleware).Post("/posts/{id}/comments", altHandler.AddComment)
	})

	return r
}
