// Package server assembles the forum's HTTP router.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ayush/discussion-forum/internal/auth"
	"github.com/ayush/discussion-forum/internal/forum"
	"github.com/ayush/discussion-forum/internal/logger"
	"github.com/ayush/discussion-forum/internal/middleware"
	"github.com/ayush/discussion-forum/internal/profile"
)

type Handlers struct {
	Auth    *auth.Handler
	Forum   *forum.Handler
	Profile *profile.Handler
}

// Options carries the cross-cutting pieces shared by every route.
type Options struct {
	Logger   *logger.Logger
	Sessions *auth.Sessions
	// Registry receives the HTTP metrics and is exposed on /metrics.
	Registry *prometheus.Registry
	// CORSOrigins enables CORS for the listed origins. Empty disables it.
	CORSOrigins []string
	// Limiter throttles POST /login and POST /register. Nil disables it.
	Limiter *middleware.RateLimiter
}

// New builds the router. Every route runs inside the session middleware;
// state-changing forum and profile routes additionally require a login.
func New(h Handlers, opts Options) http.Handler {
	requireAuth := middleware.RequireAuth(opts.Sessions)
	limit := func(next http.Handler) http.Handler { return next }
	if opts.Limiter != nil {
		limit = opts.Limiter.Limit
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.TraceID(opts.Logger))
	r.Use(middleware.Logging)
	if opts.Registry != nil {
		r.Use(middleware.NewMetrics(opts.Registry).Handler)
	}
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	if opts.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(opts.Sessions.LoadAndSave)

		// Topics
		for _, path := range []string{"/", "/index"} {
			r.Get(path, h.Forum.Index)
			r.With(requireAuth).Post(path, h.Forum.CreateTopic)
		}
		r.Get("/edit_topic/{topic}", h.Forum.EditTopic)
		r.Post("/edit_topic/{topic}", h.Forum.EditTopic)
		r.Get("/delete_topic/{topic}", h.Forum.DeleteTopic)
		r.Get("/search", h.Forum.Search)
		r.Post("/search", h.Forum.Search)

		// Discussion
		r.Get("/discussion/{topic}", h.Forum.Discussion)
		r.With(requireAuth).Post("/discussion/{topic}", h.Forum.CreatePost)
		r.Get("/edit_post/{post}", h.Forum.EditPost)
		r.Post("/edit_post/{post}", h.Forum.EditPost)
		r.Get("/delete_post/{post}", h.Forum.DeletePost)

		// Auth
		r.Get("/register", h.Auth.RegisterPage)
		r.With(limit).Post("/register", h.Auth.Register)
		r.Get("/login", h.Auth.LoginPage)
		r.With(limit).Post("/login", h.Auth.Login)
		r.Get("/logout", h.Auth.Logout)

		// Profiles
		r.Get("/profile", h.Profile.Profile)
		r.Get("/profile/{id}", h.Profile.Profile)
		r.With(requireAuth).Get("/edit_profile/{id}", h.Profile.EditProfilePage)
		r.With(requireAuth).Post("/edit_profile/{id}", h.Profile.EditProfile)
		r.Get("/send_file/{filename}", h.Profile.SendFile)
	})

	return r
}
