package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/reelhouse/internal/audit"
	"github.com/prn-tf/reelhouse/internal/repository"
	"github.com/prn-tf/reelhouse/internal/storage"
)

// Router assembles the HTTP API.
type Router struct {
	auth     *AuthHandler
	movies   *MovieHandler
	admin    *AdminHandler
	authMW   *AuthMiddleware
	recorder audit.Recorder
	health   repository.DatabaseHealth
	media    storage.MediaStore
	logger   zerolog.Logger
}

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	AuthHandler    *AuthHandler
	MovieHandler   *MovieHandler
	AdminHandler   *AdminHandler
	AuthMiddleware *AuthMiddleware
	Recorder       audit.Recorder
	Health         repository.DatabaseHealth
	Media          storage.MediaStore
	Logger         zerolog.Logger
}

// NewRouter creates a new Router.
func NewRouter(cfg RouterConfig) *Router {
	return &Router{
		auth:     cfg.AuthHandler,
		movies:   cfg.MovieHandler,
		admin:    cfg.AdminHandler,
		authMW:   cfg.AuthMiddleware,
		recorder: cfg.Recorder,
		health:   cfg.Health,
		media:    cfg.Media,
		logger:   cfg.Logger.With().Str("component", "router").Logger(),
	}
}

// Handler returns the main HTTP handler.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(Metrics)
	r.Use(rt.authMW.Resolve)

	// Health check (no auth)
	r.Get("/health", rt.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(RequestAudit(rt.recorder))

		r.Post("/register", rt.auth.Register)
		r.Post("/login", rt.auth.Login)
		r.Post("/logout", rt.auth.Logout)
		r.Get("/user", rt.auth.CurrentUser)

		r.Get("/movies", rt.movies.List)
		r.Get("/movies/category/{category}", rt.movies.ListByCategory)
		r.Get("/movies/{id}", rt.movies.Get)

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAdmin)

			r.Post("/movies", rt.admin.CreateMovie)
			r.Put("/movies/{id}", rt.admin.UpdateMovie)
			r.Delete("/movies/{id}", rt.admin.DeleteMovie)

			r.Get("/activity", rt.admin.ListActivity)
			r.Get("/activity/user/{id}", rt.admin.ListUserActivity)

			r.Get("/users", rt.admin.ListUsers)
			r.Post("/users", rt.admin.CreateUser)
			r.Put("/users/{id}", rt.admin.UpdateUser)
			r.Delete("/users/{id}", rt.admin.DeleteUser)
		})
	})

	// Filesystem-backed media is served directly; the S3 backend hands
	// out absolute URLs instead and never hits this route.
	if fs, ok := rt.media.(*storage.FilesystemStore); ok {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(fs.Dir()))))
	}

	return r
}

// handleHealth handles health check requests with a database ping.
func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := rt.health.Ping(r.Context()); err != nil {
		rt.logger.Error().Err(err).Msg("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
