package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/reelhouse/internal/service"
)

// MovieHandler serves the public catalog endpoints.
type MovieHandler struct {
	movieService *service.MovieService
	logger       zerolog.Logger
}

// NewMovieHandler creates a new MovieHandler.
func NewMovieHandler(movieService *service.MovieService, logger zerolog.Logger) *MovieHandler {
	return &MovieHandler{
		movieService: movieService,
		logger:       logger.With().Str("handler", "movie").Logger(),
	}
}

// List handles GET /api/movies.
func (h *MovieHandler) List(w http.ResponseWriter, r *http.Request) {
	movies, err := h.movieService.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, movies)
}

// ListByCategory handles GET /api/movies/category/{category}.
func (h *MovieHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	movies, err := h.movieService.ListByCategory(r.Context(), category)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, movies)
}

// Get handles GET /api/movies/{id}. Authenticated requests leave a view
// event behind.
func (h *MovieHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid movie id")
		return
	}

	movie, err := h.movieService.Get(r.Context(), id, actorFromRequest(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, movie)
}
