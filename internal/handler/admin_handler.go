package handler

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/reelhouse/internal/domain"
	"github.com/prn-tf/reelhouse/internal/service"
	"github.com/prn-tf/reelhouse/internal/storage"
)

// AdminHandler serves the admin endpoints: catalog mutation, user
// management, and the activity log. Every route behind it passes
// RequireAdmin first.
type AdminHandler struct {
	movieService    *service.MovieService
	userService     *service.UserService
	activityService *service.ActivityService
	media           storage.MediaStore
	maxUploadSize   int64
	logger          zerolog.Logger
}

// AdminHandlerConfig contains configuration for the admin handler.
type AdminHandlerConfig struct {
	MovieService    *service.MovieService
	UserService     *service.UserService
	ActivityService *service.ActivityService
	Media           storage.MediaStore
	MaxUploadSize   int64
	Logger          zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(cfg AdminHandlerConfig) *AdminHandler {
	return &AdminHandler{
		movieService:    cfg.MovieService,
		userService:     cfg.UserService,
		activityService: cfg.ActivityService,
		media:           cfg.Media,
		maxUploadSize:   cfg.MaxUploadSize,
		logger:          cfg.Logger.With().Str("handler", "admin").Logger(),
	}
}

// =============================================================================
// Catalog
// =============================================================================

// CreateMovie handles POST /api/admin/movies. The request is a
// multipart form carrying the metadata fields plus two files, thumbnail
// and video; both are required.
func (h *AdminHandler) CreateMovie(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	input, err := movieInputFromForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	thumbnail, thumbnailHeader, err := r.FormFile("thumbnail")
	if err != nil {
		writeError(w, http.StatusBadRequest, "thumbnail file is required")
		return
	}
	defer thumbnail.Close()

	video, videoHeader, err := r.FormFile("video")
	if err != nil {
		writeError(w, http.StatusBadRequest, "video file is required")
		return
	}
	defer video.Close()

	thumbnailURL, err := h.saveUpload(r, thumbnail, thumbnailHeader)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to store thumbnail")
		writeError(w, http.StatusInternalServerError, "failed to store thumbnail")
		return
	}

	videoURL, err := h.saveUpload(r, video, videoHeader)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to store video")
		h.discardMedia(r, thumbnailURL)
		writeError(w, http.StatusInternalServerError, "failed to store video")
		return
	}

	input.ThumbnailURL = thumbnailURL
	input.VideoURL = videoURL

	movie, err := h.movieService.Create(r.Context(), input, actorFromRequest(r))
	if err != nil {
		h.discardMedia(r, thumbnailURL)
		h.discardMedia(r, videoURL)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, movie)
}

// UpdateMovie handles PUT /api/admin/movies/{id} with a partial JSON body.
func (h *AdminHandler) UpdateMovie(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid movie id")
		return
	}

	var update domain.MovieUpdate
	if err := decodeJSON(r, &update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	movie, err := h.movieService.Update(r.Context(), id, update, actorFromRequest(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, movie)
}

// DeleteMovie handles DELETE /api/admin/movies/{id}.
func (h *AdminHandler) DeleteMovie(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid movie id")
		return
	}

	if err := h.movieService.Delete(r.Context(), id, actorFromRequest(r)); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "movie deleted"})
}

// =============================================================================
// Activity log
// =============================================================================

// ListActivity handles GET /api/admin/activity.
func (h *AdminHandler) ListActivity(w http.ResponseWriter, r *http.Request) {
	entries, err := h.activityService.ListAll(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// ListUserActivity handles GET /api/admin/activity/user/{id}.
func (h *AdminHandler) ListUserActivity(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	entries, err := h.activityService.ListByUser(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// =============================================================================
// Users
// =============================================================================

// ListUsers handles GET /api/admin/users.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	public := make([]domain.PublicUser, 0, len(users))
	for _, user := range users {
		public = append(public, user.Public())
	}
	writeJSON(w, http.StatusOK, public)
}

type createUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"isAdmin"`
}

// CreateUser handles POST /api/admin/users.
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.userService.Create(r.Context(), service.CreateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		IsAdmin:  req.IsAdmin,
	}, actorFromRequest(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user.Public())
}

type updateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	IsAdmin  *bool   `json:"isAdmin"`
}

// UpdateUser handles PUT /api/admin/users/{id}.
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.userService.Update(r.Context(), id, service.UpdateUserInput{
		Username: req.Username,
		Email:    req.Email,
		IsAdmin:  req.IsAdmin,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Public())
}

// DeleteUser handles DELETE /api/admin/users/{id}. The user's audit
// entries survive with a nulled user reference.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.userService.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

// =============================================================================
// Helpers
// =============================================================================

// movieInputFromForm collects the metadata fields of the multipart
// create form. Numeric fields must parse; missing ones read as zero and
// fall to service-level validation.
func movieInputFromForm(r *http.Request) (service.CreateMovieInput, error) {
	input := service.CreateMovieInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Rating:      r.FormValue("rating"),
		Category:    r.FormValue("category"),
	}

	for _, field := range []struct {
		name string
		dst  *int
	}{
		{"year", &input.Year},
		{"duration", &input.Duration},
		{"score", &input.Score},
	} {
		raw := r.FormValue(field.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return input, fmt.Errorf("invalid %s value", field.name)
		}
		*field.dst = n
	}

	return input, nil
}

func (h *AdminHandler) saveUpload(r *http.Request, file multipart.File, header *multipart.FileHeader) (string, error) {
	contentType := header.Header.Get("Content-Type")
	return h.media.Save(r.Context(), header.Filename, contentType, file, header.Size)
}

// discardMedia best-effort deletes an object stored earlier in a
// request that subsequently failed.
func (h *AdminHandler) discardMedia(r *http.Request, url string) {
	name := storage.NameFromURL(url)
	if name == "" {
		return
	}
	if err := h.media.Delete(r.Context(), name); err != nil {
		h.logger.Error().Err(err).Str("name", name).Msg("failed to discard stored media")
	}
}
