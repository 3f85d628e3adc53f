package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/reelhouse/internal/audit"
	"github.com/prn-tf/reelhouse/internal/domain"
	"github.com/prn-tf/reelhouse/internal/pkg/crypto"
	"github.com/prn-tf/reelhouse/internal/repository"
	"github.com/prn-tf/reelhouse/internal/service"
	"github.com/prn-tf/reelhouse/internal/storage"
)

var testSecret = []byte("test-secret-test-secret-test-secret!")

// fakeStore implements the repository interfaces in memory for HTTP tests.
type fakeStore struct {
	users    map[int64]*domain.User
	sessions map[string]*domain.Session
	movies   map[int64]*domain.Movie
	entries  []*domain.ActivityLog
	nextID   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[int64]*domain.User),
		sessions: make(map[string]*domain.Session),
		movies:   make(map[int64]*domain.Movie),
		nextID:   1,
	}
}

func (s *fakeStore) id() int64 {
	id := s.nextID
	s.nextID++
	return id
}

// UserRepository

func (s *fakeStore) Create(ctx context.Context, user *domain.User) error {
	for _, u := range s.users {
		if u.Username == user.Username {
			return domain.ErrUserAlreadyExists
		}
	}
	user.ID = s.id()
	s.users[user.ID] = user
	return nil
}

func (s *fakeStore) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if u, ok := s.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, repository.ErrNotFound
}

func (s *fakeStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeStore) Update(ctx context.Context, user *domain.User) error {
	if _, ok := s.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	clone := *user
	s.users[user.ID] = &clone
	return nil
}

func (s *fakeStore) UpdateSecret(ctx context.Context, id int64, secret string) error {
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordSecret = secret
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, id int64) error {
	if _, ok := s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *fakeStore) List(ctx context.Context) ([]*domain.User, error) {
	result := make([]*domain.User, 0, len(s.users))
	for _, u := range s.users {
		clone := *u
		result = append(result, &clone)
	}
	return result, nil
}

func (s *fakeStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := s.GetByUsername(ctx, username)
	return err == nil, nil
}

func (s *fakeStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	for _, u := range s.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// sessionStore wraps fakeStore as a repository.SessionRepository.
type sessionStore struct{ s *fakeStore }

func (st sessionStore) Create(ctx context.Context, session *domain.Session) error {
	clone := *session
	st.s.sessions[session.Token] = &clone
	return nil
}

func (st sessionStore) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	if sess, ok := st.s.sessions[token]; ok {
		clone := *sess
		return &clone, nil
	}
	return nil, repository.ErrNotFound
}

func (st sessionStore) Delete(ctx context.Context, token string) error {
	delete(st.s.sessions, token)
	return nil
}

func (st sessionStore) DeleteExpired(ctx context.Context) (int64, error) { return 0, nil }

// movieStore wraps fakeStore as a repository.MovieRepository.
type movieStore struct{ s *fakeStore }

func (st movieStore) Create(ctx context.Context, movie *domain.Movie) error {
	movie.ID = st.s.id()
	clone := *movie
	st.s.movies[movie.ID] = &clone
	return nil
}

func (st movieStore) GetByID(ctx context.Context, id int64) (*domain.Movie, error) {
	if m, ok := st.s.movies[id]; ok {
		clone := *m
		return &clone, nil
	}
	return nil, repository.ErrNotFound
}

func (st movieStore) List(ctx context.Context) ([]*domain.Movie, error) {
	result := make([]*domain.Movie, 0, len(st.s.movies))
	for _, m := range st.s.movies {
		clone := *m
		result = append(result, &clone)
	}
	return result, nil
}

func (st movieStore) ListByCategory(ctx context.Context, category string) ([]*domain.Movie, error) {
	var result []*domain.Movie
	for _, m := range st.s.movies {
		if m.Category == category {
			clone := *m
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (st movieStore) Update(ctx context.Context, movie *domain.Movie) error {
	if _, ok := st.s.movies[movie.ID]; !ok {
		return repository.ErrNotFound
	}
	clone := *movie
	st.s.movies[movie.ID] = &clone
	return nil
}

func (st movieStore) Delete(ctx context.Context, id int64) error {
	if _, ok := st.s.movies[id]; !ok {
		return repository.ErrNotFound
	}
	delete(st.s.movies, id)
	kept := st.s.entries[:0]
	for _, e := range st.s.entries {
		if e.MovieID == nil || *e.MovieID != id {
			kept = append(kept, e)
		}
	}
	st.s.entries = kept
	return nil
}

// activityStore wraps fakeStore as a repository.ActivityRepository.
type activityStore struct{ s *fakeStore }

func (st activityStore) Append(ctx context.Context, entry *domain.ActivityLog) error {
	entry.ID = st.s.id()
	entry.Timestamp = time.Now().UTC()
	clone := *entry
	st.s.entries = append(st.s.entries, &clone)
	return nil
}

func (st activityStore) ListAll(ctx context.Context) ([]*domain.ActivityLog, error) {
	result := make([]*domain.ActivityLog, 0, len(st.s.entries))
	for i := len(st.s.entries) - 1; i >= 0; i-- {
		clone := *st.s.entries[i]
		result = append(result, &clone)
	}
	return result, nil
}

func (st activityStore) ListByUserID(ctx context.Context, userID int64) ([]*domain.ActivityLog, error) {
	var result []*domain.ActivityLog
	for i := len(st.s.entries) - 1; i >= 0; i-- {
		e := st.s.entries[i]
		if e.UserID != nil && *e.UserID == userID {
			clone := *e
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (st activityStore) CountByMovieID(ctx context.Context, movieID int64) (int64, error) {
	var count int64
	for _, e := range st.s.entries {
		if e.MovieID != nil && *e.MovieID == movieID {
			count++
		}
	}
	return count, nil
}

// nopHealth satisfies repository.DatabaseHealth.
type nopHealth struct{}

func (nopHealth) Ping(ctx context.Context) error { return nil }
func (nopHealth) Close() error                   { return nil }

// newTestServer wires the full HTTP stack over the fake store.
func newTestServer(t *testing.T) (*httptest.Server, *fakeStore) {
	t.Helper()

	store := newFakeStore()
	logger := zerolog.Nop()

	recorder := audit.NewRecorder(activityStore{store}, logger)
	authService := service.NewAuthService(store, sessionStore{store}, recorder, logger)
	userService := service.NewUserService(store, recorder, logger)
	movieService := service.NewMovieService(movieStore{store}, recorder, logger)
	activityService := service.NewActivityService(activityStore{store}, store, movieStore{store}, logger)

	media, err := storage.NewFilesystemStore(t.TempDir(), "/uploads", logger)
	require.NoError(t, err)

	router := NewRouter(RouterConfig{
		AuthHandler: NewAuthHandler(AuthHandlerConfig{
			AuthService: authService,
			CookieName:  "reelhouse_session",
			Secret:      testSecret,
			Logger:      logger,
		}),
		MovieHandler: NewMovieHandler(movieService, logger),
		AdminHandler: NewAdminHandler(AdminHandlerConfig{
			MovieService:    movieService,
			UserService:     userService,
			ActivityService: activityService,
			Media:           media,
			MaxUploadSize:   10 << 20,
			Logger:          logger,
		}),
		AuthMiddleware: NewAuthMiddleware(authService, "reelhouse_session", testSecret, logger),
		Recorder:       recorder,
		Health:         nopHealth{},
		Media:          media,
		Logger:         logger,
	})

	srv := httptest.NewServer(router.Handler())
	t.Cleanup(srv.Close)
	return srv, store
}

func seedAccount(t *testing.T, store *fakeStore, username string, admin bool) *domain.User {
	t.Helper()
	secret, err := crypto.HashPassword("password1")
	require.NoError(t, err)
	user := domain.NewUser(username, username+"@example.com", secret)
	user.IsAdmin = admin
	require.NoError(t, store.Create(context.Background(), user))
	return user
}

// login returns the session cookie for an account.
func login(t *testing.T, srv *httptest.Server, username string) *http.Cookie {
	t.Helper()

	body := strings.NewReader(`{"username":"` + username + `","password":"password1"}`)
	resp, err := http.Post(srv.URL+"/api/login", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, c := range resp.Cookies() {
		if c.Name == "reelhouse_session" {
			return c
		}
	}
	t.Fatal("no session cookie in login response")
	return nil
}

func doRequest(t *testing.T, method, url string, cookie *http.Cookie) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestAdminGate(t *testing.T) {
	srv, store := newTestServer(t)
	seedAccount(t, store, "admin", true)
	seedAccount(t, store, "user", false)

	adminCookie := login(t, srv, "admin")
	userCookie := login(t, srv, "user")

	tests := []struct {
		name   string
		cookie *http.Cookie
		want   int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"authenticated non-admin", userCookie, http.StatusForbidden},
		{"admin", adminCookie, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, http.MethodGet, srv.URL+"/api/admin/users", tt.cookie)
			defer resp.Body.Close()
			require.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestAdminGate_PromotionEffectiveNextRequest(t *testing.T) {
	srv, store := newTestServer(t)
	user := seedAccount(t, store, "user", false)
	cookie := login(t, srv, "user")

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/admin/users", cookie)
	resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Promote without touching the session.
	store.users[user.ID].IsAdmin = true

	resp = doRequest(t, http.MethodGet, srv.URL+"/api/admin/users", cookie)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestForgedCookieIsAnonymous(t *testing.T) {
	srv, store := newTestServer(t)
	seedAccount(t, store, "admin", true)
	cookie := login(t, srv, "admin")

	// Re-sign the token with the wrong secret.
	token, _, ok := strings.Cut(cookie.Value, ".")
	require.True(t, ok)
	forged := &http.Cookie{
		Name:  "reelhouse_session",
		Value: crypto.SignToken(token, []byte("wrong-secret-wrong-secret-wrong!")),
	}

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/user", forged)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCurrentUser(t *testing.T) {
	srv, store := newTestServer(t)
	seedAccount(t, store, "alice", false)
	cookie := login(t, srv, "alice")

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/user", cookie)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var user domain.PublicUser
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&user))
	require.Equal(t, "alice", user.Username)
	require.False(t, user.IsAdmin)

	// The stored secret must never leak.
	resp2 := doRequest(t, http.MethodGet, srv.URL+"/api/user", cookie)
	defer resp2.Body.Close()
	var raw map[string]any
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&raw))
	_, leaked := raw["passwordSecret"]
	require.False(t, leaked)
}

func TestRequestAuditExcludesActivityReads(t *testing.T) {
	srv, store := newTestServer(t)
	seedAccount(t, store, "admin", true)
	cookie := login(t, srv, "admin")

	before := len(store.entries)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/admin/activity", cookie)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, e := range store.entries[before:] {
		require.NotEqual(t, domain.ActivityRequest, e.Activity,
			"activity reads must not emit request events")
	}

	resp = doRequest(t, http.MethodGet, srv.URL+"/api/movies", cookie)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var requests int
	for _, e := range store.entries {
		if e.Activity == domain.ActivityRequest {
			requests++
			require.Equal(t, "/api/movies", e.Details["path"])
			require.Equal(t, http.MethodGet, e.Details["method"])
		}
	}
	require.Equal(t, 1, requests)
}

func TestMovieNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/movies/42")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRegisterDuplicate(t *testing.T) {
	srv, _ := newTestServer(t)

	payload := `{"username":"carol","email":"carol@example.com","password":"password1"}`
	resp, err := http.Post(srv.URL+"/api/register", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/register", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "username already exists", body.Message)

	// A fresh username with a taken email is rejected the same way.
	payload = `{"username":"carol2","email":"carol@example.com","password":"password1"}`
	resp, err = http.Post(srv.URL+"/api/register", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "email already exists", body.Message)
}
