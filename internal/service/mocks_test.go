package service

import (
	"context"
	"sync"
	"time"

	"github.com/prn-tf/reelhouse/internal/audit"
	"github.com/prn-tf/reelhouse/internal/domain"
	"github.com/prn-tf/reelhouse/internal/repository"
)

// MockUserRepository is an in-memory repository.UserRepository.
type MockUserRepository struct {
	users     map[int64]*domain.User
	nextID    int64
	createErr error
	getErr    error
	updateErr error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:  make(map[int64]*domain.User),
		nextID: 1,
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, u := range m.users {
		if u.Username == user.Username {
			return domain.ErrUserAlreadyExists
		}
	}
	user.ID = m.nextID
	m.nextID++
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if u, ok := m.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, u := range m.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

func (m *MockUserRepository) UpdateSecret(ctx context.Context, id int64, secret string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordSecret = secret
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *MockUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	result := make([]*domain.User, 0, len(m.users))
	for _, u := range m.users {
		clone := *u
		result = append(result, &clone)
	}
	return result, nil
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	for _, u := range m.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// MockMovieRepository is an in-memory repository.MovieRepository backed
// by a shared MockActivityRepository so deletes can cascade.
type MockMovieRepository struct {
	movies   map[int64]*domain.Movie
	nextID   int64
	activity *MockActivityRepository
}

func NewMockMovieRepository(activity *MockActivityRepository) *MockMovieRepository {
	return &MockMovieRepository{
		movies:   make(map[int64]*domain.Movie),
		nextID:   1,
		activity: activity,
	}
}

func (m *MockMovieRepository) Create(ctx context.Context, movie *domain.Movie) error {
	movie.ID = m.nextID
	m.nextID++
	clone := *movie
	m.movies[movie.ID] = &clone
	return nil
}

func (m *MockMovieRepository) GetByID(ctx context.Context, id int64) (*domain.Movie, error) {
	if mv, ok := m.movies[id]; ok {
		clone := *mv
		return &clone, nil
	}
	return nil, repository.ErrNotFound
}

func (m *MockMovieRepository) List(ctx context.Context) ([]*domain.Movie, error) {
	result := make([]*domain.Movie, 0, len(m.movies))
	for _, mv := range m.movies {
		clone := *mv
		result = append(result, &clone)
	}
	return result, nil
}

func (m *MockMovieRepository) ListByCategory(ctx context.Context, category string) ([]*domain.Movie, error) {
	var result []*domain.Movie
	for _, mv := range m.movies {
		if mv.Category == category {
			clone := *mv
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (m *MockMovieRepository) Update(ctx context.Context, movie *domain.Movie) error {
	if _, ok := m.movies[movie.ID]; !ok {
		return repository.ErrNotFound
	}
	clone := *movie
	m.movies[movie.ID] = &clone
	return nil
}

func (m *MockMovieRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.movies[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.movies, id)
	if m.activity != nil {
		m.activity.deleteByMovieID(id)
	}
	return nil
}

// MockActivityRepository is an in-memory repository.ActivityRepository.
type MockActivityRepository struct {
	mu        sync.Mutex
	entries   []*domain.ActivityLog
	nextID    int64
	appendErr error
}

func NewMockActivityRepository() *MockActivityRepository {
	return &MockActivityRepository{nextID: 1}
}

func (m *MockActivityRepository) Append(ctx context.Context, entry *domain.ActivityLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	entry.ID = m.nextID
	m.nextID++
	entry.Timestamp = time.Now().UTC()
	clone := *entry
	m.entries = append(m.entries, &clone)
	return nil
}

func (m *MockActivityRepository) ListAll(ctx context.Context) ([]*domain.ActivityLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.ActivityLog, 0, len(m.entries))
	for i := len(m.entries) - 1; i >= 0; i-- {
		clone := *m.entries[i]
		result = append(result, &clone)
	}
	return result, nil
}

func (m *MockActivityRepository) ListByUserID(ctx context.Context, userID int64) ([]*domain.ActivityLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.ActivityLog
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if e.UserID != nil && *e.UserID == userID {
			clone := *e
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (m *MockActivityRepository) CountByMovieID(ctx context.Context, movieID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, e := range m.entries {
		if e.MovieID != nil && *e.MovieID == movieID {
			count++
		}
	}
	return count, nil
}

func (m *MockActivityRepository) deleteByMovieID(movieID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.entries[:0]
	for _, e := range m.entries {
		if e.MovieID == nil || *e.MovieID != movieID {
			kept = append(kept, e)
		}
	}
	m.entries = kept
}

// MockSessionRepository is an in-memory repository.SessionRepository.
type MockSessionRepository struct {
	sessions  map[string]*domain.Session
	createErr error
}

func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{sessions: make(map[string]*domain.Session)}
}

func (m *MockSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	if m.createErr != nil {
		return m.createErr
	}
	clone := *session
	m.sessions[session.Token] = &clone
	return nil
}

func (m *MockSessionRepository) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	if s, ok := m.sessions[token]; ok {
		clone := *s
		return &clone, nil
	}
	return nil, repository.ErrNotFound
}

func (m *MockSessionRepository) Delete(ctx context.Context, token string) error {
	delete(m.sessions, token)
	return nil
}

func (m *MockSessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	now := time.Now().UTC()
	var deleted int64
	for token, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, token)
			deleted++
		}
	}
	return deleted, nil
}

// CapturingRecorder keeps every recorded event for assertions.
type CapturingRecorder struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *CapturingRecorder) Record(ctx context.Context, event audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *CapturingRecorder) Events() []audit.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]audit.Event(nil), r.events...)
}

func (r *CapturingRecorder) EventsOfKind(kind domain.ActivityKind) []audit.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []audit.Event
	for _, e := range r.events {
		if e.Kind == kind {
			result = append(result, e)
		}
	}
	return result
}

// Interface checks.
var (
	_ repository.UserRepository     = (*MockUserRepository)(nil)
	_ repository.MovieRepository    = (*MockMovieRepository)(nil)
	_ repository.ActivityRepository = (*MockActivityRepository)(nil)
	_ repository.SessionRepository  = (*MockSessionRepository)(nil)
	_ audit.Recorder                = (*CapturingRecorder)(nil)
)
