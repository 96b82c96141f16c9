package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/notespace-api/internal/domain"
	"github.com/notespace-api/internal/pkg/id"
)

// UserStore is a map-backed identity store with find-or-create semantics.
type UserStore struct {
	mu      sync.Mutex
	byID    map[string]*domain.User
	byEmail map[string]string // email -> user id
}

func NewUserStore() *UserStore {
	return &UserStore{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]string),
	}
}

func (s *UserStore) FindOrCreateByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if uid, ok := s.byEmail[email]; ok {
		u := *s.byID[uid]
		return &u, nil
	}
	u := &domain.User{
		UserID:    id.New(),
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	s.byID[u.UserID] = u
	s.byEmail[email] = u.UserID
	out := *u
	return &out, nil
}

func (s *UserStore) FindByID(_ context.Context, userID string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[userID]
	if !ok {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	out := *u
	return &out, nil
}

// Delete removes a user. Exists so tests can exercise the vanished-user
// refresh path.
func (s *UserStore) Delete(_ context.Context, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[userID]; ok {
		delete(s.byEmail, u.Email)
		delete(s.byID, userID)
	}
}
