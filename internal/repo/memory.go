package repo

import (
	"context"
	"sync"
	"time"

	"github.com/nutrilabel/auth-service/internal/domain"
)

// Memory is an in-process UserRepository used by the handler tests. It
// mirrors the postgres semantics: unique username/google_id/reset_token
// and a compare-and-swap style token redemption.
type Memory struct {
	mu     sync.Mutex
	nextID int64
	users  map[string]*domain.User // keyed by username
}

func NewMemory() *Memory {
	return &Memory{nextID: 1, users: map[string]*domain.User{}}
}

func (m *Memory) CreateUser(ctx context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[u.Username]; ok {
		return domain.ErrDuplicateUser
	}
	if u.GoogleID != nil {
		for _, ex := range m.users {
			if ex.GoogleID != nil && *ex.GoogleID == *u.GoogleID {
				return domain.ErrDuplicateUser
			}
		}
	}

	u.ID = m.nextID
	m.nextID++
	u.CreatedAt = time.Now().UTC()

	cp := *u
	m.users[u.Username] = &cp
	return nil
}

func (m *Memory) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[username]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *Memory) FindByGoogle(ctx context.Context, email, googleID string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == email || (u.GoogleID != nil && *u.GoogleID == googleID) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *Memory) SetResetToken(ctx context.Context, username, token string, expiry time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[username]
	if !ok {
		return domain.ErrEmailNotFound
	}
	u.ResetToken = &token
	e := expiry
	u.ResetExpiry = &e
	return nil
}

func (m *Memory) RedeemResetToken(ctx context.Context, token, newHash string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for _, u := range m.users {
		if u.ResetToken != nil && *u.ResetToken == token && u.ResetExpiry != nil && u.ResetExpiry.After(now) {
			u.PasswordHash = newHash
			u.ResetToken = nil
			u.ResetExpiry = nil
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrInvalidOrExpiredToken
}

func (m *Memory) Ping(ctx context.Context) error { return nil }
func (m *Memory) Close() error                   { return nil }
