package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memStore struct {
	mu     sync.Mutex
	users  map[string]Credentials
	tokens map[string]RefreshToken
}

func newMemStore() *memStore {
	return &memStore{users: map[string]Credentials{}, tokens: map[string]RefreshToken{}}
}

func (m *memStore) CreateUser(_ context.Context, c Credentials) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, c.Email) {
			return User{}, ErrEmailTaken
		}
		if strings.EqualFold(u.Username, c.Username) {
			return User{}, ErrUsernameTaken
		}
	}
	now := time.Now().UTC()
	c.ID = uuid.NewString()
	c.CreatedAt, c.UpdatedAt = now, now
	m.users[c.ID] = c
	return c.User, nil
}

func (m *memStore) CredentialsByLogin(_ context.Context, login string) (Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, login) || strings.EqualFold(u.Username, login) {
			return u, nil
		}
	}
	return Credentials{}, ErrUserNotFound
}

func (m *memStore) UserByID(_ context.Context, id string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u.User, nil
}

func (m *memStore) CreateRefreshToken(_ context.Context, t RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[t.Hash] = t
	return nil
}

func (m *memStore) RefreshTokenByHash(_ context.Context, hash string) (RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[hash]
	if !ok {
		return RefreshToken{}, ErrTokenNotFound
	}
	return t, nil
}

func (m *memStore) RotateRefreshToken(_ context.Context, id, newHash string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for hash, t := range m.tokens {
		if t.ID == id {
			delete(m.tokens, hash)
			t.Hash, t.ExpiresAt = newHash, expiresAt
			m.tokens[newHash] = t
			return nil
		}
	}
	return ErrTokenNotFound
}

func (m *memStore) RevokeRefreshToken(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, hash)
	return nil
}

func (m *memStore) promote(id, role string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.users[id]
	c.Roles = append(c.Roles, role)
	m.users[id] = c
}
