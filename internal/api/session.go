package api

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// CredentialStore is the collaborator that owns the session token.
type CredentialStore interface {
	CurrentToken() string
	SetToken(token string)
}

// MemoryCredentials keeps the token in memory only.
type MemoryCredentials struct {
	mu    sync.RWMutex
	token string
}

func NewMemoryCredentials(token string) *MemoryCredentials {
	return &MemoryCredentials{token: strings.TrimSpace(token)}
}

func (m *MemoryCredentials) CurrentToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

func (m *MemoryCredentials) SetToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
}

// Session is the single gatekeeper for every credential read and write.
// Concurrent refreshes collapse into one call and every waiter observes the
// committed token only after the refresh has finished.
type Session struct {
	mu      sync.RWMutex
	store   CredentialStore
	refresh singleflight.Group
}

func NewSession(store CredentialStore) *Session {
	if store == nil {
		store = NewMemoryCredentials("")
	}
	return &Session{store: store}
}

// Token returns the current token and whether one is held.
func (s *Session) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token := s.store.CurrentToken()
	return token, token != ""
}

// SetToken commits a new token.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.SetToken(strings.TrimSpace(token))
}

// Refresh runs fetch at most once at a time and commits the token it
// returns.
func (s *Session) Refresh(ctx context.Context, fetch func(context.Context) (string, error)) error {
	_, err, _ := s.refresh.Do("refresh", func() (interface{}, error) {
		token, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		s.SetToken(token)
		return nil, nil
	})
	return err
}
