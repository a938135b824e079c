package authkit

import (
	"context"
	"sync"
)

// MemorySessionStore is the in-process reference SessionStore. It is safe for
// concurrent use and is what the test suite and single-node deployments run
// against.
type MemorySessionStore struct {
	mu      sync.RWMutex
	byToken map[string]string
}

// NewMemorySessionStore creates an empty in-memory session store
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		byToken: make(map[string]string),
	}
}

var _ SessionStore = (*MemorySessionStore)(nil)

// Put records an outstanding refresh token for the principal
func (s *MemorySessionStore) Put(ctx context.Context, tokenValue, principalID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byToken[tokenValue] = principalID
	return nil
}

// Exists reports whether the refresh token is still outstanding
func (s *MemorySessionStore) Exists(ctx context.Context, tokenValue string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byToken[tokenValue]
	return ok, nil
}

// DeleteByValue removes the record for the token. Absent records are not an
// error; deletes are idempotent.
func (s *MemorySessionStore) DeleteByValue(ctx context.Context, tokenValue string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byToken, tokenValue)
	return nil
}

// DeleteAllByPrincipal revokes every outstanding session for the principal
func (s *MemorySessionStore) DeleteAllByPrincipal(ctx context.Context, principalID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for token, owner := range s.byToken {
		if owner == principalID {
			delete(s.byToken, token)
		}
	}
	return nil
}

// Len returns the number of outstanding sessions
func (s *MemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byToken)
}
