package store

import (
	"context"
	"sync"
	"time"

	"github.com/layer-3/attendease/core"
	"github.com/layer-3/attendease/ports"
)

type activeEntry struct {
	token     core.Token
	expiresAt time.Time
}

// MemoryStore is an in-memory implementation of the ActiveTokenStore interface
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]activeEntry
	now    func() time.Time
}

var _ ports.ActiveTokenStore = (*MemoryStore)(nil)

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tokens: make(map[string]activeEntry),
		now:    time.Now,
	}
}

// WithClock replaces the clock used for expiry checks
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

// Put records token as the active token of its course
func (s *MemoryStore) Put(ctx context.Context, token core.Token, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[token.CourseID] = activeEntry{token: token, expiresAt: s.now().Add(ttl)}
	return nil
}

// Get returns the active token of a course, or nil
func (s *MemoryStore) Get(ctx context.Context, courseID string) (*core.Token, error) {
	s.mu.RLock()
	entry, exists := s.tokens[courseID]
	s.mu.RUnlock()

	if !exists {
		return nil, nil
	}

	if s.now().After(entry.expiresAt) {
		s.mu.Lock()
		// Only delete if no newer token replaced it meanwhile
		if cur, ok := s.tokens[courseID]; ok && !cur.expiresAt.After(entry.expiresAt) {
			delete(s.tokens, courseID)
		}
		s.mu.Unlock()
		return nil, nil
	}

	tok := entry.token
	return &tok, nil
}

// Delete forgets the active token of a course
func (s *MemoryStore) Delete(ctx context.Context, courseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tokens, courseID)
	return nil
}

// Clear removes all active tokens
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens = make(map[string]activeEntry)
	return nil
}
