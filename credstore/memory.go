package credstore

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store for tests and ephemeral sessions.
type MemoryStore struct {
	mu  sync.Mutex
	rec Record
	set bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save persists the record.
func (s *MemoryStore) Save(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.RememberedLogin == "" {
		rec.RememberedLogin = s.rec.RememberedLogin
	}
	s.rec = rec
	s.set = true
	return nil
}

// Load reads the record.
func (s *MemoryStore) Load(ctx context.Context) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rec.partial() {
		remembered := s.rec.RememberedLogin
		s.rec = Record{RememberedLogin: remembered}
		return Record{RememberedLogin: remembered}, ErrCorruptRecord
	}
	if !s.set || !s.rec.HasTokens() {
		return Record{RememberedLogin: s.rec.RememberedLogin}, ErrNoCredentials
	}
	return s.rec, nil
}

// Clear erases the token pair and keeps the remembered login.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = Record{RememberedLogin: s.rec.RememberedLogin}
	return nil
}
