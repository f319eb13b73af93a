package session

import (
	"time"

	"github.com/patrickmn/go-cache"
)

const cleanupInterval = 10 * time.Minute

// Store keeps sessions in memory and expires them after a period without use
type Store struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewStore creates a store whose sessions expire ttl after their last access
func NewStore(ttl time.Duration) *Store {
	return &Store{
		cache: cache.New(ttl, cleanupInterval),
		ttl:   ttl,
	}
}

// GetOrCreate returns the session for id, creating it if needed, and refreshes its expiry
func (s *Store) GetOrCreate(id string) *Session {
	if sess, ok := s.Lookup(id); ok {
		return sess
	}

	fresh := New(id)
	if err := s.cache.Add(id, fresh, s.ttl); err != nil {
		// Lost a race with another request for the same id
		if sess, ok := s.Lookup(id); ok {
			return sess
		}
		s.cache.Set(id, fresh, s.ttl)
	}
	return fresh
}

// Lookup returns an existing session and refreshes its expiry
func (s *Store) Lookup(id string) (*Session, bool) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*Session)
	if !ok {
		return nil, false
	}
	s.cache.Set(id, sess, s.ttl)
	return sess, true
}

// Delete drops a session
func (s *Store) Delete(id string) {
	s.cache.Delete(id)
}

// Count returns the number of live sessions
func (s *Store) Count() int {
	return s.cache.ItemCount()
}
