package credential

import (
	"fmt"
	"sort"
	"sync"
)

// Store is the in-memory credential registry shared by every concurrent
// request. All methods are safe for concurrent use; none performs I/O,
// so the lock is only ever held for bookkeeping.
type Store struct {
	mu      sync.RWMutex
	byID    map[string]*Credential
	nextSeq int
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{byID: make(map[string]*Credential)}
}

// Add registers a credential. IDs must be unique.
func (s *Store) Add(c *Credential) error {
	if c.ID == "" {
		return fmt.Errorf("credential has no id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[c.ID]; exists {
		return fmt.Errorf("credential %q already exists", c.ID)
	}
	cp := *c
	cp.insertSeq = s.nextSeq
	s.nextSeq++
	s.byID[c.ID] = &cp
	return nil
}

// Get returns a snapshot of the credential.
func (s *Store) Get(id string) (Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[id]
	if !ok {
		return Credential{}, false
	}
	return *c, true
}

// Remove deletes a credential.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	return true
}

// Update applies fn to the credential under the lock. fn must not block.
func (s *Store) Update(id string, fn func(*Credential)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return false
	}
	fn(c)
	return true
}

// List returns snapshots ordered by priority, ties broken by insertion
// order.
func (s *Store) List() []Credential {
	s.mu.RLock()
	creds := make([]Credential, 0, len(s.byID))
	for _, c := range s.byID {
		creds = append(creds, *c)
	}
	s.mu.RUnlock()

	sort.SliceStable(creds, func(i, j int) bool {
		if creds[i].Priority != creds[j].Priority {
			return creds[i].Priority < creds[j].Priority
		}
		return creds[i].insertSeq < creds[j].insertSeq
	})
	return creds
}

// Len returns the number of credentials.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Replace swaps the credential set for a freshly loaded one, carrying
// runtime health state over for entries whose refresh token is
// unchanged. Used by the file watcher's hot reload.
func (s *Store) Replace(creds []*Credential) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.byID
	s.byID = make(map[string]*Credential, len(creds))
	for _, c := range creds {
		cp := *c
		if prev, ok := old[c.ID]; ok && prev.RefreshToken == c.RefreshToken {
			cp.AccessToken = prev.AccessToken
			cp.ExpiresAt = prev.ExpiresAt
			cp.ConsecutiveFailures = prev.ConsecutiveFailures
			cp.insertSeq = prev.insertSeq
		} else {
			cp.insertSeq = s.nextSeq
			s.nextSeq++
		}
		s.byID[cp.ID] = &cp
	}
}
