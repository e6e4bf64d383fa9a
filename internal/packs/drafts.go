package packs

import (
	"sync"
	"time"
)

// State is a user's position in the pack creation dialogue.
type State int

const (
	Idle State = iota
	AwaitingTitle
	AwaitingType
)

func (s State) String() string {
	switch s {
	case AwaitingTitle:
		return "awaiting_title"
	case AwaitingType:
		return "awaiting_type"
	default:
		return "idle"
	}
}

// Draft is a pack under construction.
type Draft struct {
	State     State
	Title     string
	UpdatedAt time.Time
}

// DraftStore holds in-progress dialogues keyed by user id.
type DraftStore struct {
	mu     sync.Mutex
	drafts map[int64]Draft
	now    func() time.Time
}

// NewDraftStore creates an empty store. A nil clock means time.Now.
func NewDraftStore(now func() time.Time) *DraftStore {
	if now == nil {
		now = time.Now
	}
	return &DraftStore{drafts: make(map[int64]Draft), now: now}
}

// Get returns the user's draft, if any.
func (s *DraftStore) Get(userID int64) (Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[userID]
	return d, ok
}

// Put replaces the user's draft and stamps it.
func (s *DraftStore) Put(userID int64, d Draft) {
	d.UpdatedAt = s.now()
	s.mu.Lock()
	s.drafts[userID] = d
	s.mu.Unlock()
}

// Delete discards the user's draft.
func (s *DraftStore) Delete(userID int64) {
	s.mu.Lock()
	delete(s.drafts, userID)
	s.mu.Unlock()
}

// Len returns the number of open drafts.
func (s *DraftStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.drafts)
}

// Sweep drops drafts untouched for longer than ttl.
func (s *DraftStore) Sweep(ttl time.Duration) int {
	cutoff := s.now().Add(-ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, d := range s.drafts {
		if d.UpdatedAt.Before(cutoff) {
			delete(s.drafts, id)
			removed++
		}
	}
	return removed
}
