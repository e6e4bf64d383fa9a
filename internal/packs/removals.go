package packs

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// RemovalPrefix starts the callback data of a removal confirmation.
const RemovalPrefix = "del_sticker_"

type removal struct {
	userID  int64
	fileID  string
	created time.Time
}

// Removals maps short tokens to sticker file ids awaiting confirmation.
// Callback data is capped at 64 bytes, so the file id itself cannot be
// carried in the button.
type Removals struct {
	mu      sync.Mutex
	pending map[string]removal
	now     func() time.Time
}

// NewRemovals creates an empty registry. A nil clock means time.Now.
func NewRemovals(now func() time.Time) *Removals {
	if now == nil {
		now = time.Now
	}
	return &Removals{pending: make(map[string]removal), now: now}
}

// Offer registers fileID for userID and returns the token to embed in the
// confirmation button.
func (r *Removals) Offer(userID int64, fileID string) string {
	token := uuid.NewString()
	r.mu.Lock()
	r.pending[token] = removal{userID: userID, fileID: fileID, created: r.now()}
	r.mu.Unlock()
	return token
}

// Take resolves and consumes a token. Tokens issued to another user are
// left in place and reported as missing.
func (r *Removals) Take(userID int64, token string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[token]
	if !ok || p.userID != userID {
		return "", false
	}
	delete(r.pending, token)
	return p.fileID, true
}

// Len returns the number of pending removals.
func (r *Removals) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Sweep drops tokens older than ttl.
func (r *Removals) Sweep(ttl time.Duration) int {
	cutoff := r.now().Add(-ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for token, p := range r.pending {
		if p.created.Before(cutoff) {
			delete(r.pending, token)
			removed++
		}
	}
	return removed
}
