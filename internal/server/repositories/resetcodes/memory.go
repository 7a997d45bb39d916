package resetcodes

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/discbaboons/internal/common"
)

type memoryEntry struct {
	code    string
	expires time.Time
}

// MemoryRepository keeps codes in process memory. Expired entries are
// dropped lazily on access.
type MemoryRepository struct {
	mu      sync.Mutex
	entries map[int64]memoryEntry
	now     func() time.Time
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository(now func() time.Time) *MemoryRepository {
	if now == nil {
		now = time.Now
	}
	return &MemoryRepository{entries: make(map[int64]memoryEntry), now: now}
}

func (r *MemoryRepository) Put(_ context.Context, userID int64, code string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[userID] = memoryEntry{code: code, expires: r.now().Add(ttl)}
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, userID int64) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.live(userID)
	if !ok {
		return "", common.ErrorNotFound
	}
	return e.code, nil
}

func (r *MemoryRepository) DeleteIfMatch(_ context.Context, userID int64, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.live(userID)
	if !ok || e.code != code {
		return false, nil
	}
	delete(r.entries, userID)
	return true, nil
}

// live must be called with mu held.
func (r *MemoryRepository) live(userID int64) (memoryEntry, bool) {
	e, ok := r.entries[userID]
	if !ok {
		return memoryEntry{}, false
	}
	if !r.now().Before(e.expires) {
		delete(r.entries, userID)
		return memoryEntry{}, false
	}
	return e, true
}
