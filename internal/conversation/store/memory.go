package store

import (
	"context"
	"sync"
	"time"

	"domainagent/internal/turn"
	"domainagent/pkg/platform/sentinel"
)

type memoryEntry struct {
	snapshot  Snapshot
	expiresAt time.Time
}

// InMemoryStore keeps snapshots in process memory. Expired entries are
// dropped lazily on read and by DeleteExpired.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	clock   func() time.Time
}

type MemoryOption func(*InMemoryStore)

func WithMemoryTTL(ttl time.Duration) MemoryOption {
	return func(s *InMemoryStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithMemoryClock(clock func() time.Time) MemoryOption {
	return func(s *InMemoryStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func NewInMemory(opts ...MemoryOption) *InMemoryStore {
	s := &InMemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     DefaultTTL,
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) Save(_ context.Context, snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[snap.ConversationID] = memoryEntry{
		snapshot:  cloneSnapshot(*snap),
		expiresAt: s.clock().Add(s.ttl),
	}
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, conversationID string) (*Snapshot, error) {
	s.mu.RLock()
	entry, ok := s.entries[conversationID]
	s.mu.RUnlock()
	if !ok || !s.clock().Before(entry.expiresAt) {
		return nil, sentinel.ErrNotFound
	}
	snap := cloneSnapshot(entry.snapshot)
	return &snap, nil
}

func (s *InMemoryStore) Delete(_ context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[conversationID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.entries, conversationID)
	return nil
}

// DeleteExpired removes expired snapshots and reports how many were removed.
func (s *InMemoryStore) DeleteExpired(_ context.Context) (int64, error) {
	now := s.clock()
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for id, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed, nil
}

func cloneSnapshot(in Snapshot) Snapshot {
	out := in
	out.Messages = append(out.Messages[:0:0], in.Messages...)
	out.Results = turn.CloneResults(in.Results)
	return out
}
