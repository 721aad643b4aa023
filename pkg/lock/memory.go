package lock

import (
	"context"
	"sync"
	"time"
)

// MemoryLocker is a process-local Locker used when Redis is not configured.
type MemoryLocker struct {
	mu    sync.Mutex
	held  map[string]memoryEntry
	seq   uint64
	clock func() time.Time
}

type memoryEntry struct {
	owner     uint64
	expiresAt time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		held:  make(map[string]memoryEntry),
		clock: time.Now,
	}
}

func (l *MemoryLocker) TryAcquire(_ context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if entry, ok := l.held[key]; ok && now.Before(entry.expiresAt) {
		return nil, ErrNotAcquired
	}

	l.seq++
	owner := l.seq
	l.held[key] = memoryEntry{owner: owner, expiresAt: now.Add(ttl)}

	release := func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if entry, ok := l.held[key]; ok && entry.owner == owner {
			delete(l.held, key)
		}
		return nil
	}
	return release, nil
}
