package ratelimit

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// window is one client's counter.
type window struct {
	start time.Time
	count int
}

// MemoryStore keeps windows in process memory.
//
// Each window is stored with an expiration equal to its length, and a sweep
// loop drops expired ones every sweep interval, so clients that stop sending
// do not accumulate. The loop stops on Close.
type MemoryStore struct {
	mu      sync.Mutex
	windows *gocache.Cache
	now     func() time.Time

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewMemoryStore creates an in-memory store. A sweepInterval of 0 or less
// disables the background sweep; stale windows are then only replaced on reuse.
func NewMemoryStore(sweepInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		// No go-cache janitor: its goroutine cannot be stopped explicitly.
		windows: gocache.New(gocache.NoExpiration, 0),
		now:     time.Now,
	}
	if sweepInterval > 0 {
		s.stop = make(chan struct{})
		s.done = make(chan struct{})
		go s.sweep(sweepInterval)
	}
	return s
}

func (s *MemoryStore) sweep(interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.windows.DeleteExpired()
		case <-s.stop:
			return
		}
	}
}

// Take implements Store.
func (s *MemoryStore) Take(_ context.Context, key string, max int, length time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if v, found := s.windows.Get(key); found {
		w := v.(*window)
		if now.Sub(w.start) < length {
			if w.count >= max {
				return false, nil
			}
			w.count++
			return true, nil
		}
	}

	s.windows.Set(key, &window{start: now, count: 1}, length)
	return true, nil
}

// Len returns the number of tracked clients, including ones whose window has
// elapsed but not yet been swept.
func (s *MemoryStore) Len() int {
	return s.windows.ItemCount()
}

// Close stops the sweep loop and drops all windows. It is safe to call more
// than once.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() {
		if s.stop != nil {
			close(s.stop)
			<-s.done
		}
		s.windows.Flush()
	})
	return nil
}

var _ Store = (*MemoryStore)(nil)
