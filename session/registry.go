package session

import (
	"sort"
	"sync"
)

// registry maps keys to live streams. It is the single source of truth for
// whether a session is alive.
//
// The registry lock is never held while a stream lock is acquired, so a
// blocked pipe write on one session does not stall control operations on
// another.
type registry struct {
	mu      sync.Mutex
	streams map[Key]*stream
	limit   int // 0 means unlimited
}

func newRegistry(limit int) *registry {
	return &registry{streams: make(map[Key]*stream), limit: limit}
}

// insert adds s under its key. When the key is taken and replace is false,
// nothing changes and ErrSessionExists is returned. When replace is true the
// previous stream is detached and returned; the caller must terminate it.
// A new key beyond the limit fails with ErrTooManySessions. Replacing a key
// does not take a new slot.
func (r *registry) insert(s *stream, replace bool) (*stream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, found := r.streams[s.key]
	switch {
	case found && !replace:
		return nil, ErrSessionExists
	case !found && r.limit > 0 && len(r.streams) >= r.limit:
		return nil, ErrTooManySessions
	}
	if found {
		prev.detached.Store(true)
	}
	r.streams[s.key] = s
	return prev, nil
}

// get returns the stream registered under key.
func (r *registry) get(key Key) (*stream, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.streams[key]
	return s, ok
}

// remove detaches and returns the stream under key. Ownership of the
// process passes to the caller.
func (r *registry) remove(key Key) *stream {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.streams[key]
	if !ok {
		return nil
	}
	delete(r.streams, key)
	s.detached.Store(true)
	return s
}

// removeIf removes key only if it still maps to s.
func (r *registry) removeIf(key Key, s *stream) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.streams[key] != s {
		return false
	}
	delete(r.streams, key)
	s.detached.Store(true)
	return true
}

// with runs fn on the stream under key while holding that stream's lock.
// It reports false when no stream is registered.
func (r *registry) with(key Key, fn func(*stream) error) (bool, error) {
	s, ok := r.get(key)
	if !ok {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detached.Load() {
		return false, nil
	}
	return true, fn(s)
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.streams)
}

// snapshot returns the registered streams ordered by key.
func (r *registry) snapshot() []*stream {
	r.mu.Lock()
	streams := make([]*stream, 0, len(r.streams))
	for _, s := range r.streams {
		streams = append(streams, s)
	}
	r.mu.Unlock()

	sort.Slice(streams, func(i, j int) bool {
		return streams[i].key.String() < streams[j].key.String()
	})
	return streams
}

// drain removes and returns every stream.
func (r *registry) drain() []*stream {
	r.mu.Lock()
	defer r.mu.Unlock()

	streams := make([]*stream, 0, len(r.streams))
	for key, s := range r.streams {
		delete(r.streams, key)
		s.detached.Store(true)
		streams = append(streams, s)
	}
	return streams
}
