package app

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

const defaultPresenceShards = 32

// PresenceEntry live connection of a user
type PresenceEntry struct {
	Handle      Handle
	ConnectedAt time.Time
	LastSeen    time.Time
}

type presenceShard struct {
	mu      sync.RWMutex
	entries map[string]PresenceEntry
}

// PresenceRegistry user id -> current connection, one slot per user.
// Keys are spread over shards so unrelated users never share a lock.
type PresenceRegistry struct {
	shards []*presenceShard
	now    func() time.Time
}

// NewPresenceRegistry create registry, shards <= 0 uses the default
func NewPresenceRegistry(shards int) *PresenceRegistry {
	if shards <= 0 {
		shards = defaultPresenceShards
	}
	p := &PresenceRegistry{
		shards: make([]*presenceShard, shards),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for i := range p.shards {
		p.shards[i] = &presenceShard{entries: make(map[string]PresenceEntry)}
	}
	return p
}

func (p *PresenceRegistry) shard(userID string) *presenceShard {
	return p.shards[xxhash.Sum64String(userID)%uint64(len(p.shards))]
}

// Set register handle for userID, overwriting any previous handle.
// wasOnline reports whether the user already had an entry.
func (p *PresenceRegistry) Set(userID string, h Handle) (previous Handle, wasOnline bool) {
	s := p.shard(userID)
	now := p.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.entries[userID]
	s.entries[userID] = PresenceEntry{Handle: h, ConnectedAt: now, LastSeen: now}
	if ok {
		return old.Handle, true
	}
	return nil, false
}

// Remove drop the entry of userID whatever handle it holds
func (p *PresenceRegistry) Remove(userID string) (PresenceEntry, bool) {
	s := p.shard(userID)

	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.entries[userID]
	if ok {
		delete(s.entries, userID)
	}
	return old, ok
}

// Touch refresh last seen, false when the user is not registered
func (p *PresenceRegistry) Touch(userID string) (time.Time, bool) {
	s := p.shard(userID)
	now := p.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[userID]
	if !ok {
		return now, false
	}
	if now.After(e.LastSeen) {
		e.LastSeen = now
		s.entries[userID] = e
	}
	return e.LastSeen, true
}

// Get copy of the entry
func (p *PresenceRegistry) Get(userID string) (PresenceEntry, bool) {
	s := p.shard(userID)

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[userID]
	return e, ok
}

// IsOnline userID has an entry
func (p *PresenceRegistry) IsOnline(userID string) bool {
	_, ok := p.Get(userID)
	return ok
}

// Online subset of userIDs currently registered, input order kept
func (p *PresenceRegistry) Online(userIDs []string) []string {
	out := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if p.IsOnline(id) {
			out = append(out, id)
		}
	}
	return out
}

// Len number of registered users
func (p *PresenceRegistry) Len() int {
	n := 0
	for _, s := range p.shards {
		s.mu.RLock()
		n += len(s.entries)
		s.mu.RUnlock()
	}
	return n
}
