package ws

import (
	"sync"

	"chat-relay/internal/models"
)

// Member is a live connection eligible for room fan-out. Deliver is fallible
// so the hub can treat a failed write as a disconnect.
type Member interface {
	Deliver(event models.Event) error
	Close()
}

// Registry maps room identifiers to their currently connected members. All
// operations are safe under concurrent access from independent connection
// lifecycles.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[Member]bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]map[Member]bool)}
}

// Join adds a member to a room.
func (r *Registry) Join(room string, m Member) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[room]; !ok {
		r.rooms[room] = make(map[Member]bool)
	}
	r.rooms[room][m] = true
}

// Leave removes a member from a room. Leaving twice, or leaving a room the
// member never joined, is a no-op.
func (r *Registry) Leave(room string, m Member) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if members, ok := r.rooms[room]; ok {
		delete(members, m)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
}

// Members returns a snapshot of the room's membership. Unknown rooms yield
// an empty slice.
func (r *Registry) Members(room string) []Member {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := make([]Member, 0, len(r.rooms[room]))
	for m := range r.rooms[room] {
		members = append(members, m)
	}
	return members
}

// Count reports the current membership size of a room.
func (r *Registry) Count(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}
