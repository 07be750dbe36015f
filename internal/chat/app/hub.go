package app

import (
	"encoding/json"
	"sync"

	"estate_chat_service/internal/chat/domain"
	"estate_chat_service/pkg/logger"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
)

const sequenceShards = 64

// Handle a live connection as seen by the hub
type Handle interface {
	ID() string
	UserID() string
	// Enqueue must not block, false when the connection can't take more
	Enqueue(msg []byte) bool
	Close()
}

type roomGroup struct {
	mu      sync.Mutex
	members map[string]Handle
}

// Hub room groups + global set fan-out.
// Lock order: Hub.mu before roomGroup.mu; publishers hold only the group lock.
type Hub struct {
	mu          sync.RWMutex
	rooms       map[string]*roomGroup
	global      map[string]Handle
	memberships map[string]map[string]struct{}

	globalMu sync.Mutex

	// sequence locks, see Sequence
	seq []sync.Mutex
}

// NewHub create hub
func NewHub() *Hub {
	return &Hub{
		rooms:       make(map[string]*roomGroup),
		global:      make(map[string]Handle),
		memberships: make(map[string]map[string]struct{}),
		seq:         make([]sync.Mutex, sequenceShards),
	}
}

// Sequence run produce under the lock of key and publish the event it
// returns before releasing it. Events produced for one key leave in the
// order they were produced. A nil event publishes nothing.
// produce must not call Sequence.
func (hub *Hub) Sequence(key string, produce func() (domain.Audience, domain.Event, error)) error {
	mu := &hub.seq[xxhash.Sum64String(key)%uint64(len(hub.seq))]
	mu.Lock()
	defer mu.Unlock()

	audience, ev, err := produce()
	if err != nil || ev == nil {
		return err
	}
	hub.Publish(audience, ev)
	return nil
}

// AddGlobal register h for global events
func (hub *Hub) AddGlobal(h Handle) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	hub.global[h.ID()] = h
}

// Join add h to the group of roomID, false when already a member
func (hub *Hub) Join(roomID string, h Handle) bool {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	g, ok := hub.rooms[roomID]
	if !ok {
		g = &roomGroup{members: make(map[string]Handle)}
		hub.rooms[roomID] = g
	}

	g.mu.Lock()
	_, exists := g.members[h.ID()]
	g.members[h.ID()] = h
	g.mu.Unlock()

	if hub.memberships[h.ID()] == nil {
		hub.memberships[h.ID()] = make(map[string]struct{})
	}
	hub.memberships[h.ID()][roomID] = struct{}{}
	return !exists
}

// Leave remove h from the group of roomID, false when it was not a member
func (hub *Hub) Leave(roomID string, h Handle) bool {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	return hub.leaveLocked(roomID, h.ID())
}

func (hub *Hub) leaveLocked(roomID, handleID string) bool {
	g, ok := hub.rooms[roomID]
	if !ok {
		return false
	}

	g.mu.Lock()
	_, exists := g.members[handleID]
	delete(g.members, handleID)
	empty := len(g.members) == 0
	g.mu.Unlock()

	if empty {
		delete(hub.rooms, roomID)
	}
	if rooms := hub.memberships[handleID]; rooms != nil {
		delete(rooms, roomID)
		if len(rooms) == 0 {
			delete(hub.memberships, handleID)
		}
	}
	return exists
}

// LeaveAll remove h from every group, returns the rooms it was in
func (hub *Hub) LeaveAll(h Handle) []string {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	var left []string
	for roomID := range hub.memberships[h.ID()] {
		if hub.leaveLocked(roomID, h.ID()) {
			left = append(left, roomID)
		}
	}
	return left
}

// Remove drop h from all groups and the global set
func (hub *Hub) Remove(h Handle) []string {
	left := hub.LeaveAll(h)

	hub.mu.Lock()
	delete(hub.global, h.ID())
	hub.mu.Unlock()
	return left
}

// InRoom h joined roomID
func (hub *Hub) InRoom(roomID string, h Handle) bool {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	_, ok := hub.memberships[h.ID()][roomID]
	return ok
}

// RoomMembers user ids joined to roomID, one per handle
func (hub *Hub) RoomMembers(roomID string) []string {
	hub.mu.RLock()
	g, ok := hub.rooms[roomID]
	hub.mu.RUnlock()
	if !ok {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, 0, len(g.members))
	for _, h := range g.members {
		out = append(out, h.UserID())
	}
	return out
}

// Publish fan ev out to audience without waiting on receivers.
// Events for one room reach every member in publish order.
func (hub *Hub) Publish(audience domain.Audience, ev domain.Event) {
	msg, err := json.Marshal(domain.Envelope(ev))
	if err != nil {
		logger.Log.Error("hub marshal event", zap.String("event", ev.EventName()), zap.Error(err))
		return
	}

	var stale []Handle
	if audience.Global {
		stale = hub.publishGlobal(msg)
	} else {
		stale = hub.publishRoom(audience.RoomID, msg)
	}

	for _, h := range stale {
		logger.Log.Warn("drop stale connection",
			zap.String("event", ev.EventName()),
			zap.String("connID", h.ID()),
			zap.String("userID", h.UserID()),
		)
		hub.Remove(h)
		h.Close()
	}
}

func (hub *Hub) publishRoom(roomID string, msg []byte) []Handle {
	hub.mu.RLock()
	g, ok := hub.rooms[roomID]
	hub.mu.RUnlock()
	if !ok {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	var stale []Handle
	for _, h := range g.members {
		if !h.Enqueue(msg) {
			stale = append(stale, h)
		}
	}
	return stale
}

func (hub *Hub) publishGlobal(msg []byte) []Handle {
	hub.globalMu.Lock()
	defer hub.globalMu.Unlock()

	hub.mu.RLock()
	targets := make([]Handle, 0, len(hub.global))
	for _, h := range hub.global {
		targets = append(targets, h)
	}
	hub.mu.RUnlock()

	var stale []Handle
	for _, h := range targets {
		if !h.Enqueue(msg) {
			stale = append(stale, h)
		}
	}
	return stale
}

// Send deliver ev to a single connection
func Send(h Handle, ev domain.Event) bool {
	return SendResponse(h, domain.Envelope(ev))
}

// SendResponse deliver a raw response to a single connection
func SendResponse(h Handle, resp domain.WSResponse) bool {
	msg, err := json.Marshal(resp)
	if err != nil {
		logger.Log.Error("marshal response", zap.String("action", resp.Action), zap.Error(err))
		return false
	}
	return h.Enqueue(msg)
}
