package server

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode"

	"market-pulse/src/interfaces"
	"market-pulse/src/logger"
	"market-pulse/src/models"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// MessageHandler consumes raw inbound frames from a registered client
type MessageHandler interface {
	HandleClientMessage(client *Client, raw []byte)
}

// Hub owns every websocket connection and the room membership maps. All map
// access goes through the mutex; broadcasts never block on a slow consumer.
type Hub struct {
	Config  *models.MWebsocketConfig
	Logger  *logger.Logger
	handler MessageHandler

	mu    sync.RWMutex
	conns map[string]*Client
	rooms map[string]map[*Client]struct{}

	cancel context.CancelFunc
	done   chan struct{}
}

var _ interfaces.IBroadcaster = (*Hub)(nil)

// -----------------------------------------------------------------------------

func NewHub(cfg *models.MWebsocketConfig, log *logger.Logger) *Hub {
	return &Hub{
		Config: cfg,
		Logger: log,
		conns:  make(map[string]*Client),
		rooms:  make(map[string]map[*Client]struct{}),
		done:   make(chan struct{}),
	}
}

// -----------------------------------------------------------------------------

func (h *Hub) SetHandler(handler MessageHandler) {
	h.handler = handler
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Run drives the liveness sweeps until the context ends. Each sweep evicts
// connections not seen within the stale window.
func (h *Hub) Run(ctx context.Context) {
	ctx, h.cancel = context.WithCancel(ctx)
	interval := time.Duration(h.Config.HeartbeatSeconds) * time.Second

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-ticker.C:
			h.SweepStale(time.Now())
		}
	}
}

// -----------------------------------------------------------------------------

// Stop terminates the run loop and closes every connection
func (h *Hub) Stop() {
	if h.cancel != nil {
		h.cancel()
		<-h.done
	}
}

// -----------------------------------------------------------------------------

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.conns))
	for _, client := range h.conns {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	for _, client := range clients {
		h.Unregister(client)
	}
}

// -----------------------------------------------------------------------------
// Registration
// -----------------------------------------------------------------------------

// Register adds a connection and places it in the global room
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.conns[client.ID] = client
	h.joinRoomLocked(client, models.RoomGlobal)
	count := len(h.conns)
	h.mu.Unlock()

	h.Logger.Info("Client %s connected (%d active)", client.ID, count)

	client.Deliver(models.MConnectionEstablished{
		Type:         "connection_established",
		ConnectionID: client.ID,
		Timestamp:    time.Now().Unix(),
	})
}

// -----------------------------------------------------------------------------

// Unregister removes a connection from every room and signals its write pump
// to close. Safe to call more than once for the same client.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.conns[client.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.conns, client.ID)
	for room := range client.rooms {
		h.leaveRoomLocked(client, room)
	}
	count := len(h.conns)
	h.mu.Unlock()

	client.shutdown()
	h.Logger.Info("Client %s disconnected (%d active)", client.ID, count)
}

// -----------------------------------------------------------------------------
// Rooms
// -----------------------------------------------------------------------------

// ValidateRoomName rejects empty names and names containing whitespace
func ValidateRoomName(room string) error {
	if room == "" {
		return fmt.Errorf("room name must not be empty")
	}
	for _, r := range room {
		if unicode.IsSpace(r) {
			return fmt.Errorf("room name %q must not contain whitespace", room)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

// JoinRoom subscribes a client to a room, creating the room on first join.
// Joining a room twice is a no-op.
func (h *Hub) JoinRoom(client *Client, room string) error {
	if err := ValidateRoomName(room); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.joinRoomLocked(client, room)
	return nil
}

// -----------------------------------------------------------------------------

// LeaveRoom unsubscribes a client. The room disappears when its last member
// leaves. Leaving a room the client is not in is a no-op.
func (h *Hub) LeaveRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveRoomLocked(client, room)
}

// -----------------------------------------------------------------------------

func (h *Hub) joinRoomLocked(client *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[client] = struct{}{}
	client.rooms[room] = struct{}{}
}

// -----------------------------------------------------------------------------

func (h *Hub) leaveRoomLocked(client *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, client)
	delete(client.rooms, room)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// -----------------------------------------------------------------------------
// Broadcasting
// -----------------------------------------------------------------------------

// BroadcastToRoom delivers a message to every member of one room. A full send
// buffer marks the client for eviction so the hub never blocks on it.
func (h *Hub) BroadcastToRoom(room string, message interface{}) {
	h.mu.RLock()
	var slow []*Client
	for client := range h.rooms[room] {
		if !client.Deliver(message) {
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	h.evict(slow, "send buffer full")
}

// -----------------------------------------------------------------------------

// BroadcastAll delivers a message to every active connection
func (h *Hub) BroadcastAll(message interface{}) {
	h.mu.RLock()
	var slow []*Client
	for _, client := range h.conns {
		if !client.Deliver(message) {
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	h.evict(slow, "send buffer full")
}

// -----------------------------------------------------------------------------
// Liveness
// -----------------------------------------------------------------------------

// SweepStale evicts every connection whose last activity predates the stale
// window ending at now
func (h *Hub) SweepStale(now time.Time) {
	cutoff := now.Add(-time.Duration(h.Config.StaleSeconds) * time.Second).Unix()

	h.mu.RLock()
	var stale []*Client
	for _, client := range h.conns {
		if client.LastSeen() < cutoff {
			stale = append(stale, client)
		}
	}
	h.mu.RUnlock()

	h.evict(stale, "stale connection")
}

// -----------------------------------------------------------------------------

func (h *Hub) evict(clients []*Client, reason string) {
	for _, client := range clients {
		h.Logger.Warning("Evicting client %s: %s", client.ID, reason)
		h.Unregister(client)
		client.CloseConn()
	}
}

// -----------------------------------------------------------------------------
// Introspection
// -----------------------------------------------------------------------------

// Stats returns the active connection count and the per-room member counts
func (h *Hub) Stats() (int, map[string]int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rooms := make(map[string]int, len(h.rooms))
	for room, members := range h.rooms {
		rooms[room] = len(members)
	}
	return len(h.conns), rooms
}

// -----------------------------------------------------------------------------

// Subscriptions returns the rooms one client currently belongs to
func (h *Hub) Subscriptions(client *Client) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]string, 0, len(client.rooms))
	for room := range client.rooms {
		out = append(out, room)
	}
	return out
}
