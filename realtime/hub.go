package realtime

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const eventsChannel = "filmcrew:events"

// UnreadFunc computes the authoritative unread total for a user. The hub uses
// it for the periodic reconciliation pass that backs up event-driven badge
// updates.
type UnreadFunc func(userID uint) (int64, error)

// Hub coordinates websocket sessions, per-conversation rooms and per-user
// topics. It keeps one active Connection per user and bridges events across
// nodes through redis pub/sub.
type Hub struct {
	mu           sync.RWMutex
	sessions     map[string]*Connection
	userSessions map[uint]string
	rooms        map[string]map[string]*Connection
	sessionRooms map[string]map[string]struct{}

	nodeID string
	rdb    *redis.Client
	unread UnreadFunc

	reconcileEvery time.Duration
}

type wireEnvelope struct {
	Node          string `json:"node"`
	Event         Event  `json:"event"`
	TargetUserIDs []uint `json:"target_user_ids,omitempty"`
	ExcludeUserID uint   `json:"exclude_user_id,omitempty"`
}

// NewHub constructs a hub. rdb may be nil, which disables the cross-node
// bridge (single-node deploys and tests).
func NewHub(rdb *redis.Client, unread UnreadFunc) *Hub {
	return &Hub{
		sessions:       make(map[string]*Connection),
		userSessions:   make(map[uint]string),
		rooms:          make(map[string]map[string]*Connection),
		sessionRooms:   make(map[string]map[string]struct{}),
		nodeID:         uuid.NewString(),
		rdb:            rdb,
		unread:         unread,
		reconcileEvery: 30 * time.Second,
	}
}

// Run starts the redis bridge and the unread reconciliation loop; it returns
// when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.runBridge(ctx)
	}
	if h.unread != nil {
		go h.runReconcile(ctx)
	}
	<-ctx.Done()
	h.Close()
}

// Attach registers a connection for the given user. If a previous session
// exists, it is removed and closed after the swap to enforce one active
// socket per user.
func (h *Hub) Attach(conn *Connection) {
	var previous *Connection

	h.mu.Lock()
	if existingID, ok := h.userSessions[conn.UserID]; ok {
		if existing := h.sessions[existingID]; existing != nil {
			previous = existing
			h.detachLocked(existingID)
		}
	}

	h.sessions[conn.ID] = conn
	h.userSessions[conn.UserID] = conn.ID
	h.sessionRooms[conn.ID] = make(map[string]struct{})
	h.mu.Unlock()

	connectionsGauge.Inc()
	conn.Start()

	if previous != nil {
		previous.Close(4001, "session replaced")
	}
}

// Detach removes a connection if it is still tracked.
func (h *Hub) Detach(conn *Connection) {
	h.mu.Lock()
	_, tracked := h.sessions[conn.ID]
	h.detachLocked(conn.ID)
	h.mu.Unlock()
	if tracked {
		connectionsGauge.Dec()
	}
}

// Subscribe adds the connection to the conversation room.
func (h *Hub) Subscribe(conversationID string, conn *Connection) {
	h.mu.Lock()
	if _, ok := h.sessions[conn.ID]; !ok {
		h.mu.Unlock()
		return
	}

	room := h.rooms[conversationID]
	if room == nil {
		room = make(map[string]*Connection)
		h.rooms[conversationID] = room
	}
	room[conn.ID] = conn

	memberships := h.sessionRooms[conn.ID]
	if memberships == nil {
		memberships = make(map[string]struct{})
		h.sessionRooms[conn.ID] = memberships
	}
	memberships[conversationID] = struct{}{}
	h.mu.Unlock()
}

// Unsubscribe removes the connection from the conversation room.
func (h *Hub) Unsubscribe(conversationID string, conn *Connection) {
	h.mu.Lock()
	h.leaveLocked(conversationID, conn.ID)
	h.mu.Unlock()
}

// Publish routes an event to its audience on this node and mirrors it to the
// other nodes through redis.
func (h *Hub) Publish(ev Event) {
	eventsPublished.WithLabelValues(ev.Type).Inc()
	h.deliver(ev)

	if h.rdb == nil {
		return
	}
	env := wireEnvelope{
		Node:          h.nodeID,
		Event:         ev,
		TargetUserIDs: ev.TargetUserIDs,
		ExcludeUserID: ev.ExcludeUserID,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		log.Printf("hub: encode envelope: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.rdb.Publish(ctx, eventsChannel, payload).Err(); err != nil {
		log.Printf("hub: publish: %v", err)
	}
}

// NotifyUser delivers payload to the current connection of the given user.
func (h *Hub) NotifyUser(userID uint, payload []byte) bool {
	h.mu.RLock()
	sessionID, ok := h.userSessions[userID]
	if !ok {
		h.mu.RUnlock()
		return false
	}
	conn := h.sessions[sessionID]
	h.mu.RUnlock()
	if conn == nil {
		return false
	}
	if err := conn.Send(payload); err != nil {
		return false
	}
	eventsDelivered.Inc()
	return true
}

// ConnectedUserIDs snapshots the users with a live session.
func (h *Hub) ConnectedUserIDs() []uint {
	h.mu.RLock()
	ids := make([]uint, 0, len(h.userSessions))
	for id := range h.userSessions {
		ids = append(ids, id)
	}
	h.mu.RUnlock()
	return ids
}

// Close terminates all tracked connections and clears hub state.
func (h *Hub) Close() {
	h.mu.Lock()
	sessions := make([]*Connection, 0, len(h.sessions))
	for _, conn := range h.sessions {
		sessions = append(sessions, conn)
	}
	h.sessions = make(map[string]*Connection)
	h.userSessions = make(map[uint]string)
	h.rooms = make(map[string]map[string]*Connection)
	h.sessionRooms = make(map[string]map[string]struct{})
	h.mu.Unlock()

	for _, conn := range sessions {
		conn.Close(1001, "hub shutdown")
	}
	connectionsGauge.Set(0)
}

func (h *Hub) deliver(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("hub: encode event: %v", err)
		return
	}

	if len(ev.TargetUserIDs) > 0 {
		for _, userID := range ev.TargetUserIDs {
			if ev.ExcludeUserID != 0 && userID == ev.ExcludeUserID {
				continue
			}
			h.NotifyUser(userID, payload)
		}
		return
	}

	h.mu.RLock()
	room := h.rooms[ev.ConversationID]
	conns := make([]*Connection, 0, len(room))
	for _, conn := range room {
		if ev.ExcludeUserID != 0 && conn.UserID == ev.ExcludeUserID {
			continue
		}
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.Send(payload); err == nil {
			eventsDelivered.Inc()
		}
	}
}

// runBridge applies events published by other nodes to local sessions.
func (h *Hub) runBridge(ctx context.Context) {
	sub := h.rdb.Subscribe(ctx, eventsChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env wireEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Printf("hub: decode envelope: %v", err)
				continue
			}
			if env.Node == h.nodeID {
				continue
			}
			ev := env.Event
			ev.TargetUserIDs = env.TargetUserIDs
			ev.ExcludeUserID = env.ExcludeUserID
			h.deliver(ev)
		}
	}
}

// runReconcile periodically pushes authoritative unread totals to every
// connected user, the correctness backstop for event-driven badges.
func (h *Hub) runReconcile(ctx context.Context) {
	ticker := time.NewTicker(h.reconcileEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, userID := range h.ConnectedUserIDs() {
				total, err := h.unread(userID)
				if err != nil {
					log.Printf("hub: unread reconcile for user %d: %v", userID, err)
					continue
				}
				h.deliver(Event{
					Type:          EventUnreadCount,
					Unread:        total,
					TargetUserIDs: []uint{userID},
				})
			}
		}
	}
}

func (h *Hub) detachLocked(sessionID string) {
	conn, ok := h.sessions[sessionID]
	if !ok {
		return
	}
	delete(h.sessions, sessionID)

	if current, ok := h.userSessions[conn.UserID]; ok && current == sessionID {
		delete(h.userSessions, conn.UserID)
	}

	for roomID := range h.sessionRooms[sessionID] {
		h.leaveLocked(roomID, sessionID)
	}
	delete(h.sessionRooms, sessionID)
}

func (h *Hub) leaveLocked(conversationID string, sessionID string) {
	if sessionID == "" {
		return
	}
	room := h.rooms[conversationID]
	if room == nil {
		return
	}
	delete(room, sessionID)
	if len(room) == 0 {
		delete(h.rooms, conversationID)
	}
	if memberships, ok := h.sessionRooms[sessionID]; ok {
		delete(memberships, conversationID)
		if len(memberships) == 0 {
			delete(h.sessionRooms, sessionID)
		}
	}
}
