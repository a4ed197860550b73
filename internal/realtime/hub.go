// Package realtime fans list-change events out to connected members over
// websockets. Delivery is best-effort: the store is the source of truth and
// disconnected members simply refetch.
package realtime

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event is a list-change notification pushed to connected members.
type Event struct {
	Type   string `json:"type"`
	ListID string `json:"list_id"`
	Actor  string `json:"actor"`
	Data   any    `json:"data,omitempty"`
}

// Event types.
const (
	EventListCreated = "list_created"
	EventListDeleted = "list_deleted"
	EventItemAdded   = "item_added"
	EventItemUpdated = "item_updated"
	EventItemDeleted = "item_deleted"
	EventChatMessage = "chat_message"
)

// Sender is the minimal interface the hub needs from a connection: the
// ability to push events to the connected client.
type Sender interface {
	Send(*Event) error
}

// Hub maps member emails to their active connections so mutations can be
// pushed to every currently-connected endpoint of a member.
type Hub struct {
	mu     sync.RWMutex
	conns  map[string]map[int64]Sender
	nextID int64
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[string]map[int64]Sender)}
}

// Register registers a connection for the given email and returns a
// connection id to use when unregistering.
func (h *Hub) Register(email string, s Sender) int64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[email]; !ok {
		h.conns[email] = make(map[int64]Sender)
	}

	h.nextID++
	id := h.nextID
	h.conns[email][id] = s
	return id
}

// Unregister removes a previously-registered connection.
func (h *Hub) Unregister(email string, id int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.conns[email]; ok {
		delete(conns, id)
		if len(conns) == 0 {
			delete(h.conns, email)
		}
	}
}

// SendToUser pushes the event to all connections of the given email. Broken
// connections are unregistered so they don't linger in the hub. Returns an
// error when the user has no connection or every send failed; callers treat
// either as a non-event.
func (h *Hub) SendToUser(email string, ev *Event) error {
	h.mu.RLock()
	conns, ok := h.conns[email]
	senders := make(map[int64]Sender, len(conns))
	for id, s := range conns {
		senders[id] = s
	}
	h.mu.RUnlock()

	if !ok || len(senders) == 0 {
		return fmt.Errorf("user %s not connected", email)
	}

	var firstErr error
	var failedIDs []int64

	for id, s := range senders {
		if err := s.Send(ev); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			failedIDs = append(failedIDs, id)
		}
	}

	for _, id := range failedIDs {
		h.Unregister(email, id)
	}

	return firstErr
}

// Broadcast pushes the event to every member except the actor, who already
// has the mutation's result in hand.
func (h *Hub) Broadcast(members []string, ev *Event) {
	for _, member := range members {
		if member == ev.Actor {
			continue
		}
		// best-effort: an offline member is not an error
		_ = h.SendToUser(member, ev)
	}
}

// ConnSender adapts a websocket connection to the Sender interface,
// serializing writes since gorilla connections allow one concurrent writer.
type ConnSender struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// NewConnSender wraps a websocket connection.
func NewConnSender(conn *websocket.Conn) *ConnSender {
	return &ConnSender{conn: conn}
}

func (s *ConnSender) Send(ev *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return s.conn.WriteJSON(ev)
}
