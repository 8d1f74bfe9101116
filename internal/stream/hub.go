// Package stream broadcasts domain events to websocket subscribers.
// The stream is observability only: a dropped or slow subscriber never
// blocks the game, it just loses its connection.
package stream

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wildgrid/wildcatch/internal/game"
)

const writeTimeout = 5 * time.Second

// Hub fans domain events out to connected websocket clients.
type Hub struct {
	logger *log.Logger

	mu          sync.Mutex
	subscribers map[uint64]*subscriber
	nextID      atomic.Uint64
}

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// envelope is the wire format for one event.
type envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// NewHub creates an empty hub.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		logger:      logger,
		subscribers: make(map[uint64]*subscriber),
	}
}

// Publish sends the event to every subscriber. Implements game.Sink.
func (h *Hub) Publish(e game.Event) {
	msg, err := json.Marshal(envelope{Type: e.EventType(), Payload: e})
	if err != nil {
		h.logger.Printf("stream: marshal %s event: %v", e.EventType(), err)
		return
	}

	h.mu.Lock()
	subs := make(map[uint64]*subscriber, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs[id] = sub
	}
	h.mu.Unlock()

	for id, sub := range subs {
		if err := sub.write(msg); err != nil {
			h.drop(id)
		}
	}
}

func (s *subscriber) write(msg []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, msg)
}

func (h *Hub) drop(id uint64) {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	if ok {
		delete(h.subscribers, id)
	}
	h.mu.Unlock()

	if ok {
		sub.conn.Close()
		h.logger.Printf("stream: subscriber %d dropped", id)
	}
}

// SubscriberCount reports how many clients are connected.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Handler upgrades an HTTP request to a websocket subscription. The
// connection is read-drained so close frames and pings are processed;
// client messages are ignored.
func (h *Hub) Handler() http.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Printf("stream: upgrade failed: %v", err)
			return
		}

		id := h.nextID.Add(1)
		h.mu.Lock()
		h.subscribers[id] = &subscriber{conn: conn}
		h.mu.Unlock()
		h.logger.Printf("stream: subscriber %d connected from %s", id, r.RemoteAddr)

		go func() {
			defer h.drop(id)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}
