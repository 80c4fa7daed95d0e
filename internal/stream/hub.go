// Package stream pushes detected anomalies to websocket subscribers.
package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-sod/vtml/internal/anomaly"
	"github.com/go-sod/vtml/internal/logging"
	"github.com/go-sod/vtml/internal/metrics"
	"github.com/gorilla/websocket"
)

var _ anomaly.Notifier = (*Hub)(nil)

type Event struct {
	Type      string           `json:"type"`
	Anomalies []anomaly.Record `json:"anomalies"`
	SentAt    time.Time        `json:"sent_at"`
}

type Option func(*Hub)

func WithBuffer(n int) Option {
	return func(h *Hub) {
		h.buffer = n
	}
}

func WithWriteTimeout(d time.Duration) Option {
	return func(h *Hub) {
		h.writeTimeout = d
	}
}

func NewHub(ctx context.Context, opts ...Option) *Hub {
	h := &Hub{
		ctx:          ctx,
		clients:      map[*client]struct{}{},
		buffer:       64,
		writeTimeout: 5 * time.Second,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	for _, f := range opts {
		f(h)
	}
	return h
}

// Hub fans anomaly events out to every connected subscriber. Slow
// subscribers lose events instead of blocking detection.
type Hub struct {
	ctx          context.Context
	mu           sync.Mutex
	clients      map[*client]struct{}
	upgrader     websocket.Upgrader
	buffer       int
	writeTimeout time.Duration
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Debugf("ws upgrade error: %v", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, h.buffer)}
	h.add(c)
	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) Notify(records ...anomaly.Record) {
	data, err := json.Marshal(Event{Type: "anomalies", Anomalies: records, SentAt: time.Now().UTC()})
	if err != nil {
		logging.FromContext(h.ctx).Errorf("encode stream event: %v", err)
		return
	}
	var dropped int
	h.mu.Lock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			dropped++
		}
	}
	h.mu.Unlock()
	if dropped > 0 {
		metrics.RecordAlertsDropped(h.ctx, dropped)
	}
}

// Len is the number of connected subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.close()
		delete(h.clients, c)
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
	h.mu.Unlock()
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.remove(c)
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(h.writeTimeout))
}

func (h *Hub) readPump(c *client) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
