package telemetry

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Hub fans out Snapshots to any number of connected websocket diagnostics
// clients, in the same Hub/serveWs shape used elsewhere for websocket
// fan-out: a broadcast channel drained by Run in its own goroutine, clients
// registered/unregistered through unbuffered channels. Hub.Broadcast is the
// only method the control loop may call, and it never blocks.
type Hub struct {
	mu       sync.Mutex
	clients  map[*client]bool
	register chan *client
	drop     chan *client
	in       chan Snapshot
	log      *logrus.Entry
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// NewHub builds an idle Hub; call Run in its own goroutine to start it.
func NewHub() *Hub {
	return &Hub{
		clients:  make(map[*client]bool),
		register: make(chan *client),
		drop:     make(chan *client),
		in:       make(chan Snapshot, 64),
		log:      logrus.WithField("component", "telemetry-hub"),
	}
}

// Run drains registrations and broadcasts until ctx-less shutdown (the
// process exiting). It owns the only goroutine in this package that isn't
// a per-connection writer.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
		case c := <-h.drop:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
		case snap := <-h.in:
			payload, err := json.Marshal(snap)
			if err != nil {
				continue
			}
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- payload:
				default:
					// client is behind; drop the frame rather than block the hub.
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast hands a snapshot to Run without blocking; if the hub's inbound
// buffer is full the snapshot is dropped.
func (h *Hub) Broadcast(s Snapshot) {
	select {
	case h.in <- s:
	default:
	}
}

// ServeHTTP upgrades the request to a websocket and registers a client
// writer goroutine for it.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	c := &client{conn: conn, send: make(chan []byte, 16)}
	h.register <- c
	go c.writeLoop(h)
}

func (c *client) writeLoop(h *Hub) {
	defer c.conn.Close()
	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.drop <- c
			return
		}
	}
}
