// Package ws pushes dashboard updates to WebSocket clients.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"MacroPulse/internal/domain/models"
	"MacroPulse/internal/service/metrics"
	applogger "MacroPulse/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 16 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is the envelope written to clients.
type Message struct {
	Type string            `json:"type"`
	Data *models.Dashboard `json:"data"`
}

// Hub fans dashboards out to connected clients. New clients first receive
// the most recent dashboard.
type Hub struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}
	last       []byte
	count      int64
	l          *applogger.Logger
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func NewHub(l *applogger.Logger) *Hub {
	metrics.Register()
	return &Hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 4),
		done:       make(chan struct{}),
		l:          l,
	}
}

// Run owns the client set until ctx is done, then disconnects everyone.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return
		case c := <-h.register:
			h.clients[c] = true
			h.setCount()
			if h.last != nil {
				c.send <- h.last
			}
			h.l.Debug("ws client connected", applogger.Int("clients", len(h.clients)))
		case c := <-h.unregister:
			if h.clients[c] {
				h.drop(c)
				h.l.Debug("ws client disconnected", applogger.Int("clients", len(h.clients)))
			}
		case msg := <-h.broadcast:
			h.last = msg
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// a client this far behind is dropped; it can reconnect
					h.drop(c)
				}
			}
		}
	}
}

func (h *Hub) drop(c *client) {
	delete(h.clients, c)
	close(c.send)
	h.setCount()
}

func (h *Hub) setCount() {
	atomic.StoreInt64(&h.count, int64(len(h.clients)))
	metrics.WSClients.Set(float64(len(h.clients)))
}

// Clients is the number of connected clients.
func (h *Hub) Clients() int {
	return int(atomic.LoadInt64(&h.count))
}

// Broadcast serializes d once and queues it for every client.
func (h *Hub) Broadcast(d *models.Dashboard) error {
	b, err := json.Marshal(Message{Type: "dashboard", Data: d})
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- b:
	case <-h.done:
	}
	return nil
}

func (h *Hub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/dashboard", h.Serve)
}

// Serve upgrades the request and attaches the connection to the hub.
func (h *Hub) Serve(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.l.Warn("ws upgrade failed", applogger.Error(err))
		return nil
	}
	cl := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- cl:
	case <-h.done:
		_ = conn.Close()
		return nil
	}

	go cl.writePump()
	go cl.readPump()
	return nil
}

// readPump discards client input and notices disconnects.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
