package handler

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"tasublog/domain"
	"tasublog/route"
	"tasublog/store"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Event tells an open page that what it shows may be stale.
type Event struct {
	Type     string     `json:"type"`
	View     route.View `json:"view"`
	Location string     `json:"location"`
	Count    int        `json:"count"`
}

type client struct {
	conn   *websocket.Conn
	router *route.Router
	send   chan Event
}

// Hub keeps one router per open page, mirroring that page's location, and
// re-resolves all of them whenever the post collection changes.
type Hub struct {
	posts    *store.PostStore
	log      *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	count   int
}

func NewHub(posts *store.PostStore, log *zap.Logger) *Hub {
	h := &Hub{
		posts:   posts,
		log:     log,
		clients: map[*client]struct{}{},
	}
	posts.Subscribe(h.broadcast)
	return h
}

func (h *Hub) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return nil
	}
	location := c.QueryParam("location")
	cl := &client{
		conn:   conn,
		router: route.New(location, h.posts.Find),
		send:   make(chan Event, 8),
	}
	cl.router.OnChange(func(rt route.Route) {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.clients[cl]; !ok {
			return
		}
		select {
		case cl.send <- Event{Type: "route", View: rt.View, Location: cl.router.Location(), Count: h.count}:
		default:
		}
	})

	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()

	go h.write(cl)
	h.read(cl)
	return nil
}

// read drains the connection until the page goes away.
func (h *Hub) read(cl *client) {
	defer h.remove(cl)
	cl.conn.SetReadLimit(512)
	cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) write(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()
	for {
		select {
		case ev, ok := <-cl.send:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		close(cl.send)
	}
}

func (h *Hub) broadcast(posts []domain.Post) {
	h.mu.Lock()
	h.count = len(posts)
	clients := make([]*client, 0, len(h.clients))
	for cl := range h.clients {
		clients = append(clients, cl)
	}
	h.mu.Unlock()

	for _, cl := range clients {
		cl.router.Refresh()
	}
}

// Clients reports how many pages are connected.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
