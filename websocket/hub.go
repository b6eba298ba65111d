// file: websocket/hub.go
package websocket

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"

	"pickle-web/logger"
	"pickle-web/metrics"
)

// ActionAvailabilityChanged tells a court page to reload its grid.
const ActionAvailabilityChanged = "availabilityChanged"

// Message is what watchers of a court receive.
type Message struct {
	Action  string `json:"action"`
	CourtID string `json:"courtId"`
	Date    string `json:"date,omitempty"`
}

// Hub groups connections by court id.
type Hub struct {
	mu       sync.Mutex
	rooms    map[string]map[*Connection]bool
	upgrader websocket.Upgrader
}

// NewHub accepts connections from the page's own host and from
// allowedOrigin (the public application URL).
func NewHub(allowedOrigin string) *Hub {
	h := &Hub{rooms: make(map[string]map[*Connection]bool)}
	allowed := originOf(allowedOrigin)
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			u, err := url.Parse(origin)
			if err != nil {
				return false
			}
			return u.Host == r.Host || (allowed != "" && u.Scheme+"://"+u.Host == allowed)
		},
	}
	return h
}

func originOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// ServeWs upgrades the request and subscribes it to courtID.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request, courtID string) {
	if courtID == "" {
		http.Error(w, "No court selected", http.StatusBadRequest)
		return
	}

	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		logger.Error.Printf("[ServeWs] WebSocket upgrade error: %v", err)
		return
	}
	logger.Info.Printf("[ServeWs] Watching court %s: remoteAddr=%v", courtID, r.RemoteAddr)

	c := &Connection{
		hub:     h,
		conn:    wsConn,
		send:    make(chan []byte, sendBuffer),
		courtID: courtID,
	}
	h.register(c)

	go c.readPump()
	go c.writePump()
}

// Broadcast queues msg for every watcher of msg.CourtID. Slow watchers miss
// the message rather than block the caller.
func (h *Hub) Broadcast(msg Message) {
	out, err := json.Marshal(msg)
	if err != nil {
		logger.Error.Printf("[Broadcast] Error marshaling message: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.rooms[msg.CourtID] {
		select {
		case c.send <- out:
		default:
			logger.Warn.Printf("[Broadcast] Dropping message for connection %v", c.conn.RemoteAddr())
		}
	}
}

// NotifyAvailabilityChanged broadcasts that date on courtID has changed.
func (h *Hub) NotifyAvailabilityChanged(courtID, date string) {
	h.Broadcast(Message{Action: ActionAvailabilityChanged, CourtID: courtID, Date: date})
}

// Count returns the number of watchers of courtID.
func (h *Hub) Count(courtID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[courtID])
}

func (h *Hub) register(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[c.courtID]
	if !ok {
		room = make(map[*Connection]bool)
		h.rooms[c.courtID] = room
	}
	room[c] = true
	metrics.SetLiveConnections(h.totalLocked())
}

func (h *Hub) unregister(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[c.courtID]
	if !room[c] {
		return
	}
	delete(room, c)
	close(c.send)
	if len(room) == 0 {
		delete(h.rooms, c.courtID)
	}
	metrics.SetLiveConnections(h.totalLocked())
}

func (h *Hub) totalLocked() int {
	n := 0
	for _, room := range h.rooms {
		n += len(room)
	}
	return n
}
