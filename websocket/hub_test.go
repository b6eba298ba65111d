// file: websocket/hub_test.go
package websocket

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn implements WSConn and records what was written.
type fakeConn struct {
	mu      sync.Mutex
	written [][]byte
	types   []int
	closed  bool
}

func (fc *fakeConn) WriteMessage(messageType int, data []byte) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.types = append(fc.types, messageType)
	fc.written = append(fc.written, data)
	return nil
}

func (fc *fakeConn) SetWriteDeadline(t time.Time) error { return nil }

func (fc *fakeConn) ReadMessage() (int, []byte, error) {
	return 0, nil, errors.New("closed")
}

func (fc *fakeConn) Close() error {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.closed = true
	return nil
}

func (fc *fakeConn) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 12345}
}

func (fc *fakeConn) SetReadLimit(limit int64)            {}
func (fc *fakeConn) SetReadDeadline(t time.Time) error   { return nil }
func (fc *fakeConn) SetPongHandler(h func(string) error) {}

func newFakeConnection(h *Hub, courtID string, buffer int) (*Connection, *fakeConn) {
	fc := &fakeConn{}
	return &Connection{hub: h, conn: fc, send: make(chan []byte, buffer), courtID: courtID}, fc
}

func TestHub_RegisterAndUnregister(t *testing.T) {
	h := NewHub("")
	c, _ := newFakeConnection(h, "c1", 1)

	h.register(c)
	assert.Equal(t, 1, h.Count("c1"))

	h.unregister(c)
	assert.Equal(t, 0, h.Count("c1"))
	_, open := <-c.send
	assert.False(t, open, "send channel should be closed")

	// a second unregister is a no-op
	assert.NotPanics(t, func() { h.unregister(c) })
}

func TestHub_BroadcastOnlyToRoom(t *testing.T) {
	h := NewHub("")
	watcher, _ := newFakeConnection(h, "c1", 1)
	other, _ := newFakeConnection(h, "c2", 1)
	h.register(watcher)
	h.register(other)

	h.NotifyAvailabilityChanged("c1", "2025-03-10")

	require.Len(t, watcher.send, 1)
	assert.Len(t, other.send, 0)

	var msg Message
	require.NoError(t, json.Unmarshal(<-watcher.send, &msg))
	assert.Equal(t, Message{Action: ActionAvailabilityChanged, CourtID: "c1", Date: "2025-03-10"}, msg)
}

func TestHub_BroadcastDropsWhenFull(t *testing.T) {
	h := NewHub("")
	c, _ := newFakeConnection(h, "c1", 1)
	h.register(c)

	h.NotifyAvailabilityChanged("c1", "2025-03-10")
	h.NotifyAvailabilityChanged("c1", "2025-03-11")

	assert.Len(t, c.send, 1)
}

func TestReadPump_UnregistersOnError(t *testing.T) {
	h := NewHub("")
	c, fc := newFakeConnection(h, "c1", 1)
	h.register(c)

	c.readPump()

	assert.Equal(t, 0, h.Count("c1"))
	assert.True(t, fc.closed)
}

func TestWritePump_SendsThenCloses(t *testing.T) {
	h := NewHub("")
	c, fc := newFakeConnection(h, "c1", 2)
	c.send <- []byte(`{"action":"availabilityChanged"}`)
	close(c.send)

	c.writePump()

	fc.mu.Lock()
	defer fc.mu.Unlock()
	require.Len(t, fc.types, 2)
	assert.Equal(t, websocket.TextMessage, fc.types[0])
	assert.Equal(t, websocket.CloseMessage, fc.types[1])
	assert.True(t, fc.closed)
}

// Test: a real client receives notifications for the court it watches
func TestServeWs_EndToEnd(t *testing.T) {
	h := NewHub("http://example.com")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeWs(w, r, r.URL.Query().Get("court"))
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?court=c1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return h.Count("c1") == 1 }, time.Second, 10*time.Millisecond)

	h.NotifyAvailabilityChanged("c1", "2025-03-10")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "c1", msg.CourtID)
	assert.Equal(t, "2025-03-10", msg.Date)

	conn.Close()
	assert.Eventually(t, func() bool { return h.Count("c1") == 0 }, time.Second, 10*time.Millisecond)
}

func TestServeWs_MissingCourt(t *testing.T) {
	h := NewHub("")
	w := httptest.NewRecorder()

	h.ServeWs(w, httptest.NewRequest(http.MethodGet, "/", nil), "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckOrigin(t *testing.T) {
	h := NewHub("https://courts.example.com/")
	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "http://localhost:3000/courts/c1/live", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	assert.True(t, h.upgrader.CheckOrigin(req("")))
	assert.True(t, h.upgrader.CheckOrigin(req("http://localhost:3000")))
	assert.True(t, h.upgrader.CheckOrigin(req("https://courts.example.com")))
	assert.False(t, h.upgrader.CheckOrigin(req("https://evil.example.com")))
}
