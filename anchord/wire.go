package anchord

import (
	"time"

	"github.com/gorilla/websocket"
)

type createAnchorRequest struct {
	Pose Pose `json:"pose"`
}

type anchorResponse struct {
	ID   string `json:"id"`
	Pose Pose   `json:"pose"`
}

// streamCommand is a client request on the stream socket.
type streamCommand struct {
	Op        string   `json:"op"`
	WatcherID string   `json:"watcher_id"`
	IDs       []string `json:"ids,omitempty"`
}

// streamEvent is a server push on the stream socket.
type streamEvent struct {
	Event     string `json:"event"`
	WatcherID string `json:"watcher_id"`
	ID        string `json:"id,omitempty"`
	Status    string `json:"status,omitempty"`
	Pose      *Pose  `json:"pose,omitempty"`
}

const streamWriteTimeout = 5 * time.Second

// streamClient serializes writes to one WebSocket connection. Watcher
// goroutines hand events to send; a single writer goroutine owns the socket.
type streamClient struct {
	conn   *websocket.Conn
	sendCh chan streamEvent
	done   chan struct{}
}

func newStreamClient(conn *websocket.Conn) *streamClient {
	c := &streamClient{
		conn:   conn,
		sendCh: make(chan streamEvent, 32),
		done:   make(chan struct{}),
	}
	go c.run()
	return c
}

func (c *streamClient) run() {
	for {
		select {
		case ev := <-c.sendCh:
			_ = c.conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *streamClient) send(ev streamEvent) {
	select {
	case c.sendCh <- ev:
	case <-c.done:
	}
}

func (c *streamClient) stop() {
	close(c.done)
	_ = c.conn.Close()
}
