package realtime

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMessage = 4096
)

// Conn is the part of a websocket connection the pumps use.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// deadlineConn is implemented by *websocket.Conn.
type deadlineConn interface {
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
}

// Serve registers client and blocks until the connection closes.
func (h *Hub) Serve(client *Client) {
	h.Register(client)
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writePump(client)
	}()
	h.readPump(client)
	<-done
}

func (h *Hub) readPump(client *Client) {
	defer func() {
		h.Unregister(client)
		_ = client.conn.Close()
	}()

	if dc, ok := client.conn.(deadlineConn); ok {
		dc.SetReadLimit(maxMessage)
		_ = dc.SetReadDeadline(time.Now().Add(pongWait))
		dc.SetPongHandler(func(string) error {
			return dc.SetReadDeadline(time.Now().Add(pongWait))
		})
	}

	for {
		_, message, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("websocket read", "client_id", client.ID, "error", err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			h.log.Debug("malformed client message", "client_id", client.ID, "error", err)
			continue
		}
		h.ProcessMessage(client, msg)
	}
}

func (h *Hub) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = client.conn.Close()
	}()

	dc, hasDeadline := client.conn.(deadlineConn)
	for {
		select {
		case message, ok := <-client.Send:
			if hasDeadline {
				_ = dc.SetWriteDeadline(time.Now().Add(writeWait))
			}
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			if hasDeadline {
				_ = dc.SetWriteDeadline(time.Now().Add(writeWait))
			}
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
