package controller

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict origins once the console gets a fixed host
		return true
	},
}

// ServerMessage is one event pushed to WebSocket clients.
type ServerMessage struct {
	Type    string `json:"type"`    // "rollup.refreshed" or "ping"
	Payload any    `json:"payload"` // refresh timestamp, or ping epoch
}

// HandleWebSocket streams roll-up refresh notifications. Clients reconnect
// and re-fetch /api/attendance when they see a refresh event; the snapshot
// itself never travels over the socket.
func (c *Controller) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if c.App.RedisClient == nil {
		http.Error(w, "Live refresh events not available (Redis disabled)", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.App.Logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	c.App.Logger.Info("WebSocket client connected", zap.String("remote_addr", r.RemoteAddr))

	ctx := r.Context()
	sub := c.App.RedisClient.SubscribeRefreshed(ctx)
	defer func() { _ = sub.Close() }()

	// Reader goroutine: we never expect client messages, but reading is what
	// surfaces the close frame.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			if err := conn.WriteJSON(ServerMessage{Type: "rollup.refreshed", Payload: msg.Payload}); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteJSON(ServerMessage{Type: "ping", Payload: time.Now().Unix()}); err != nil {
				return
			}
		}
	}
}
