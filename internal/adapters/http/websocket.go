package http

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	"github.com/jiljuapp/jilju/internal/pkg/metrics"
)

// wsMessage is sent from client to join/leave chat rooms.
type wsMessage struct {
	Action string `json:"action"` // "join" | "leave"
	Room   string `json:"room"`   // chat room ID
}

// ChatWebSocketHandler returns a handler that upgrades to WebSocket and
// relays live chat messages from NATS to connected clients.
// Clients send JSON: {"action":"join","room":"support-u1"}.
func ChatWebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		remoteAddr := c.RemoteAddr().String()
		log.Printf("ws client connected: %s", remoteAddr)
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		var mu sync.Mutex
		subs := make(map[string]*nats.Subscription) // room -> subscription

		// Helper: thread-safe write
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		// Read client messages for join/leave
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}
			if m.Room == "" {
				_ = writeJSON(map[string]string{"error": "room is required"})
				continue
			}

			switch m.Action {
			case "join":
				if _, exists := subs[m.Room]; exists {
					_ = writeJSON(map[string]string{"status": "already joined", "room": m.Room})
					continue
				}
				s, err := nc.Subscribe("jilju.chat."+m.Room, func(msg *nats.Msg) {
					_ = writeJSON(json.RawMessage(msg.Data))
				})
				if err != nil {
					_ = writeJSON(map[string]string{"error": "join failed: " + err.Error()})
					continue
				}
				subs[m.Room] = s
				_ = writeJSON(map[string]string{"status": "joined", "room": m.Room})

			case "leave":
				if s, exists := subs[m.Room]; exists {
					_ = s.Unsubscribe()
					delete(subs, m.Room)
					_ = writeJSON(map[string]string{"status": "left", "room": m.Room})
				} else {
					_ = writeJSON(map[string]string{"error": "not in room " + m.Room})
				}

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		// Cleanup
		close(done)
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
		log.Printf("ws client disconnected: %s", remoteAddr)
	}
}
