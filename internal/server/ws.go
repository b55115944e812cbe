package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/vaultpilot/internal/audit"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleWS streams audit events to a websocket client as they are appended.
// Slow clients are dropped rather than allowed to back up the trail.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	events := make(chan audit.Event, 64)
	s.trail.Subscribe(func(e audit.Event) {
		select {
		case events <- e:
		default:
		}
	})

	go func() {
		defer conn.Close()
		for event := range events {
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}()

	// Drain client frames so pings are answered and closure is noticed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				conn.Close()
				return
			}
		}
	}()
}
