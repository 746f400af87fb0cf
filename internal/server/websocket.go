package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcp-x-studio/canvas/internal/logging"
)

const wsWriteWait = 10 * time.Second

// streamEventsWS handles GET /events/ws. It mirrors /events over a
// WebSocket: each data frame becomes one text message holding the envelope
// JSON, and heartbeat comments become pings.
func (s *Server) streamEventsWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logging.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	sub, err := s.subscribe()
	if err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()),
			time.Now().Add(wsWriteWait))
		return
	}
	defer s.bus.Unregister(sub)

	// The read side only exists to notice the peer closing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case <-sub.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "stream ended"),
				time.Now().Add(wsWriteWait))
			return
		case f := <-sub.Frames():
			deadline := time.Now().Add(wsWriteWait)
			if f.IsComment() {
				err = conn.WriteControl(websocket.PingMessage, nil, deadline)
			} else {
				_ = conn.SetWriteDeadline(deadline)
				err = conn.WriteMessage(websocket.TextMessage, f.JSON)
			}
			if err != nil {
				logging.Debug().Err(err).Str("subscription", sub.ID).Msg("websocket write failed")
				return
			}
		}
	}
}
