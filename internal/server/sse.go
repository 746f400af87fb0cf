package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/mcp-x-studio/canvas/internal/logging"
)

// sseWriter wraps http.ResponseWriter for SSE.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	rc      *http.ResponseController
}

// newSSEWriter creates a new SSE writer.
func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	rc := http.NewResponseController(w)

	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	return &sseWriter{w: w, flusher: flusher, rc: rc}, nil
}

// writeFrame writes pre-encoded frame bytes and flushes them.
func (s *sseWriter) writeFrame(raw []byte) error {
	if _, err := s.w.Write(raw); err != nil {
		return err
	}
	if err := s.rc.Flush(); err != nil {
		s.flusher.Flush()
	}
	return nil
}

// streamEvents handles GET /events. The stream opens with a connected
// comment and a reload frame, then carries every broadcast until the
// client goes away, the viewer falls behind, or the server shuts down.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	sse, err := newSSEWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}

	sub, err := s.subscribe()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeInternalError, err.Error())
		return
	}
	defer s.bus.Unregister(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	sse.flusher.Flush()

	log := logging.Logger.With().
		Str("subscription", sub.ID).
		Str("request_id", middleware.GetReqID(r.Context())).
		Logger()
	log.Debug().Msg("event stream opened")

	for {
		select {
		case <-r.Context().Done():
			log.Debug().Msg("event stream closed by client")
			return
		case <-sub.Done():
			log.Debug().Bool("lagged", sub.Lagged()).Msg("event stream ended")
			return
		case f := <-sub.Frames():
			if err := sse.writeFrame(f.Raw); err != nil {
				log.Debug().Err(err).Msg("event stream write failed")
				return
			}
		}
	}
}
