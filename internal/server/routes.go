package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	r := s.router

	r.Get("/", s.demoPage)
	r.Get("/healthz", s.health)

	r.Route("/canvas", func(r chi.Router) {
		r.Get("/", s.getCanvas)
		r.Post("/", s.replaceCanvas)
		r.Post("/css", s.setCSS)
		r.Post("/javascript", s.setJavaScript)
		r.Post("/artboard/styles", s.setArtboardStyles)
		r.Post("/add-element", s.addElement)

		r.Route("/element/{id}", func(r chi.Router) {
			r.Get("/", s.getElement)
			r.Delete("/", s.deleteElement)
			r.Post("/styles", s.updateElementStyles)
		})
	})

	// Event streaming
	r.Get("/events", s.streamEvents)
	r.Get("/events/ws", s.streamEventsWS)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "no route for "+r.Method+" "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, r.Method+" is not allowed on "+r.URL.Path)
	})
}
