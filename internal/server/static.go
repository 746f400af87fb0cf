package server

import (
	_ "embed"
	"net/http"
)

//go:embed static/index.html
var demoHTML []byte

// demoPage handles GET /. The page subscribes to /events and renders the
// document as it changes.
func (s *Server) demoPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(demoHTML)
}
