package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mcp-x-studio/canvas/internal/canvas"
	"github.com/mcp-x-studio/canvas/internal/event"
	"github.com/mcp-x-studio/canvas/pkg/types"
)

// getCanvas handles GET /canvas.
func (s *Server) getCanvas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot())
}

// replaceCanvas handles POST /canvas.
func (s *Server) replaceCanvas(w http.ResponseWriter, r *http.Request) {
	var req types.Document
	if err := decodeBody(w, r, &req); err != nil {
		writeCanvasError(w, r, err)
		return
	}

	doc, err := s.dispatch(event.Reload, func() (any, error) {
		return s.store.Replace(&req)
	})
	if err != nil {
		writeCanvasError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// setCSS handles POST /canvas/css.
func (s *Server) setCSS(w http.ResponseWriter, r *http.Request) {
	var req types.SetCSSRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeCanvasError(w, r, err)
		return
	}
	if req.CSS == nil {
		writeCanvasError(w, r, fmt.Errorf("%w: css is required", canvas.ErrInvalidPayload))
		return
	}

	doc, err := s.ApplyCSS(*req.CSS)
	if err != nil {
		writeCanvasError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// setJavaScript handles POST /canvas/javascript.
func (s *Server) setJavaScript(w http.ResponseWriter, r *http.Request) {
	var req types.SetJavaScriptRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeCanvasError(w, r, err)
		return
	}
	if req.JavaScript == nil {
		writeCanvasError(w, r, fmt.Errorf("%w: javascript is required", canvas.ErrInvalidPayload))
		return
	}

	doc, err := s.ApplyJavaScript(*req.JavaScript)
	if err != nil {
		writeCanvasError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// setArtboardStyles handles POST /canvas/artboard/styles.
func (s *Server) setArtboardStyles(w http.ResponseWriter, r *http.Request) {
	var req types.StyleRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeCanvasError(w, r, err)
		return
	}

	doc, err := s.dispatch(event.CanvasUpdateArtboard, func() (any, error) {
		applied, err := s.store.SetArtboardStyle(req.Style)
		if err != nil {
			return nil, err
		}
		return event.ArtboardStylesUpdatedData{Style: applied}, nil
	})
	if err != nil {
		writeCanvasError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// addElement handles POST /canvas/add-element.
func (s *Server) addElement(w http.ResponseWriter, r *http.Request) {
	var req types.AddElementRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeCanvasError(w, r, err)
		return
	}

	doc, err := s.dispatch(event.CanvasAddElement, func() (any, error) {
		return s.store.AddElement(req.ID, req.Type, req.Style)
	})
	if err != nil {
		writeCanvasError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// updateElementStyles handles POST /canvas/element/{id}/styles.
func (s *Server) updateElementStyles(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req types.StyleRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeCanvasError(w, r, err)
		return
	}

	doc, err := s.dispatch(event.CanvasUpdateElement, func() (any, error) {
		applied, err := s.store.UpdateElementStyle(id, req.Style)
		if err != nil {
			return nil, err
		}
		return event.ElementStylesUpdatedData{ID: id, Style: applied}, nil
	})
	if err != nil {
		writeCanvasError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// getElement handles GET /canvas/element/{id}.
func (s *Server) getElement(w http.ResponseWriter, r *http.Request) {
	node, err := s.store.Element(chi.URLParam(r, "id"))
	if err != nil {
		writeCanvasError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

// deleteElement handles DELETE /canvas/element/{id}.
func (s *Server) deleteElement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	doc, err := s.dispatch(event.CanvasDeleteElement, func() (any, error) {
		if err := s.store.RemoveElement(id); err != nil {
			return nil, err
		}
		return event.ElementDeletedData{ID: id}, nil
	})
	if err != nil {
		writeCanvasError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// health handles GET /healthz.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"subscribers": s.bus.Count(),
	})
}
