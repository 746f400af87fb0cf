package event

import "github.com/mcp-x-studio/canvas/pkg/types"

// EventType represents the type of event.
type EventType string

const (
	Reload               EventType = "reload"
	CanvasUpdateCSS      EventType = "canvas-update-css"
	CanvasUpdateJS       EventType = "canvas-update-javascript"
	CanvasUpdateArtboard EventType = "canvas-update-artboard-styles"
	CanvasAddElement     EventType = "canvas-add-element"
	CanvasUpdateElement  EventType = "canvas-update-element-styles"
	CanvasDeleteElement  EventType = "canvas-delete-element"
)

// Envelope is the JSON object carried by every data frame.
type Envelope struct {
	Timestamp string    `json:"timestamp"`
	Type      EventType `json:"type"`
	Payload   any       `json:"payload"`
}

// CSSUpdatedData is the payload of canvas-update-css events.
type CSSUpdatedData struct {
	CSS string `json:"css"`
}

// JavaScriptUpdatedData is the payload of canvas-update-javascript events.
type JavaScriptUpdatedData struct {
	JavaScript string `json:"javascript"`
}

// ArtboardStylesUpdatedData is the payload of canvas-update-artboard-styles events.
type ArtboardStylesUpdatedData struct {
	Style types.Style `json:"style"`
}

// ElementStylesUpdatedData is the payload of canvas-update-element-styles events.
type ElementStylesUpdatedData struct {
	ID    string      `json:"id"`
	Style types.Style `json:"style"`
}

// ElementDeletedData is the payload of canvas-delete-element events.
type ElementDeletedData struct {
	ID string `json:"id"`
}

// canvas-add-element carries the created *types.Node and reload carries the
// full *types.Document; neither needs a wrapper.
