// Package server provides the HTTP server for the canvas API.
//
// The server owns one canvas.Store and one event.Bus. Every mutating route
// decodes its body, runs exactly one store operation and, only when that
// operation succeeds, broadcasts the accepted input to every viewer before
// answering with the full document.
//
// # API Endpoints
//
//   - GET /canvas: current document
//   - POST /canvas: replace the whole document (broadcast as reload)
//   - POST /canvas/css, /canvas/javascript: replace global text
//   - POST /canvas/artboard/styles: merge artboard styles
//   - POST /canvas/add-element: append a child to the artboard
//   - GET, DELETE /canvas/element/{id}; POST /canvas/element/{id}/styles
//   - GET /events: Server-Sent Events stream
//   - GET /events/ws: the same stream over a WebSocket
//   - GET /: demo viewer page
//   - GET /healthz: liveness and subscriber count
//
// # Errors
//
// Failures return {"error":{"code","message"}}. Invalid payloads, styles and
// ids are 400, duplicate ids 409 and unknown ids 404. A failed operation
// leaves the document unchanged and broadcasts nothing.
//
// # Ordering
//
// Store mutation and broadcast run under one dispatch lock, and a new
// viewer's reload snapshot is taken under the same lock. Every viewer
// therefore sees each change exactly once, either in its initial snapshot or
// as an event, and all viewers see events in the same order.
package server
