// Package types provides the core data types for the canvas server.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
)

// NodeType is the HTML element a node renders as.
type NodeType string

const (
	NodeDiv  NodeType = "div"
	NodeSpan NodeType = "span"
	NodeP    NodeType = "p"
	NodeImg  NodeType = "img"
)

// Valid reports whether t is one of the supported element types.
func (t NodeType) Valid() bool {
	switch t {
	case NodeDiv, NodeSpan, NodeP, NodeImg:
		return true
	}
	return false
}

// Position is the CSS positioning scheme of a node. It is assigned by the
// server: the artboard is relative, every other node is absolute.
type Position string

const (
	PositionRelative Position = "relative"
	PositionAbsolute Position = "absolute"
)

// Style maps CSS-like property names to values. Values are usually strings,
// but numbers and nested objects (keyframe and pseudo-selector bodies) are
// kept as decoded JSON.
type Style map[string]any

// UnmarshalJSON accepts either a JSON object or a string holding a
// JSON-encoded object. Tool adapters commonly send the latter.
func (s *Style) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return err
		}
		data = []byte(encoded)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("style must be a JSON object: %w", err)
	}
	*s = m
	return nil
}

// Clone returns a shallow copy of the style map. Nested objects are shared;
// style merges never mutate them in place.
func (s Style) Clone() Style {
	if s == nil {
		return Style{}
	}
	return maps.Clone(s)
}

// Node is one styled element of the canvas tree.
type Node struct {
	ID       string   `json:"id"`
	Type     NodeType `json:"type"`
	Style    Style    `json:"style"`
	Position Position `json:"position"`
	Children []*Node  `json:"children"`
}

// Clone returns a deep copy of the node and its children.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{
		ID:       n.ID,
		Type:     n.Type,
		Style:    n.Style.Clone(),
		Position: n.Position,
		Children: make([]*Node, 0, len(n.Children)),
	}
	for _, child := range n.Children {
		out.Children = append(out.Children, child.Clone())
	}
	return out
}

// Document is the shared canvas: global stylesheet and script text plus the
// artboard tree.
type Document struct {
	CSS        string `json:"css"`
	JavaScript string `json:"javascript"`
	Artboard   *Node  `json:"artboard"`
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	return &Document{
		CSS:        d.CSS,
		JavaScript: d.JavaScript,
		Artboard:   d.Artboard.Clone(),
	}
}
