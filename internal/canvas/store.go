package canvas

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/mcp-x-studio/canvas/pkg/types"
)

// Store owns the canonical canvas document. Every operation is atomic with
// respect to the others; readers receive deep copies.
type Store struct {
	mu  sync.RWMutex
	doc *types.Document
}

// NewStore creates a store around doc, or around DefaultDocument when doc
// is nil. The store takes ownership of doc.
func NewStore(doc *types.Document) *Store {
	if doc == nil {
		doc = DefaultDocument()
	}
	return &Store{doc: doc}
}

// Snapshot returns a deep copy of the current document.
func (s *Store) Snapshot() *types.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}

// Element returns a copy of the node with the given id. The artboard is
// addressable like any other node.
func (s *Store) Element(id string) (*types.Node, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := s.find(id)
	if n == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownID, id)
	}
	return n.Clone(), nil
}

// SetCSS replaces the global stylesheet.
func (s *Store) SetCSS(css string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.CSS = css
}

// SetJavaScript replaces the global script.
func (s *Store) SetJavaScript(js string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.JavaScript = js
}

// SetArtboardStyle merges style into the artboard's style and pins the
// artboard to position relative at 0,0. It returns the style as applied.
func (s *Store) SetArtboardStyle(style types.Style) (types.Style, error) {
	if style == nil {
		return nil, fmt.Errorf("%w: style is required", ErrInvalidStyle)
	}

	applied := style.Clone()
	applied["position"] = string(types.PositionRelative)
	applied["top"] = 0
	applied["left"] = 0

	s.mu.Lock()
	defer s.mu.Unlock()

	board := s.doc.Artboard
	if board.Style == nil {
		board.Style = types.Style{}
	}
	maps.Copy(board.Style, applied)
	board.Position = types.PositionRelative
	return applied, nil
}

// AddElement validates and appends a new absolute-positioned node to the
// artboard. It returns a copy of the created node.
func (s *Store) AddElement(id string, typ types.NodeType, style types.Style) (*types.Node, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	if typ == "" {
		typ = types.NodeDiv
	}
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: unknown node type %q", ErrInvalidPayload, typ)
	}
	if missing := missingGeometry(style); len(missing) > 0 {
		return nil, fmt.Errorf("%w: element %q is missing required keys %v", ErrInvalidStyle, id, missing)
	}

	node := &types.Node{
		ID:       id,
		Type:     typ,
		Style:    style.Clone(),
		Position: types.PositionAbsolute,
		Children: []*types.Node{},
	}
	node.Style["position"] = string(types.PositionAbsolute)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.find(id) != nil {
		return nil, fmt.Errorf("%w: %q already exists", ErrDuplicateID, id)
	}
	s.doc.Artboard.Children = append(s.doc.Artboard.Children, node)
	return node.Clone(), nil
}

// UpdateElementStyle merges the base declarations of style into the node's
// style. Pseudo-selector and keyframe declarations are rejected; they belong
// in the global stylesheet. It returns the merged declarations.
func (s *Store) UpdateElementStyle(id string, style types.Style) (types.Style, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	if style == nil {
		return nil, fmt.Errorf("%w: style is required", ErrInvalidStyle)
	}

	c := Classify(style)
	if c.HasBlocks() {
		return nil, fmt.Errorf("%w: %v must be set through the global css", ErrInvalidStyle, c.BlockKeys())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.find(id)
	if n == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownID, id)
	}

	applied := c.Base
	applied["position"] = string(n.Position)
	if n.Style == nil {
		n.Style = types.Style{}
	}
	maps.Copy(n.Style, applied)
	return applied.Clone(), nil
}

// RemoveElement deletes the first artboard child with the given id. A
// missing id is reported and leaves the tree untouched. The artboard itself
// cannot be removed.
func (s *Store) RemoveElement(id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id == s.doc.Artboard.ID {
		return fmt.Errorf("%w: the artboard cannot be removed", ErrInvalidID)
	}

	children := s.doc.Artboard.Children
	idx := slices.IndexFunc(children, func(n *types.Node) bool { return n.ID == id })
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownID, id)
	}
	s.doc.Artboard.Children = slices.Delete(children, idx, idx+1)
	return nil
}

// Replace swaps the whole document for doc after normalizing a private
// copy of it. On error the current document is kept. The normalized
// document is returned.
func (s *Store) Replace(doc *types.Document) (*types.Document, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is required", ErrInvalidPayload)
	}
	next := doc.Clone()
	if err := Normalize(next); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = next
	return next.Clone(), nil
}

// Len returns the number of artboard children.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.doc.Artboard.Children)
}

// find returns the live node with the given id. Callers hold s.mu.
func (s *Store) find(id string) *types.Node {
	board := s.doc.Artboard
	if board.ID == id {
		return board
	}
	for _, child := range board.Children {
		if child.ID == id {
			return child
		}
	}
	return nil
}
