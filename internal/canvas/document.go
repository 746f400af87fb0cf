package canvas

import (
	"fmt"
	"regexp"

	"github.com/mcp-x-studio/canvas/pkg/types"
)

const (
	// ArtboardID is the id of the default artboard.
	ArtboardID = "artboard"
	// MinIDLength is the shortest accepted node id.
	MinIDLength = 3
)

// RequiredGeometry lists the style keys every added element must carry.
var RequiredGeometry = []string{"width", "height", "left", "top"}

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateID checks the allowed-character and minimum-length rules.
func ValidateID(id string) error {
	if len(id) < MinIDLength {
		return fmt.Errorf("%w: %q must be at least %d characters", ErrInvalidID, id, MinIDLength)
	}
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%w: %q may only contain letters, digits, '_' and '-'", ErrInvalidID, id)
	}
	return nil
}

// missingGeometry returns the required geometry keys absent from style.
func missingGeometry(style types.Style) []string {
	var missing []string
	for _, k := range RequiredGeometry {
		if _, ok := style[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}

// DefaultDocument returns the document the server starts with: an empty
// stylesheet and script, a 1280x720 artboard and one sample element.
func DefaultDocument() *types.Document {
	return &types.Document{
		Artboard: &types.Node{
			ID:   ArtboardID,
			Type: types.NodeDiv,
			Style: types.Style{
				"width":      "1280px",
				"height":     "720px",
				"background": "#ffffff",
				"position":   string(types.PositionRelative),
				"top":        0,
				"left":       0,
			},
			Position: types.PositionRelative,
			Children: []*types.Node{
				{
					ID:   "element_1",
					Type: types.NodeDiv,
					Style: types.Style{
						"width":      "100px",
						"height":     "100px",
						"left":       "20px",
						"top":        "20px",
						"background": "#3b82f6",
						"position":   string(types.PositionAbsolute),
					},
					Position: types.PositionAbsolute,
					Children: []*types.Node{},
				},
			},
		},
	}
}

// Normalize validates a document built outside the store (for example a
// seed file) and assigns the server-owned fields: node types default to div,
// the artboard is relative and every child is absolute. Children of children
// are not supported.
func Normalize(doc *types.Document) error {
	if doc == nil || doc.Artboard == nil {
		return fmt.Errorf("%w: document has no artboard", ErrInvalidPayload)
	}

	seen := make(map[string]struct{})
	board := doc.Artboard
	if err := normalizeNode(board, types.PositionRelative, seen); err != nil {
		return err
	}
	board.Style["top"] = 0
	board.Style["left"] = 0

	for _, child := range board.Children {
		if child == nil {
			return fmt.Errorf("%w: artboard has a null child", ErrInvalidPayload)
		}
		if missing := missingGeometry(child.Style); len(missing) > 0 {
			return fmt.Errorf("%w: element %q is missing %v", ErrInvalidStyle, child.ID, missing)
		}
		if err := normalizeNode(child, types.PositionAbsolute, seen); err != nil {
			return err
		}
		if len(child.Children) > 0 {
			return fmt.Errorf("%w: element %q cannot have children", ErrInvalidPayload, child.ID)
		}
	}
	return nil
}

func normalizeNode(n *types.Node, pos types.Position, seen map[string]struct{}) error {
	if err := ValidateID(n.ID); err != nil {
		return err
	}
	if _, dup := seen[n.ID]; dup {
		return fmt.Errorf("%w: %q", ErrDuplicateID, n.ID)
	}
	seen[n.ID] = struct{}{}

	if n.Type == "" {
		n.Type = types.NodeDiv
	}
	if !n.Type.Valid() {
		return fmt.Errorf("%w: unknown node type %q", ErrInvalidPayload, n.Type)
	}
	if n.Style == nil {
		n.Style = types.Style{}
	}
	if n.Children == nil {
		n.Children = []*types.Node{}
	}
	n.Position = pos
	n.Style["position"] = string(pos)
	return nil
}
