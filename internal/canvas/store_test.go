package canvas

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcp-x-studio/canvas/pkg/types"
)

func geometry() types.Style {
	return types.Style{"width": "10px", "height": "10px", "left": "0", "top": "0"}
}

func childIDs(doc *types.Document) []string {
	ids := make([]string, 0, len(doc.Artboard.Children))
	for _, c := range doc.Artboard.Children {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestNewStore_Default(t *testing.T) {
	s := NewStore(nil)
	doc := s.Snapshot()

	require.NotNil(t, doc.Artboard)
	assert.Equal(t, ArtboardID, doc.Artboard.ID)
	assert.Equal(t, types.PositionRelative, doc.Artboard.Position)
	assert.Empty(t, doc.CSS)
	assert.Empty(t, doc.JavaScript)
	assert.Equal(t, []string{"element_1"}, childIDs(doc))
	assert.Equal(t, types.PositionAbsolute, doc.Artboard.Children[0].Position)
}

func TestStore_SnapshotIsIsolated(t *testing.T) {
	s := NewStore(nil)
	doc := s.Snapshot()
	doc.CSS = "mutated"
	doc.Artboard.Style["width"] = "1px"
	doc.Artboard.Children = nil

	fresh := s.Snapshot()
	assert.Empty(t, fresh.CSS)
	assert.Equal(t, "1280px", fresh.Artboard.Style["width"])
	assert.Len(t, fresh.Artboard.Children, 1)
}

func TestStore_SetCSSAndJavaScript(t *testing.T) {
	s := NewStore(nil)
	s.SetCSS("body { margin: 0 }")
	s.SetJavaScript("console.log(1)")
	s.SetCSS(".a{}")

	doc := s.Snapshot()
	assert.Equal(t, ".a{}", doc.CSS)
	assert.Equal(t, "console.log(1)", doc.JavaScript)
}

func TestStore_SetArtboardStyle(t *testing.T) {
	s := NewStore(nil)

	applied, err := s.SetArtboardStyle(types.Style{
		"background": "#000000",
		"position":   "absolute",
		"top":        "50px",
	})
	require.NoError(t, err)
	assert.Equal(t, "relative", applied["position"])

	board := s.Snapshot().Artboard
	assert.Equal(t, "#000000", board.Style["background"])
	assert.Equal(t, "relative", board.Style["position"])
	assert.Equal(t, 0, board.Style["top"])
	assert.Equal(t, 0, board.Style["left"])
	assert.Equal(t, "1280px", board.Style["width"], "merge keeps untouched keys")
	assert.Equal(t, types.PositionRelative, board.Position)
}

func TestStore_SetArtboardStyle_Nil(t *testing.T) {
	s := NewStore(nil)
	_, err := s.SetArtboardStyle(nil)
	assert.ErrorIs(t, err, ErrInvalidStyle)
}

func TestStore_AddElement(t *testing.T) {
	s := NewStore(nil)

	n, err := s.AddElement("b1_", "", geometry())
	require.NoError(t, err)
	assert.Equal(t, types.NodeDiv, n.Type)
	assert.Equal(t, types.PositionAbsolute, n.Position)
	assert.Equal(t, "absolute", n.Style["position"])

	doc := s.Snapshot()
	assert.Equal(t, []string{"element_1", "b1_"}, childIDs(doc))
}

func TestStore_AddElement_DoesNotAliasInput(t *testing.T) {
	s := NewStore(nil)
	style := geometry()
	_, err := s.AddElement("box", types.NodeSpan, style)
	require.NoError(t, err)

	style["width"] = "999px"
	n, err := s.Element("box")
	require.NoError(t, err)
	assert.Equal(t, "10px", n.Style["width"])
	_, hasPosition := style["position"]
	assert.False(t, hasPosition, "caller's map must not be modified")
}

func TestStore_AddElement_Errors(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		typ   types.NodeType
		style types.Style
		want  error
	}{
		{"short id", "ab", types.NodeDiv, geometry(), ErrInvalidID},
		{"empty id", "", types.NodeDiv, geometry(), ErrInvalidID},
		{"bad characters", "a b c", types.NodeDiv, geometry(), ErrInvalidID},
		{"unicode", "caña", types.NodeDiv, geometry(), ErrInvalidID},
		{"unknown type", "box", "section", geometry(), ErrInvalidPayload},
		{"missing width", "box", types.NodeDiv, types.Style{"height": "1", "left": "1", "top": "1"}, ErrInvalidStyle},
		{"missing top", "box", types.NodeDiv, types.Style{"width": "1", "height": "1", "left": "1"}, ErrInvalidStyle},
		{"nil style", "box", types.NodeDiv, nil, ErrInvalidStyle},
		{"duplicate child", "element_1", types.NodeDiv, geometry(), ErrDuplicateID},
		{"duplicate artboard", ArtboardID, types.NodeDiv, geometry(), ErrDuplicateID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(nil)
			before := s.Snapshot()

			_, err := s.AddElement(tt.id, tt.typ, tt.style)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
			assert.Equal(t, before, s.Snapshot(), "failed add must not mutate")
		})
	}
}

func TestStore_AddElement_SecondDuplicateRejected(t *testing.T) {
	s := NewStore(nil)
	_, err := s.AddElement("dup", types.NodeP, geometry())
	require.NoError(t, err)

	_, err = s.AddElement("dup", types.NodeImg, geometry())
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Equal(t, []string{"element_1", "dup"}, childIDs(s.Snapshot()))
}

func TestStore_UpdateElementStyle_Merges(t *testing.T) {
	s := NewStore(nil)

	_, err := s.UpdateElementStyle("element_1", types.Style{"width": "10px"})
	require.NoError(t, err)
	applied, err := s.UpdateElementStyle("element_1", types.Style{"background": "blue"})
	require.NoError(t, err)
	assert.Equal(t, "blue", applied["background"])

	n, err := s.Element("element_1")
	require.NoError(t, err)
	assert.Equal(t, "10px", n.Style["width"])
	assert.Equal(t, "blue", n.Style["background"])
	assert.Equal(t, "100px", n.Style["height"])
}

func TestStore_UpdateElementStyle_KeepsPosition(t *testing.T) {
	s := NewStore(nil)

	_, err := s.UpdateElementStyle("element_1", types.Style{"position": "static"})
	require.NoError(t, err)
	n, _ := s.Element("element_1")
	assert.Equal(t, "absolute", n.Style["position"])
	assert.Equal(t, types.PositionAbsolute, n.Position)

	_, err = s.UpdateElementStyle(ArtboardID, types.Style{"position": "absolute"})
	require.NoError(t, err)
	board, _ := s.Element(ArtboardID)
	assert.Equal(t, "relative", board.Style["position"])
}

func TestStore_UpdateElementStyle_RejectsBlocks(t *testing.T) {
	tests := []struct {
		name  string
		style types.Style
	}{
		{"ampersand pseudo", types.Style{"&:hover": map[string]any{"color": "red"}}},
		{"selector pseudo", types.Style{"#element_1:hover": map[string]any{"color": "red"}}},
		{"keyframes", types.Style{"@keyframes spin": map[string]any{"from": map[string]any{}}}},
		{"mixed with base", types.Style{"width": "1px", "&:focus": "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(nil)
			before, _ := s.Element("element_1")

			_, err := s.UpdateElementStyle("element_1", tt.style)
			assert.ErrorIs(t, err, ErrInvalidStyle)

			after, _ := s.Element("element_1")
			assert.Equal(t, before, after)
		})
	}
}

func TestStore_UpdateElementStyle_Errors(t *testing.T) {
	s := NewStore(nil)

	_, err := s.UpdateElementStyle("missing", types.Style{"width": "1px"})
	assert.ErrorIs(t, err, ErrUnknownID)

	_, err = s.UpdateElementStyle("x", types.Style{"width": "1px"})
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = s.UpdateElementStyle("element_1", nil)
	assert.ErrorIs(t, err, ErrInvalidStyle)
}

func TestStore_RemoveElement(t *testing.T) {
	s := NewStore(nil)
	for _, id := range []string{"aaa", "bbb", "ccc"} {
		_, err := s.AddElement(id, types.NodeDiv, geometry())
		require.NoError(t, err)
	}

	require.NoError(t, s.RemoveElement("bbb"))
	assert.Equal(t, []string{"element_1", "aaa", "ccc"}, childIDs(s.Snapshot()))

	_, err := s.Element("bbb")
	assert.ErrorIs(t, err, ErrUnknownID)
}

func TestStore_RemoveElement_MissingIsNoop(t *testing.T) {
	s := NewStore(nil)
	_, err := s.AddElement("last", types.NodeDiv, geometry())
	require.NoError(t, err)
	before := s.Snapshot()

	err = s.RemoveElement("nope")
	assert.ErrorIs(t, err, ErrUnknownID)
	assert.Equal(t, before, s.Snapshot(), "the last element must survive")
	assert.Equal(t, 2, s.Len())
}

func TestStore_RemoveElement_Artboard(t *testing.T) {
	s := NewStore(nil)
	err := s.RemoveElement(ArtboardID)
	assert.ErrorIs(t, err, ErrInvalidID)
	assert.NotNil(t, s.Snapshot().Artboard)
}

func TestStore_Element(t *testing.T) {
	s := NewStore(nil)

	n, err := s.Element("element_1")
	require.NoError(t, err)
	assert.Equal(t, "element_1", n.ID)

	board, err := s.Element(ArtboardID)
	require.NoError(t, err)
	assert.Len(t, board.Children, 1)

	_, err = s.Element("no_such")
	assert.ErrorIs(t, err, ErrUnknownID)
	_, err = s.Element("!!")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestStore_ConcurrentAddsKeepIDsUnique(t *testing.T) {
	s := NewStore(nil)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.AddElement("same", types.NodeDiv, geometry()); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 2, s.Len())
}

func TestStore_Replace(t *testing.T) {
	s := NewStore(nil)

	in := &types.Document{
		CSS: "body{}",
		Artboard: &types.Node{
			ID:    ArtboardID,
			Style: types.Style{"width": "800px", "top": "9px"},
			Children: []*types.Node{
				{ID: "box", Type: types.NodeSpan, Style: geometry()},
			},
		},
	}

	got, err := s.Replace(in)
	require.NoError(t, err)
	assert.Equal(t, "body{}", got.CSS)
	assert.Equal(t, 0, got.Artboard.Style["top"])
	assert.Equal(t, types.PositionAbsolute, got.Artboard.Children[0].Position)
	assert.Equal(t, []string{"box"}, childIDs(s.Snapshot()))

	// The caller's document is not adopted.
	assert.Equal(t, "9px", in.Artboard.Style["top"])
}

func TestStore_Replace_InvalidKeepsDocument(t *testing.T) {
	s := NewStore(nil)
	before := s.Snapshot()

	_, err := s.Replace(&types.Document{
		Artboard: &types.Node{
			ID: ArtboardID,
			Children: []*types.Node{
				{ID: "box", Style: geometry()},
				{ID: "box", Style: geometry()},
			},
		},
	})
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Equal(t, before, s.Snapshot())

	_, err = s.Replace(nil)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}
