package canvas

import (
	"slices"
	"strings"

	"github.com/mcp-x-studio/canvas/pkg/types"
)

const keyframesPrefix = "@keyframes"

// Declaration is one entry of a style map, tagged by what it may touch.
// It is one of BaseDeclaration, PseudoSelectorBlock or KeyframeBlock.
type Declaration interface {
	Key() string
	Value() any
	declaration()
}

// BaseDeclaration is a plain property/value pair such as width: 10px.
type BaseDeclaration struct {
	Property string
	Val      any
}

// PseudoSelectorBlock is a declaration scoped to an interaction state,
// e.g. "&:hover" or "#box:hover".
type PseudoSelectorBlock struct {
	Selector string
	Body     any
}

// KeyframeBlock is an animation definition keyed "@keyframes <name>".
type KeyframeBlock struct {
	Name string
	Body any
}

func (d BaseDeclaration) Key() string { return d.Property }
func (d BaseDeclaration) Value() any { return d.Val }
func (BaseDeclaration) declaration() {}
func (d PseudoSelectorBlock) Key() string { return d.Selector }
func (d PseudoSelectorBlock) Value() any { return d.Body }
func (PseudoSelectorBlock) declaration() {}
func (d KeyframeBlock) Key() string { return d.Name }
func (d KeyframeBlock) Value() any { return d.Body }
func (KeyframeBlock) declaration() {}

// Declare tags a single style entry.
func Declare(key string, value any) Declaration {
	switch {
	case strings.HasPrefix(key, keyframesPrefix):
		return KeyframeBlock{Name: key, Body: value}
	case strings.HasPrefix(key, "&") || strings.Contains(key, ":"):
		return PseudoSelectorBlock{Selector: key, Body: value}
	default:
		return BaseDeclaration{Property: key, Val: value}
	}
}

// Declarations tags every entry of style, ordered by key.
func Declarations(style types.Style) []Declaration {
	keys := make([]string, 0, len(style))
	for k := range style {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]Declaration, 0, len(keys))
	for _, k := range keys {
		out = append(out, Declare(k, style[k]))
	}
	return out
}

// Classified partitions a style map into its three buckets.
type Classified struct {
	Base      types.Style
	Pseudos   types.Style
	Keyframes types.Style
}

// HasBlocks reports whether any pseudo-selector or keyframe entry is present.
func (c Classified) HasBlocks() bool {
	return len(c.Pseudos) > 0 || len(c.Keyframes) > 0
}

// BlockKeys returns the sorted keys of the pseudo and keyframe buckets.
func (c Classified) BlockKeys() []string {
	keys := make([]string, 0, len(c.Pseudos)+len(c.Keyframes))
	for k := range c.Pseudos {
		keys = append(keys, k)
	}
	for k := range c.Keyframes {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Classify assigns every key of style to exactly one bucket. It never fails
// and does not modify style.
func Classify(style types.Style) Classified {
	c := Classified{
		Base:      types.Style{},
		Pseudos:   types.Style{},
		Keyframes: types.Style{},
	}
	for k, v := range style {
		switch Declare(k, v).(type) {
		case KeyframeBlock:
			c.Keyframes[k] = v
		case PseudoSelectorBlock:
			c.Pseudos[k] = v
		default:
			c.Base[k] = v
		}
	}
	return c
}
