package canvas

import "errors"

// Sentinel errors returned by Store operations. Callers match them with
// errors.Is; the returned errors wrap them with detail.
var (
	// ErrInvalidPayload means a request body or encoded style could not be parsed.
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrInvalidStyle means a style map lacks required geometry or carries
	// pseudo-selector / keyframe declarations where only base ones are allowed.
	ErrInvalidStyle = errors.New("invalid style")
	// ErrInvalidID means an id fails the character or length rule.
	ErrInvalidID = errors.New("invalid id")
	// ErrDuplicateID means the id is already used in the tree.
	ErrDuplicateID = errors.New("duplicate id")
	// ErrUnknownID means no node carries the id.
	ErrUnknownID = errors.New("unknown id")
)
