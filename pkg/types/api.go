package types

// SetCSSRequest is the body of POST /canvas/css.
type SetCSSRequest struct {
	CSS *string `json:"css"`
}

// SetJavaScriptRequest is the body of POST /canvas/javascript.
type SetJavaScriptRequest struct {
	JavaScript *string `json:"javascript"`
}

// StyleRequest is the body of the artboard and element style routes.
type StyleRequest struct {
	Style Style `json:"style"`
}

// AddElementRequest is the body of POST /canvas/add-element.
type AddElementRequest struct {
	ID    string   `json:"id"`
	Type  NodeType `json:"type,omitempty"`
	Style Style    `json:"style"`
}
