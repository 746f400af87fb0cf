// Package canvas provides an MCP server whose tools read and edit a running
// canvas server over its HTTP API.
package canvas

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mcp-x-studio/canvas/pkg/types"
)

// Name and Version identify the MCP server.
const (
	Name    = "mcp-x-studio"
	Version = "1.0.0"
)

// refetchHint is appended to every tool error so the caller resyncs before
// retrying an edit.
const refetchHint = "Call get-canvas to fetch the current canvas before retrying."

// API is the subset of the canvas HTTP API the tools use. *client.Client
// implements it.
type API interface {
	BaseURL() string
	GetCanvas(ctx context.Context) (*types.Document, error)
	SaveCanvas(ctx context.Context, doc *types.Document) (*types.Document, error)
	SetCSS(ctx context.Context, css string) (*types.Document, error)
	SetJavaScript(ctx context.Context, js string) (*types.Document, error)
	UpdateArtboardStyles(ctx context.Context, style types.Style) (*types.Document, error)
	AddElement(ctx context.Context, req types.AddElementRequest) (*types.Document, error)
	UpdateElementStyles(ctx context.Context, id string, style types.Style) (*types.Document, error)
	GetElement(ctx context.Context, id string) (*types.Node, error)
	DeleteElement(ctx context.Context, id string) (*types.Document, error)
}

type tools struct {
	api API
}

// NewServer creates a new MCP server with the canvas tools.
func NewServer(api API) *server.MCPServer {
	s := server.NewMCPServer(
		Name,
		Version,
		server.WithToolCapabilities(true),
	)
	t := &tools{api: api}

	s.AddTool(mcp.NewTool("get-canvas",
		mcp.WithDescription("Returns the whole canvas document: global css, global javascript and the artboard tree"),
		mcp.WithReadOnlyHintAnnotation(true),
	), t.getCanvas)

	s.AddTool(mcp.NewTool("save-canvas",
		mcp.WithDescription("Replaces the whole canvas document. Omitted css or javascript keep their current value. "+
			"Every artboard child needs a unique id and width, height, left and top styles"),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithString("css", mcp.Description("Global stylesheet")),
		mcp.WithString("javascript", mcp.Description("Global script")),
		mcp.WithObject("artboard",
			mcp.Required(),
			mcp.Description(`Artboard node: {"id":"artboard","style":{...},"children":[{"id","type","style"}]}`),
		),
	), t.saveCanvas)

	s.AddTool(mcp.NewTool("set-css",
		mcp.WithDescription("Replaces the global stylesheet. Put :hover rules, pseudo-selectors and @keyframes here"),
		mcp.WithString("css", mcp.Required(), mcp.Description("Complete stylesheet text")),
	), t.setCSS)

	s.AddTool(mcp.NewTool("set-javascript",
		mcp.WithDescription("Replaces the global script"),
		mcp.WithString("javascript", mcp.Required(), mcp.Description("Complete script text")),
	), t.setJavaScript)

	s.AddTool(mcp.NewTool("update-artboard-styles",
		mcp.WithDescription("Merges styles into the artboard. The artboard always stays position relative at top 0, left 0"),
		mcp.WithObject("style", mcp.Required(), mcp.Description("CSS properties to merge")),
	), t.updateArtboardStyles)

	s.AddTool(mcp.NewTool("add-element",
		mcp.WithDescription("Adds an absolutely positioned element to the artboard"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Unique id: letters, digits, _ or -, at least 3 characters")),
		mcp.WithString("type", mcp.Description("Element type"), mcp.Enum("div", "span", "p", "img")),
		mcp.WithObject("style", mcp.Required(), mcp.Description("CSS properties; width, height, left and top are required")),
	), t.addElement)

	s.AddTool(mcp.NewTool("update-element-styles",
		mcp.WithDescription("Merges plain CSS properties into an element. Pseudo-selectors and @keyframes are rejected; use set-css for those"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Element id")),
		mcp.WithObject("style", mcp.Required(), mcp.Description("CSS properties to merge")),
	), t.updateElementStyles)

	s.AddTool(mcp.NewTool("get-element",
		mcp.WithDescription("Returns one element of the canvas by id"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("id", mcp.Required(), mcp.Description("Element id")),
	), t.getElement)

	s.AddTool(mcp.NewTool("delete-element",
		mcp.WithDescription("Removes an element from the artboard"),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithString("id", mcp.Required(), mcp.Description("Element id")),
	), t.deleteElement)

	return s
}

func (t *tools) getCanvas(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := t.api.GetCanvas(ctx)
	if err != nil {
		return toolError("get canvas", err), nil
	}
	return t.documentResult(doc)
}

func (t *tools) saveCanvas(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	var artboard types.Node
	if err := decodeArg(args["artboard"], &artboard); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid artboard: %v", err)), nil
	}

	doc := &types.Document{Artboard: &artboard}
	css, hasCSS := args["css"].(string)
	js, hasJS := args["javascript"].(string)
	if !hasCSS || !hasJS {
		current, err := t.api.GetCanvas(ctx)
		if err != nil {
			return toolError("save canvas", err), nil
		}
		css, js = pick(hasCSS, css, current.CSS), pick(hasJS, js, current.JavaScript)
	}
	doc.CSS, doc.JavaScript = css, js

	saved, err := t.api.SaveCanvas(ctx, doc)
	if err != nil {
		return toolError("save canvas", err), nil
	}
	return t.documentResult(saved)
}

func (t *tools) setCSS(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	css, err := request.RequireString("css")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := t.api.SetCSS(ctx, css)
	if err != nil {
		return toolError("set css", err), nil
	}
	return t.documentResult(doc)
}

func (t *tools) setJavaScript(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	js, err := request.RequireString("javascript")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := t.api.SetJavaScript(ctx, js)
	if err != nil {
		return toolError("set javascript", err), nil
	}
	return t.documentResult(doc)
}

func (t *tools) updateArtboardStyles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	style, err := styleArg(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := t.api.UpdateArtboardStyles(ctx, style)
	if err != nil {
		return toolError("update artboard styles", err), nil
	}
	return t.documentResult(doc)
}

func (t *tools) addElement(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	style, err := styleArg(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	doc, err := t.api.AddElement(ctx, types.AddElementRequest{
		ID:    id,
		Type:  types.NodeType(request.GetString("type", "")),
		Style: style,
	})
	if err != nil {
		return toolError("add element", err), nil
	}
	return t.documentResult(doc)
}

func (t *tools) updateElementStyles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	style, err := styleArg(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	doc, err := t.api.UpdateElementStyles(ctx, id, style)
	if err != nil {
		return toolError("update element styles", err), nil
	}
	return t.documentResult(doc)
}

func (t *tools) getElement(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	node, err := t.api.GetElement(ctx, id)
	if err != nil {
		return toolError("get element", err), nil
	}
	data, err := json.Marshal(node)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (t *tools) deleteElement(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := t.api.DeleteElement(ctx, id)
	if err != nil {
		return toolError("delete element", err), nil
	}
	return t.documentResult(doc)
}

// documentResult returns doc as text plus an embedded JSON resource.
func (t *tools) documentResult(doc *types.Document) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultResource(string(data), mcp.TextResourceContents{
		URI:      t.api.BaseURL() + "/canvas",
		MIMEType: "application/json",
		Text:     string(data),
	}), nil
}

func toolError(action string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v. %s", action, err, refetchHint))
}

// styleArg reads the "style" argument, which may be an object or a string
// holding a JSON object.
func styleArg(args map[string]any) (types.Style, error) {
	raw, ok := args["style"]
	if !ok || raw == nil {
		return nil, fmt.Errorf("style argument is required")
	}
	var style types.Style
	if err := decodeArg(raw, &style); err != nil {
		return nil, fmt.Errorf("invalid style: %w", err)
	}
	return style, nil
}

// decodeArg converts a decoded JSON argument, or a string holding JSON,
// into out.
func decodeArg(v any, out any) error {
	if v == nil {
		return fmt.Errorf("value is required")
	}
	if s, ok := v.(string); ok {
		return json.Unmarshal([]byte(s), out)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func pick(ok bool, v, fallback string) string {
	if ok {
		return v
	}
	return fallback
}
