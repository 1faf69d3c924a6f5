// Package mcp exposes mcp-enabled collections as Model Context Protocol
// servers over Streamable HTTP. Each collection becomes its own server at
// /api/mcp/{user}/{slug}; tool calls are proxied to the sandboxed executor.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tpmjs/tpmjs/pkg/server/store"
)

// RunnerFunc executes one collection tool and returns its raw JSON output.
// The server wires this to the executor client. owner is the collection
// owner's user id, carried through for audit records.
type RunnerFunc func(ctx context.Context, owner, pkg, version, tool string, args map[string]interface{}) (json.RawMessage, error)

// Handler serves one MCP server per collection.
type Handler struct {
	collections store.CollectionsStore
	runner      RunnerFunc
	version     string

	inner http.Handler
}

// NewHandler creates the MCP handler. version names the server build in the
// MCP handshake.
func NewHandler(collections store.CollectionsStore, run RunnerFunc, version string) *Handler {
	h := &Handler{
		collections: collections,
		runner:      run,
		version:     version,
	}
	h.inner = sdk.NewStreamableHTTPHandler(h.serverFor, &sdk.StreamableHTTPOptions{Stateless: true})
	return h
}

// ServeHTTP resolves the collection first so unknown or non-MCP collections
// get a plain 404 instead of a protocol error.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.lookup(r) == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   map[string]string{"code": "not_found", "message": "collection not found"},
		})
		return
	}
	h.inner.ServeHTTP(w, r)
}

func (h *Handler) lookup(r *http.Request) *collectionServer {
	vars := mux.Vars(r)
	c, err := h.collections.FindCollectionBySlug(vars["user"], vars["slug"])
	if err != nil || !c.MCPEnabled {
		return nil
	}

	tools, err := h.collections.ListTools(c.CollectionID)
	if err != nil {
		return nil
	}
	return &collectionServer{name: c.Name, slug: c.Slug, owner: c.UserID, tools: tools}
}

// serverFor builds a fresh MCP server scoped to the request's collection.
// The handler runs stateless, so per-request construction is fine.
func (h *Handler) serverFor(r *http.Request) *sdk.Server {
	c := h.lookup(r)
	if c == nil {
		return nil
	}

	server := sdk.NewServer(&sdk.Implementation{
		Name:    "tpmjs/" + c.slug,
		Title:   c.name,
		Version: h.version,
	}, nil)

	for _, t := range c.tools {
		tool := t
		server.AddTool(&sdk.Tool{
			Name:        tool.Tool.Name,
			Description: tool.Tool.Description,
			InputSchema: map[string]interface{}(tool.Tool.InputSchema),
		}, h.callHandler(c.owner, tool))
	}
	return server
}

func (h *Handler) callHandler(owner string, t store.ToolWithPackage) sdk.ToolHandler {
	return func(ctx context.Context, req *sdk.CallToolRequest) (*sdk.CallToolResult, error) {
		args := map[string]interface{}{}
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return errorResult(fmt.Sprintf("malformed arguments: %v", err)), nil
			}
		}

		output, err := h.runner(ctx, owner, t.PackageName, t.PackageVersion, t.Tool.Name, args)
		if err != nil {
			return errorResult(err.Error()), nil
		}

		return &sdk.CallToolResult{
			Content: []sdk.Content{&sdk.TextContent{Text: string(output)}},
		}, nil
	}
}

func errorResult(message string) *sdk.CallToolResult {
	return &sdk.CallToolResult{
		Content: []sdk.Content{&sdk.TextContent{Text: message}},
		IsError: true,
	}
}

type collectionServer struct {
	name  string
	slug  string
	owner string
	tools []store.ToolWithPackage
}
