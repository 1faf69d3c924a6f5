package endpoints

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/tpmjs/tpmjs/pkg/audit"
	"github.com/tpmjs/tpmjs/pkg/mcp"
	"github.com/tpmjs/tpmjs/pkg/server"
)

// RegisterMCPEndpoints mounts a per-collection MCP server. GET carries the
// SSE stream, POST the JSON-RPC messages.
func RegisterMCPEndpoints(s *server.Server) {
	run := func(ctx context.Context, owner, pkg, version, tool string, args map[string]interface{}) (json.RawMessage, error) {
		if s.Executor == nil {
			return nil, errors.New("executor not configured")
		}
		result, err := s.Executor.Execute(ctx, pkg, version, tool, args)
		if s.Audit != nil {
			event := audit.ExecuteEvent{
				UserID:  owner,
				Package: pkg,
				Tool:    tool,
				Success: err == nil,
			}
			if err != nil {
				event.ErrorMessage = err.Error()
			}
			s.Audit.Log(event)
		}
		if err != nil {
			return nil, err
		}
		return result.Output, nil
	}

	handler := mcp.NewHandler(s.Collections, run, server.Version)
	s.Router.Handle("/api/mcp/{user}/{slug}", handler).Methods("GET", "POST", "DELETE")
}
