// Package server provides the TPMJS HTTP API server.
//
// This package implements the core HTTP server that handles all TPMJS REST
// API requests. It uses gorilla/mux for routing and provides middleware for
// authentication and rate limiting.
//
// # Server Setup
//
//	srv := server.NewServer(server.Deps{...}, host, port)
//	endpoints.RegisterAll(srv)
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Endpoints
//
// API endpoints are registered via the endpoints subpackage. This registers
// the public catalog routes (/api/packages, /api/tools/search, /api/stats),
// the authenticated management routes (/api/collections, /api/agents,
// /api/user), the chat SSE route, the cron-gated sync triggers under
// /api/sync, and the per-collection MCP servers under /api/mcp.
package server
