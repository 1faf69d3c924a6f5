// Package main provides tpmjsctl, the CLI for the TPMJS tool registry.
//
// TPMJS indexes npm packages that export AI-agent tools, curates them into
// collections, and runs agents against them over chat and MCP.
//
// # Architecture
//
//   - pkg/server: HTTP server and routing
//   - pkg/server/endpoints: REST API endpoint handlers
//   - pkg/registry: npm sync, health sweeps, and stats snapshots
//   - pkg/chat: the agent conversation engine
//   - pkg/toolloader: dynamic tool loading for conversations
//   - pkg/mcp: per-collection MCP servers
//   - pkg/crypto: credential encryption
//   - pkg/model: database models
//   - pkg/db: database connection utilities
//   - pkg/config: configuration management
//
// # Quick Start
//
//	# Generate a data key for credential encryption
//	export TPMJS_DATA_KEY="$(tpmjsctl data-key generate)"
//	export TPMJS_SESSION_SECRET="$(tpmjsctl data-key generate)"
//
//	# Run database migrations
//	tpmjsctl db migrate
//
//	# Start the server
//	tpmjsctl server
//
// # Environment Variables
//
//   - DATABASE_URL: PostgreSQL connection string
//   - TPMJS_DATA_KEY: Base64-encoded 256-bit key for credential encryption
//   - TPMJS_SESSION_SECRET: HMAC secret for session tokens
//   - TPMJS_LLM_API_KEY: fallback LLM provider key for users without one
//   - TPMJS_LOG_LEVEL: log level (debug enables SQL logging)
//   - PORT: server port (default: 8000)
package main
