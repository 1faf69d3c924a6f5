// Package llm is a streaming client for OpenAI-compatible chat completion
// APIs. It speaks the /v1/chat/completions wire format over SSE, reassembles
// tool calls that arrive spread across deltas, and surfaces token deltas
// through a callback so the server can relay them to its own SSE clients.
package llm
