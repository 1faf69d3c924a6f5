// Package chat runs agent conversation turns: it persists the user message,
// assembles history, streams a model completion with the agent's tool set,
// executes requested tools through the built-in registry or the sandboxed
// executor, and loops until the model stops calling tools or the round
// budget runs out. Every step is emitted as a server-sent event so the HTTP
// layer can relay the turn live.
package chat
