// Package executor is the client for the sandboxed tool executor service.
// The executor installs npm packages in an isolated environment, extracts
// the tool schemas they export, and runs individual tools with caller
// supplied arguments. Nothing from the registry ever executes in-process.
package executor
