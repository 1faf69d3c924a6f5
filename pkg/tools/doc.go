// Package tools defines the in-process tool shape shared by built-in tools
// and dynamically loaded registry tools, plus the built-in tool set itself:
// document converters, parsers, and generators that ship with the service
// and run without the sandboxed executor.
package tools
