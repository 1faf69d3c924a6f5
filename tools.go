//go:build tools

package main

// Keeps code generation tools in the module graph for go:generate.
import (
	_ "github.com/dmarkham/enumer"
)
