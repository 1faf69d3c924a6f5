package toolloader

import (
	"fmt"
	"strings"
)

// Ref identifies one tool inside a published package.
type Ref struct {
	Package string
	Version string
	Tool    string
}

// ParseRef parses "pkg/tool", "pkg@version/tool", or the scoped forms
// "@scope/pkg/tool" and "@scope/pkg@version/tool".
func ParseRef(s string) (Ref, error) {
	rest := s
	scope := ""
	if strings.HasPrefix(rest, "@") {
		i := strings.Index(rest, "/")
		if i < 0 {
			return Ref{}, fmt.Errorf("malformed tool reference %q", s)
		}
		scope = rest[:i+1]
		rest = rest[i+1:]
	}

	i := strings.Index(rest, "/")
	if i < 0 {
		return Ref{}, fmt.Errorf("malformed tool reference %q: missing tool name", s)
	}
	pkg, tool := rest[:i], rest[i+1:]
	if pkg == "" || tool == "" || strings.Contains(tool, "/") {
		return Ref{}, fmt.Errorf("malformed tool reference %q", s)
	}

	version := ""
	if at := strings.Index(pkg, "@"); at >= 0 {
		pkg, version = pkg[:at], pkg[at+1:]
		if pkg == "" || version == "" {
			return Ref{}, fmt.Errorf("malformed tool reference %q", s)
		}
	}

	return Ref{Package: scope + pkg, Version: version, Tool: tool}, nil
}

// String renders the reference in canonical pkg@version/tool form.
func (r Ref) String() string {
	if r.Version == "" {
		return r.Package + "/" + r.Tool
	}
	return r.Package + "@" + r.Version + "/" + r.Tool
}
