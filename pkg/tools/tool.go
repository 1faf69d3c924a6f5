package tools

import (
	"context"
	"fmt"
)

// Handler executes a tool with already-decoded JSON arguments.
type Handler func(ctx context.Context, args map[string]interface{}) (interface{}, error)

// Tool is a callable tool: a name, a human description, a JSON Schema for
// its input, and the handler that runs it.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]interface{}
	Handler     Handler
}

// objectSchema builds a JSON Schema for an object with the given properties
// and required names.
func objectSchema(properties map[string]interface{}, required ...string) map[string]interface{} {
	s := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func stringArg(args map[string]interface{}, name string, required bool) (string, error) {
	v, ok := args[name]
	if !ok || v == nil {
		if required {
			return "", fmt.Errorf("missing required argument %q", name)
		}
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string", name)
	}
	if required && s == "" {
		return "", fmt.Errorf("missing required argument %q", name)
	}
	return s, nil
}

func stringSliceArg(args map[string]interface{}, name string) ([]string, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return nil, nil
	}
	raw, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("argument %q must be an array of strings", name)
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("argument %q must be an array of strings", name)
		}
		out = append(out, s)
	}
	return out, nil
}

func numberSliceArg(args map[string]interface{}, name string) ([]float64, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return nil, fmt.Errorf("missing required argument %q", name)
	}
	raw, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("argument %q must be an array of numbers", name)
	}
	out := make([]float64, 0, len(raw))
	for _, item := range raw {
		n, ok := item.(float64)
		if !ok {
			return nil, fmt.Errorf("argument %q must be an array of numbers", name)
		}
		out = append(out, n)
	}
	return out, nil
}
