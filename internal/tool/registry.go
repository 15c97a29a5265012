package tool

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"davmcp/internal/domain"
)

// Registry holds the fixed tool catalogue. It is built once at startup by
// concatenating the domain tool groups and is immutable afterwards, so the
// descriptor order returned by List is stable for the process lifetime.
type Registry struct {
	tools       map[string]domain.Tool
	descriptors []domain.Descriptor
}

// NewRegistry builds the catalogue from the given groups, in order.
// A duplicate tool name across groups is a startup defect.
func NewRegistry(logger *slog.Logger, groups ...[]domain.Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]domain.Tool)}
	for _, group := range groups {
		for _, t := range group {
			if _, dup := r.tools[t.Name()]; dup {
				return nil, fmt.Errorf("duplicate tool name: %s", t.Name())
			}
			r.tools[t.Name()] = t
			r.descriptors = append(r.descriptors, domain.Describe(t))
			logger.Debug("registered tool", "name", t.Name(), "category", t.Category())
		}
	}
	return r, nil
}

// List returns the tool descriptors in registration order.
func (r *Registry) List() []domain.Descriptor {
	out := make([]domain.Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

// Resolve looks a tool up by exact name.
func (r *Registry) Resolve(name string) (domain.Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Len returns the catalogue size.
func (r *Registry) Len() int { return len(r.descriptors) }

// CategoryCounts reports how many tools each category holds, using the
// category tag assigned at registration.
func (r *Registry) CategoryCounts() map[string]int {
	counts := make(map[string]int)
	for _, d := range r.descriptors {
		counts[d.Category]++
	}
	return counts
}

// Param describes a single tool parameter.
type Param struct {
	Type        string
	Description string
}

// ToolParameters builds a JSON Schema "parameters" object for a tool.
func ToolParameters(properties map[string]Param, required []string) map[string]any {
	props := make(map[string]any)
	for name, p := range properties {
		props[name] = map[string]any{"type": p.Type, "description": p.Description}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// ArgsString extracts a string argument, JSON-encoding non-string values.
func ArgsString(args map[string]any, key string) string {
	if args == nil {
		return ""
	}
	v, ok := args[key]
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

// requireArg extracts a mandatory string argument.
func requireArg(args map[string]any, key string) (string, error) {
	v := ArgsString(args, key)
	if v == "" {
		return "", fmt.Errorf("missing required argument: %s", key)
	}
	return v, nil
}

// timeArg parses an optional RFC3339 timestamp argument. An absent key
// yields the zero time.
func timeArg(args map[string]any, key string) (time.Time, error) {
	s := ArgsString(args, key)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("argument %s: expected RFC3339 timestamp, got %q", key, s)
	}
	return t, nil
}

// boolArg extracts an optional boolean argument.
func boolArg(args map[string]any, key string) bool {
	if args == nil {
		return false
	}
	b, ok := args[key].(bool)
	return ok && b
}
