package domain

import "context"

// Tool categories. Stored on every descriptor at registration time so that
// health reporting never has to guess a tool's group from its name.
const (
	CategoryCalendar = "calendar"
	CategoryContact  = "contact"
	CategoryTask     = "task"
	CategorySystem   = "system"
)

// Tool is the interface for the operations exposed over MCP
// (calendar, contact, and task operations plus server introspection).
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any
	Category() string
	// RequiresRemote reports whether the tool needs an initialized remote
	// session. List operations return false: they still hit the remote at
	// execution time, but the dispatcher skips the advisory warning.
	RequiresRemote() bool
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// Descriptor is the protocol-visible description of a tool. Built once at
// registration and never mutated.
type Descriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`

	Category       string `json:"-"`
	RequiresRemote bool   `json:"-"`
}

// Describe builds the descriptor for a tool.
func Describe(t Tool) Descriptor {
	return Descriptor{
		Name:           t.Name(),
		Description:    t.Description(),
		InputSchema:    t.Parameters(),
		Category:       t.Category(),
		RequiresRemote: t.RequiresRemote(),
	}
}
