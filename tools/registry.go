// Package tools provides the functions the EconFlux model can call and the
// registry that dispatches them.
package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/scttfrdmn/econflux/econflux-go/econflux"
)

// ToolRegistry manages the tools available to the agent.
type ToolRegistry struct {
	mu    sync.RWMutex
	tools map[string]econflux.Tool
}

// NewToolRegistry creates a new tool registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools: make(map[string]econflux.Tool),
	}
}

// Register adds tools to the registry.
func (r *ToolRegistry) Register(tools ...econflux.Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, tool := range tools {
		if tool == nil {
			return fmt.Errorf("tool cannot be nil")
		}
		if tool.Name() == "" {
			return fmt.Errorf("tool name cannot be empty")
		}
		if _, exists := r.tools[tool.Name()]; exists {
			return fmt.Errorf("tool '%s' is already registered", tool.Name())
		}
		r.tools[tool.Name()] = tool
	}
	return nil
}

// Get retrieves a tool by name.
func (r *ToolRegistry) Get(name string) (econflux.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, exists := r.tools[name]
	return tool, exists
}

// List returns all registered tool names in sorted order.
func (r *ToolRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tools returns the registered tools sorted by name.
func (r *ToolRegistry) Tools() []econflux.Tool {
	names := r.List()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]econflux.Tool, 0, len(names))
	for _, name := range names {
		out = append(out, r.tools[name])
	}
	return out
}

// GetToolDescriptions returns a formatted description of all available tools.
func (r *ToolRegistry) GetToolDescriptions() string {
	tools := r.Tools()
	if len(tools) == 0 {
		return "No tools available."
	}

	var sb strings.Builder
	sb.WriteString("Available tools:\n")
	for _, tool := range tools {
		fmt.Fprintf(&sb, "- %s: %s\n", tool.Name(), tool.Description())
	}
	return sb.String()
}

// ToolCall represents a request from the model to execute a tool.
type ToolCall struct {
	ID         string                 `json:"id"`
	ToolName   string                 `json:"tool_name"`
	Parameters map[string]interface{} `json:"parameters"`
}

// Execute runs a tool call. Failures never escape as Go errors: an unknown
// tool, invalid input or a tool error all come back as a failed ToolResult
// so the model can see what went wrong.
func (r *ToolRegistry) Execute(ctx context.Context, call ToolCall) *econflux.ToolResult {
	tool, exists := r.Get(call.ToolName)
	if !exists {
		return econflux.NewToolError(fmt.Sprintf("tool '%s' not found", call.ToolName)).
			WithMetadata("tool", call.ToolName)
	}

	params := call.Parameters
	if params == nil {
		params = map[string]interface{}{}
	}

	result, err := tool.Execute(ctx, params)
	if err != nil {
		kind := "execution"
		var validation *econflux.ValidationError
		if errors.As(err, &validation) {
			kind = "validation"
		}
		return econflux.NewToolError(err.Error()).
			WithMetadata("tool", call.ToolName).
			WithMetadata("error_kind", kind)
	}
	if result == nil {
		return econflux.NewToolError(fmt.Sprintf("tool '%s' returned no result", call.ToolName)).
			WithMetadata("tool", call.ToolName)
	}
	return result.WithMetadata("tool", call.ToolName)
}
