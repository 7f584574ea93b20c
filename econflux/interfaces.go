// Package econflux provides the core types shared by the EconFlux agent,
// its tools and its runtime adapters.
package econflux

import (
	"context"
	"fmt"
	"time"
)

// Message represents a conversational turn exchanged with the agent.
type Message struct {
	Role      string                 `json:"role"`
	Content   string                 `json:"content"`
	Metadata  map[string]interface{} `json:"metadata"`
	Timestamp time.Time              `json:"timestamp"`
}

// NewMessage creates a new message with the given role and content.
func NewMessage(role, content string) *Message {
	return &Message{
		Role:      role,
		Content:   content,
		Metadata:  make(map[string]interface{}),
		Timestamp: time.Now().UTC(),
	}
}

// WithMetadata adds metadata to the message and returns the message for chaining.
func (m *Message) WithMetadata(key string, value interface{}) *Message {
	if m.Metadata == nil {
		m.Metadata = make(map[string]interface{})
	}
	m.Metadata[key] = value
	return m
}

// SessionID returns the runtime session the message belongs to, if any.
func (m *Message) SessionID() string {
	if m.Metadata == nil {
		return ""
	}
	id, _ := m.Metadata[MetadataSessionID].(string)
	return id
}

// MetadataSessionID is the metadata key carrying the runtime session id.
const MetadataSessionID = "session_id"

// maxContentSize bounds a single prompt or response.
const maxContentSize = 1024 * 1024

// Validate checks the role and content size of the message.
func (m *Message) Validate() error {
	switch m.Role {
	case "user", "assistant", "system", "tool", "agent":
	case "":
		return fmt.Errorf("message role cannot be empty")
	default:
		return fmt.Errorf("invalid message role: %s. Must be one of: user, assistant, system, tool, agent", m.Role)
	}

	if len(m.Content) > maxContentSize {
		return fmt.Errorf("message content exceeds maximum size of %d bytes (got %d bytes)", maxContentSize, len(m.Content))
	}
	return nil
}

// ToolResult represents the result of a tool execution.
type ToolResult struct {
	Success  bool                   `json:"success"`
	Data     interface{}            `json:"data,omitempty"`
	Error    string                 `json:"error,omitempty"`
	Metadata map[string]interface{} `json:"metadata"`
}

// NewToolResult creates a successful tool result.
func NewToolResult(data interface{}) *ToolResult {
	return &ToolResult{
		Success:  true,
		Data:     data,
		Metadata: make(map[string]interface{}),
	}
}

// NewToolError creates a tool result representing an error.
func NewToolError(err string) *ToolResult {
	return &ToolResult{
		Success:  false,
		Error:    err,
		Metadata: make(map[string]interface{}),
	}
}

// WithMetadata adds metadata to the tool result and returns it for chaining.
func (t *ToolResult) WithMetadata(key string, value interface{}) *ToolResult {
	if t.Metadata == nil {
		t.Metadata = make(map[string]interface{})
	}
	t.Metadata[key] = value
	return t
}

// Agent is the interface implemented by the EconFlux agent and the
// middleware that wraps it.
type Agent interface {
	// Name returns the unique identifier for this agent.
	Name() string

	// Process handles a message and returns a response.
	Process(ctx context.Context, message *Message) (*Message, error)

	// Capabilities returns a list of capability identifiers this agent supports.
	Capabilities() []string
}

// Tool represents a function the model may call mid-conversation.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description tells the model when to use the tool.
	Description() string

	// InputSchema returns the JSON schema of the tool's parameters.
	InputSchema() map[string]interface{}

	// Execute runs the tool with the given parameters and returns a result.
	Execute(ctx context.Context, params map[string]interface{}) (*ToolResult, error)
}
