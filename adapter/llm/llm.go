// Package llm provides the model interfaces used by the EconFlux agent and
// their Amazon Bedrock implementation.
package llm

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/scttfrdmn/econflux/econflux-go/econflux"
)

// LLM is the minimal interface for text completion.
type LLM interface {
	// Complete generates a single text completion from the conversation.
	Complete(ctx context.Context, messages []*econflux.Message, opts ...CallOption) (*econflux.Message, error)

	// Model returns the model identifier for this LLM instance.
	Model() string

	// Unwrap returns the underlying provider client for advanced features.
	Unwrap() interface{}
}

// ToolModel is a model that can request tool calls through the Converse
// API. The agent loop drives it turn by turn.
type ToolModel interface {
	// Converse sends the conversation and returns the raw model output,
	// which may end with a tool_use stop reason.
	Converse(ctx context.Context, messages []types.Message, opts ...CallOption) (*bedrockruntime.ConverseOutput, error)

	// Model returns the model identifier.
	Model() string
}

// CallOptions holds options for model calls.
type CallOptions struct {
	// Common options
	Temperature *float64
	MaxTokens   *int
	TopP        *float64

	// System is the system prompt sent with every turn.
	System string

	// Tools offered to the model. Empty means no tool configuration.
	Tools []econflux.Tool

	// Guardrail applied to the call when GuardrailID is set.
	GuardrailID      string
	GuardrailVersion string

	// Provider-specific options
	Extra map[string]interface{}
}

// CallOption is a functional option for configuring model calls.
type CallOption func(*CallOptions)

// WithTemperature sets the sampling temperature (typically 0.0-1.0).
func WithTemperature(temperature float64) CallOption {
	return func(opts *CallOptions) {
		opts.Temperature = &temperature
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(maxTokens int) CallOption {
	return func(opts *CallOptions) {
		opts.MaxTokens = &maxTokens
	}
}

// WithTopP sets the nucleus sampling parameter.
func WithTopP(topP float64) CallOption {
	return func(opts *CallOptions) {
		opts.TopP = &topP
	}
}

// WithSystem sets the system prompt.
func WithSystem(prompt string) CallOption {
	return func(opts *CallOptions) {
		opts.System = prompt
	}
}

// WithTools offers tools to the model.
func WithTools(tools ...econflux.Tool) CallOption {
	return func(opts *CallOptions) {
		opts.Tools = append(opts.Tools, tools...)
	}
}

// WithGuardrail applies a Bedrock guardrail. An empty version means DRAFT.
func WithGuardrail(id, version string) CallOption {
	return func(opts *CallOptions) {
		opts.GuardrailID = id
		opts.GuardrailVersion = version
	}
}

// WithExtra adds a provider-specific option.
func WithExtra(key string, value interface{}) CallOption {
	return func(opts *CallOptions) {
		if opts.Extra == nil {
			opts.Extra = make(map[string]interface{})
		}
		opts.Extra[key] = value
	}
}

// BuildCallOptions creates CallOptions from functional options.
func BuildCallOptions(opts ...CallOption) *CallOptions {
	options := &CallOptions{
		Extra: make(map[string]interface{}),
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
