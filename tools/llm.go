package tools

import (
	"context"
	"strings"

	"github.com/scttfrdmn/econflux/econflux-go/adapter/llm"
	"github.com/scttfrdmn/econflux/econflux-go/econflux"
)

// Completer is the part of llm.LLM the use_llm tool needs.
type Completer interface {
	Complete(ctx context.Context, messages []*econflux.Message, opts ...llm.CallOption) (*econflux.Message, error)
	Model() string
}

// UseLLMParams are the inputs of the use_llm tool.
type UseLLMParams struct {
	Prompt       string `json:"prompt" jsonschema:"description=Prompt for the nested model call."`
	SystemPrompt string `json:"system_prompt,omitempty" jsonschema:"description=Optional system prompt for the nested call."`
}

// LLMAnswer is the output of the use_llm tool.
type LLMAnswer struct {
	Response   string `json:"response"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason,omitempty"`
}

// NewUseLLMTool returns a tool that runs one text-only completion on model.
// The nested call gets no tools; opts (e.g. the guardrail) apply to it.
func NewUseLLMTool(model Completer, opts ...llm.CallOption) econflux.Tool {
	return MustFunctionTool("use_llm",
		"Run a separate model call with its own prompt and optional system prompt, without tools. "+
			"Use for edge cases such as rewording, classification or a focused sub-analysis.",
		func(ctx context.Context, p UseLLMParams) (LLMAnswer, error) {
			prompt := strings.TrimSpace(p.Prompt)
			if prompt == "" {
				return LLMAnswer{}, econflux.NewValidationError("prompt", "must not be empty")
			}

			var messages []*econflux.Message
			if system := strings.TrimSpace(p.SystemPrompt); system != "" {
				messages = append(messages, econflux.NewMessage("system", system))
			}
			messages = append(messages, econflux.NewMessage("user", prompt))

			resp, err := model.Complete(ctx, messages, opts...)
			if err != nil {
				return LLMAnswer{}, err
			}
			answer := LLMAnswer{Response: resp.Content, Model: model.Model()}
			if reason, ok := resp.Metadata["stop_reason"].(string); ok {
				answer.StopReason = reason
			}
			return answer, nil
		})
}
