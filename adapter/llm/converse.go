package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/scttfrdmn/econflux/econflux-go/econflux"
)

// ToolUse is a tool call requested by the model.
type ToolUse struct {
	ID    string
	Name  string
	Input map[string]interface{}
}

// TextMessage builds a single text block message. Roles other than "user"
// map to the assistant.
func TextMessage(role, text string) types.Message {
	r := types.ConversationRoleAssistant
	if role == "user" {
		r = types.ConversationRoleUser
	}
	return types.Message{
		Role:    r,
		Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: text}},
	}
}

// ConvertMessages converts EconFlux messages to Converse messages.
// System messages are joined into the returned system prompt.
func ConvertMessages(messages []*econflux.Message) ([]types.Message, string) {
	var out []types.Message
	var system []string

	for _, msg := range messages {
		if msg.Role == "system" {
			system = append(system, msg.Content)
			continue
		}
		out = append(out, TextMessage(msg.Role, msg.Content))
	}
	return out, strings.Join(system, "\n\n")
}

// ToolConfiguration describes tools to the model. Each input schema is sent
// as a JSON document.
func ToolConfiguration(tools []econflux.Tool) (*types.ToolConfiguration, error) {
	specs := make([]types.Tool, 0, len(tools))
	for _, tool := range tools {
		schema, err := jsonValue(tool.InputSchema())
		if err != nil {
			return nil, fmt.Errorf("tool %s: invalid input schema: %w", tool.Name(), err)
		}
		specs = append(specs, &types.ToolMemberToolSpec{
			Value: types.ToolSpecification{
				Name:        aws.String(tool.Name()),
				Description: aws.String(tool.Description()),
				InputSchema: &types.ToolInputSchemaMemberJson{Value: document.NewLazyDocument(schema)},
			},
		})
	}
	return &types.ToolConfiguration{Tools: specs}, nil
}

// OutputMessage returns the assistant message of a Converse output.
func OutputMessage(output *bedrockruntime.ConverseOutput) (types.Message, bool) {
	if output == nil {
		return types.Message{}, false
	}
	msg, ok := output.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return types.Message{}, false
	}
	return msg.Value, true
}

// OutputText concatenates the text blocks of a Converse output.
func OutputText(output *bedrockruntime.ConverseOutput) string {
	msg, ok := OutputMessage(output)
	if !ok {
		return ""
	}
	var sb strings.Builder
	for _, block := range msg.Content {
		if text, ok := block.(*types.ContentBlockMemberText); ok {
			sb.WriteString(text.Value)
		}
	}
	return sb.String()
}

// ToolUses extracts the tool calls of a Converse output in order.
func ToolUses(output *bedrockruntime.ConverseOutput) ([]ToolUse, error) {
	msg, ok := OutputMessage(output)
	if !ok {
		return nil, nil
	}

	var uses []ToolUse
	for _, block := range msg.Content {
		use, ok := block.(*types.ContentBlockMemberToolUse)
		if !ok {
			continue
		}
		input := map[string]interface{}{}
		if use.Value.Input != nil {
			// Round-trip through JSON so numbers decode as float64.
			data, err := use.Value.Input.MarshalSmithyDocument()
			if err != nil {
				return nil, fmt.Errorf("tool %s: failed to read input: %w", aws.ToString(use.Value.Name), err)
			}
			if err := json.Unmarshal(data, &input); err != nil {
				return nil, fmt.Errorf("tool %s: tool input must be a JSON object: %w", aws.ToString(use.Value.Name), err)
			}
		}
		uses = append(uses, ToolUse{
			ID:    aws.ToString(use.Value.ToolUseId),
			Name:  aws.ToString(use.Value.Name),
			Input: input,
		})
	}
	return uses, nil
}

// ToolResultBlock converts a tool result into the content block sent back
// to the model. Failed results carry status error and the error text.
func ToolResultBlock(toolUseID string, result *econflux.ToolResult) types.ContentBlock {
	block := types.ToolResultBlock{
		ToolUseId: aws.String(toolUseID),
		Status:    types.ToolResultStatusSuccess,
	}

	if result == nil || !result.Success {
		msg := "tool failed"
		if result != nil && result.Error != "" {
			msg = result.Error
		}
		block.Status = types.ToolResultStatusError
		block.Content = []types.ToolResultContentBlock{
			&types.ToolResultContentBlockMemberText{Value: msg},
		}
		return &types.ContentBlockMemberToolResult{Value: block}
	}

	value, err := jsonValue(result.Data)
	if obj, ok := value.(map[string]interface{}); err == nil && ok {
		block.Content = []types.ToolResultContentBlock{
			&types.ToolResultContentBlockMemberJson{Value: document.NewLazyDocument(obj)},
		}
	} else {
		data, _ := json.Marshal(result.Data)
		block.Content = []types.ToolResultContentBlock{
			&types.ToolResultContentBlockMemberText{Value: string(data)},
		}
	}
	return &types.ContentBlockMemberToolResult{Value: block}
}

// Usage reports token counts, or nil when the output has none.
func Usage(output *bedrockruntime.ConverseOutput) map[string]interface{} {
	if output == nil || output.Usage == nil {
		return nil
	}
	return map[string]interface{}{
		"prompt_tokens":     aws.ToInt32(output.Usage.InputTokens),
		"completion_tokens": aws.ToInt32(output.Usage.OutputTokens),
		"total_tokens":      aws.ToInt32(output.Usage.TotalTokens),
	}
}

// jsonValue normalises v through encoding/json so that its json tags and
// MarshalJSON methods decide the document sent to Bedrock.
func jsonValue(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
