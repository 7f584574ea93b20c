package llm

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/scttfrdmn/econflux/econflux-go/config"
	"github.com/scttfrdmn/econflux/econflux-go/econflux"
)

// DefaultMaxTokens caps a single model turn unless WithMaxTokens is given.
const DefaultMaxTokens = 4096

// ConverseAPI is the subset of the Bedrock runtime client used here.
type ConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockLLM is an adapter for Amazon Bedrock foundation models using the
// Converse API.
//
// Supports the full AWS credential chain:
//   - Explicit credentials (access key ID, secret access key)
//   - AWS profiles (~/.aws/config)
//   - Environment variables (AWS_ACCESS_KEY_ID, etc.)
//   - IAM roles (EC2, ECS, EKS, AgentCore runtime)
//
// Example:
//
//	llm, err := NewBedrockLLM(ctx, BedrockConfig{
//	    ModelID: "us.anthropic.claude-sonnet-4-20250514-v1:0",
//	    Region:  "us-east-1",
//	})
type BedrockLLM struct {
	client  ConverseAPI
	modelID string
}

var (
	_ LLM       = (*BedrockLLM)(nil)
	_ ToolModel = (*BedrockLLM)(nil)
)

// BedrockConfig holds configuration for creating a Bedrock LLM adapter.
type BedrockConfig struct {
	// ModelID is the Bedrock model or inference profile identifier.
	ModelID string

	// Region is the AWS region (default: us-east-1)
	Region string

	// Profile is the AWS profile name (optional)
	Profile string

	// AccessKeyID is the AWS access key (optional)
	AccessKeyID string

	// SecretAccessKey is the AWS secret key (optional)
	SecretAccessKey string

	// SessionToken is the AWS session token (optional)
	SessionToken string

	// EndpointURL is a custom endpoint URL for VPC endpoints (optional)
	EndpointURL string
}

// NewBedrockLLM creates a new Bedrock LLM adapter.
func NewBedrockLLM(ctx context.Context, cfg BedrockConfig) (*BedrockLLM, error) {
	if cfg.ModelID == "" {
		cfg.ModelID = config.DefaultModelID
	}

	awsConfig, err := config.LoadAWS(ctx, config.AWSOptions{
		Region:          cfg.Region,
		Profile:         cfg.Profile,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		SessionToken:    cfg.SessionToken,
	})
	if err != nil {
		return nil, err
	}

	var clientOpts []func(*bedrockruntime.Options)
	if cfg.EndpointURL != "" {
		clientOpts = append(clientOpts, func(o *bedrockruntime.Options) {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
		})
	}

	return NewBedrockLLMWithClient(bedrockruntime.NewFromConfig(awsConfig, clientOpts...), cfg.ModelID), nil
}

// NewBedrockLLMWithClient wraps an existing Converse client.
func NewBedrockLLMWithClient(client ConverseAPI, modelID string) *BedrockLLM {
	if modelID == "" {
		modelID = config.DefaultModelID
	}
	return &BedrockLLM{client: client, modelID: modelID}
}

// Model returns the model identifier.
func (b *BedrockLLM) Model() string {
	return b.modelID
}

// Converse sends one turn to Bedrock with the configured system prompt,
// tools and guardrail, and returns the raw output.
func (b *BedrockLLM) Converse(ctx context.Context, messages []types.Message, opts ...CallOption) (*bedrockruntime.ConverseOutput, error) {
	options := BuildCallOptions(opts...)

	input := &bedrockruntime.ConverseInput{
		ModelId:         aws.String(b.modelID),
		Messages:        messages,
		InferenceConfig: inferenceConfig(options),
	}
	if options.System != "" {
		input.System = []types.SystemContentBlock{
			&types.SystemContentBlockMemberText{Value: options.System},
		}
	}
	if len(options.Tools) > 0 {
		toolConfig, err := ToolConfiguration(options.Tools)
		if err != nil {
			return nil, err
		}
		input.ToolConfig = toolConfig
	}
	if options.GuardrailID != "" {
		version := options.GuardrailVersion
		if version == "" {
			version = config.DefaultGuardrailVersion
		}
		input.GuardrailConfig = &types.GuardrailConfiguration{
			GuardrailIdentifier: aws.String(options.GuardrailID),
			GuardrailVersion:    aws.String(version),
		}
	}

	output, err := b.client.Converse(ctx, input)
	if err != nil {
		return nil, econflux.NewUpstreamError("bedrock", err)
	}
	return output, nil
}

// Complete generates a text completion from Bedrock.
//
// The response metadata includes:
//   - model: Model ID used
//   - usage: Token counts (input, output, total)
//   - stop_reason: Why generation stopped
func (b *BedrockLLM) Complete(ctx context.Context, messages []*econflux.Message, opts ...CallOption) (*econflux.Message, error) {
	bedrockMessages, system := ConvertMessages(messages)
	if system != "" {
		opts = append([]CallOption{WithSystem(system)}, opts...)
	}

	output, err := b.Converse(ctx, bedrockMessages, opts...)
	if err != nil {
		return nil, err
	}

	response := econflux.NewMessage("assistant", OutputText(output))
	response.Metadata["model"] = b.modelID
	if usage := Usage(output); usage != nil {
		response.Metadata["usage"] = usage
	}
	if output.StopReason != "" {
		response.Metadata["stop_reason"] = string(output.StopReason)
	}
	return response, nil
}

func inferenceConfig(options *CallOptions) *types.InferenceConfiguration {
	cfg := &types.InferenceConfiguration{}

	if options.Temperature != nil {
		cfg.Temperature = aws.Float32(float32(*options.Temperature))
	}

	maxTokens := DefaultMaxTokens
	if options.MaxTokens != nil {
		maxTokens = *options.MaxTokens
	}
	cfg.MaxTokens = aws.Int32(int32(maxTokens))

	if options.TopP != nil {
		cfg.TopP = aws.Float32(float32(*options.TopP))
	}

	if stopSeq, ok := options.Extra["stopSequences"].([]string); ok && len(stopSeq) > 0 {
		cfg.StopSequences = stopSeq
	}
	return cfg
}

// Unwrap returns the underlying Bedrock runtime client.
func (b *BedrockLLM) Unwrap() interface{} {
	return b.client
}
