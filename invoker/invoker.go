// Package invoker calls a deployed EconFlux runtime through Bedrock
// AgentCore. It backs the Lambda entry point and the one-shot CLI.
package invoker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcore"
	"github.com/google/uuid"

	"github.com/scttfrdmn/econflux/econflux-go/econflux"
)

const (
	EnvAgentRuntimeARN  = "AGENT_RUNTIME_ARN"
	EnvRuntimeSessionID = "RUNTIME_SESSION_ID"
	EnvQualifier        = "QUALIFIER"

	// SessionPrefix prefixes generated runtime session ids.
	SessionPrefix = "econflux-"

	// MissingPromptMessage is returned when the event has no prompt.
	MissingPromptMessage = "Missing required parameter: prompt"
)

// InvokeAPI is the subset of the AgentCore client used here.
type InvokeAPI interface {
	InvokeAgentRuntime(ctx context.Context, params *bedrockagentcore.InvokeAgentRuntimeInput, optFns ...func(*bedrockagentcore.Options)) (*bedrockagentcore.InvokeAgentRuntimeOutput, error)
}

// Config identifies the runtime to invoke.
type Config struct {
	AgentRuntimeARN  string
	RuntimeSessionID string
	// Qualifier selects the runtime endpoint; empty uses the default one.
	Qualifier string
}

// ConfigFromEnv reads the runtime settings. Without RUNTIME_SESSION_ID a
// fresh session id is generated.
func ConfigFromEnv(getenv func(string) string) Config {
	cfg := Config{
		AgentRuntimeARN:  getenv(EnvAgentRuntimeARN),
		RuntimeSessionID: getenv(EnvRuntimeSessionID),
		Qualifier:        getenv(EnvQualifier),
	}
	if cfg.RuntimeSessionID == "" {
		cfg.RuntimeSessionID = NewSessionID()
	}
	return cfg
}

// NewSessionID returns a runtime session id. AgentCore requires at least
// 33 characters.
func NewSessionID() string {
	return SessionPrefix + uuid.NewString()
}

// Handler invokes the runtime for Lambda events.
type Handler struct {
	client InvokeAPI
	cfg    Config
	logger *slog.Logger
}

// NewHandler creates a handler.
func NewHandler(client InvokeAPI, cfg Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{client: client, cfg: cfg, logger: logger}
}

// Invoke sends prompt to the runtime and returns its decoded JSON response.
func (h *Handler) Invoke(ctx context.Context, prompt interface{}) (interface{}, error) {
	if h.cfg.AgentRuntimeARN == "" {
		return nil, econflux.NewConfigurationError(EnvAgentRuntimeARN, "agent runtime ARN is not set")
	}

	payload, err := json.Marshal(map[string]interface{}{"prompt": prompt})
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	input := &bedrockagentcore.InvokeAgentRuntimeInput{
		AgentRuntimeArn:  aws.String(h.cfg.AgentRuntimeARN),
		RuntimeSessionId: aws.String(h.cfg.RuntimeSessionID),
		Payload:          payload,
		ContentType:      aws.String("application/json"),
		Accept:           aws.String("application/json"),
	}
	if h.cfg.Qualifier != "" {
		input.Qualifier = aws.String(h.cfg.Qualifier)
	}

	h.logger.DebugContext(ctx, "invoking agent runtime",
		"arn", h.cfg.AgentRuntimeARN, "session_id", h.cfg.RuntimeSessionID)

	out, err := h.client.InvokeAgentRuntime(ctx, input)
	if err != nil {
		return nil, econflux.NewUpstreamError("bedrock-agentcore", err)
	}
	if out.Response == nil {
		return nil, econflux.NewUpstreamError("bedrock-agentcore", fmt.Errorf("empty response"))
	}
	defer out.Response.Close()

	body, err := io.ReadAll(out.Response)
	if err != nil {
		return nil, econflux.NewUpstreamError("bedrock-agentcore", fmt.Errorf("failed to read response: %w", err))
	}

	var data interface{}
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&data); err != nil {
		return nil, fmt.Errorf("runtime returned invalid JSON: %w", err)
	}
	return data, nil
}

// Handle is the Lambda handler. Every outcome is reported through the
// response status code; the returned error is always nil.
func (h *Handler) Handle(ctx context.Context, event map[string]interface{}) (events.APIGatewayProxyResponse, error) {
	prompt, ok := event["prompt"]
	if !ok {
		return response(http.StatusBadRequest, map[string]string{"error": MissingPromptMessage}), nil
	}

	data, err := h.Invoke(ctx, prompt)
	if err != nil {
		h.logger.ErrorContext(ctx, "agent runtime invocation failed", "error", err)
		return response(http.StatusInternalServerError, map[string]string{"error": err.Error()}), nil
	}
	return response(http.StatusOK, data), nil
}

func response(status int, body interface{}) events.APIGatewayProxyResponse {
	data, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		data, _ = json.Marshal(map[string]string{"error": err.Error()})
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(data),
	}
}
