// Package agent implements the EconFlux agent: a Bedrock Converse loop that
// lets the model call the registered tools until it produces an answer.
//
// Each turn the model either answers or stops with tool_use. Requested tools
// run through the registry and their results are sent back as the next user
// turn. The loop is bounded by MaxTurns.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/scttfrdmn/econflux/econflux-go/adapter/llm"
	"github.com/scttfrdmn/econflux/econflux-go/econflux"
	"github.com/scttfrdmn/econflux/econflux-go/memory"
	"github.com/scttfrdmn/econflux/econflux-go/observability"
	"github.com/scttfrdmn/econflux/econflux-go/tools"
)

const (
	// Name is the agent name reported to middleware and logs.
	Name = "econflux"

	DefaultMaxTurns      = 10
	DefaultHistoryWindow = 20
	DefaultParallelism   = 4
)

// ErrMaxTurnsExceeded is returned when the model keeps requesting tools past
// the configured turn limit.
var ErrMaxTurnsExceeded = errors.New("maximum model turns exceeded")

// StopReason indicates why the loop ended.
type StopReason string

const (
	StopReasonEndTurn     StopReason = "end_turn"
	StopReasonGuardrail   StopReason = "guardrail_intervened"
	StopReasonMaxTokens   StopReason = "max_tokens"
	StopReasonNoToolCalls StopReason = "no_tool_calls"
)

// Config configures an Agent.
type Config struct {
	// Model drives the conversation (required)
	Model llm.ToolModel

	// Registry holds the callable tools (required)
	Registry *tools.ToolRegistry

	// Memory persists the user and assistant turns per session (optional)
	Memory memory.Memory

	// SystemPrompt defaults to the EconFlux prompt
	SystemPrompt string

	// MaxTurns bounds model calls per request (default: 10)
	MaxTurns int

	// HistoryWindow is the number of stored messages replayed (default: 20)
	HistoryWindow int

	// Parallelism bounds concurrent tool executions within a turn (default: 4)
	Parallelism int

	// CallOptions are applied to every model call, e.g. the guardrail
	CallOptions []llm.CallOption

	// EvalMode attaches the tool call trace to the response metadata
	EvalMode bool

	// ToolMetrics records tool executions (optional)
	ToolMetrics *observability.ToolMetrics

	Logger *slog.Logger
}

// ToolCallRecord is one executed tool call, reported in eval mode.
type ToolCallRecord struct {
	Turn    int                    `json:"turn"`
	ID      string                 `json:"id"`
	Name    string                 `json:"name"`
	Input   map[string]interface{} `json:"input"`
	Success bool                   `json:"success"`
	Error   string                 `json:"error,omitempty"`
}

// Agent is the EconFlux agent.
type Agent struct {
	model         llm.ToolModel
	registry      *tools.ToolRegistry
	memory        memory.Memory
	systemPrompt  string
	maxTurns      int
	historyWindow int
	callOptions   []llm.CallOption
	evalMode      bool
	toolMetrics   *observability.ToolMetrics
	pool          *ants.Pool
	logger        *slog.Logger
}

var _ econflux.Agent = (*Agent)(nil)

// New creates an agent. Close releases its worker pool.
func New(cfg Config) (*Agent, error) {
	if cfg.Model == nil {
		return nil, econflux.NewConfigurationError("model", "model is required")
	}
	if cfg.Registry == nil {
		return nil, econflux.NewConfigurationError("registry", "tool registry is required")
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = SystemPrompt
	}
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = DefaultMaxTurns
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = DefaultHistoryWindow
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = DefaultParallelism
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	pool, err := ants.NewPool(cfg.Parallelism)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool worker pool: %w", err)
	}

	return &Agent{
		model:         cfg.Model,
		registry:      cfg.Registry,
		memory:        cfg.Memory,
		systemPrompt:  cfg.SystemPrompt,
		maxTurns:      cfg.MaxTurns,
		historyWindow: cfg.HistoryWindow,
		callOptions:   cfg.CallOptions,
		evalMode:      cfg.EvalMode,
		toolMetrics:   cfg.ToolMetrics,
		pool:          pool,
		logger:        cfg.Logger.With("agent", Name),
	}, nil
}

// Name returns the agent name.
func (a *Agent) Name() string {
	return Name
}

// Capabilities returns the agent capabilities.
func (a *Agent) Capabilities() []string {
	return []string{"financial-analysis", "tool-use", "knowledge-retrieval"}
}

// Close releases the tool worker pool.
func (a *Agent) Close() {
	a.pool.Release()
}

// Process answers a user prompt. The session id is read from the message
// metadata; without one the conversation starts fresh and is not stored.
func (a *Agent) Process(ctx context.Context, message *econflux.Message) (*econflux.Message, error) {
	if message == nil || message.Content == "" {
		return nil, econflux.NewValidationError("prompt", "must not be empty")
	}
	if err := message.Validate(); err != nil {
		return nil, econflux.NewValidationError("prompt", err.Error())
	}

	sessionID := message.SessionID()
	logger := a.logger
	if sessionID != "" {
		logger = logger.With("session_id", sessionID)
	}

	history, err := memory.Window(ctx, a.memory, sessionID, a.historyWindow)
	if err != nil {
		// History is best effort; answer without it.
		logger.WarnContext(ctx, "failed to load session history", "error", err)
		history = nil
	}

	conversation := make([]types.Message, 0, len(history)+1)
	for _, msg := range history {
		conversation = append(conversation, llm.TextMessage(msg.Role, msg.Content))
	}
	conversation = append(conversation, llm.TextMessage("user", message.Content))

	opts := append([]llm.CallOption{
		llm.WithSystem(a.systemPrompt),
		llm.WithTools(a.registry.Tools()...),
	}, a.callOptions...)

	var (
		calls []ToolCallRecord
		usage = map[string]int32{}
	)

	for turn := 1; turn <= a.maxTurns; turn++ {
		output, err := a.model.Converse(ctx, conversation, opts...)
		if err != nil {
			return nil, fmt.Errorf("model turn %d: %w", turn, err)
		}
		addUsage(usage, output)

		assistant, ok := llm.OutputMessage(output)
		if !ok {
			return nil, econflux.NewUpstreamError("bedrock", fmt.Errorf("turn %d returned no message", turn))
		}
		conversation = append(conversation, assistant)

		logger.Log(ctx, observability.LevelTrace, "model turn",
			"turn", turn, "stop_reason", string(output.StopReason))

		if output.StopReason == types.StopReasonToolUse {
			uses, err := llm.ToolUses(output)
			if err != nil {
				return nil, err
			}
			if len(uses) > 0 {
				results, records := a.runTools(ctx, turn, uses)
				calls = append(calls, records...)
				conversation = append(conversation, types.Message{
					Role:    types.ConversationRoleUser,
					Content: results,
				})
				continue
			}
		}

		text := llm.OutputText(output)
		stop := stopReason(output.StopReason)
		if stop == StopReasonGuardrail {
			logger.WarnContext(ctx, "guardrail intervened", "turn", turn)
		}

		response := econflux.NewMessage("assistant", text)
		response.Metadata["model"] = a.model.Model()
		response.Metadata["stop_reason"] = string(stop)
		response.Metadata["turns"] = turn
		response.Metadata["usage"] = usage
		if sessionID != "" {
			response.Metadata[econflux.MetadataSessionID] = sessionID
		}
		if a.evalMode {
			if calls == nil {
				calls = []ToolCallRecord{}
			}
			response.Metadata["tool_calls"] = calls
		}

		a.remember(ctx, logger, sessionID, message, response)
		return response, nil
	}

	return nil, fmt.Errorf("%w: limit is %d", ErrMaxTurnsExceeded, a.maxTurns)
}

// runTools executes the tool uses of one turn on the worker pool and returns
// the result blocks in request order.
func (a *Agent) runTools(ctx context.Context, turn int, uses []llm.ToolUse) ([]types.ContentBlock, []ToolCallRecord) {
	blocks := make([]types.ContentBlock, len(uses))
	records := make([]ToolCallRecord, len(uses))

	var wg sync.WaitGroup
	for i, use := range uses {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			result := a.execute(ctx, use)
			blocks[i] = llm.ToolResultBlock(use.ID, result)
			records[i] = ToolCallRecord{
				Turn:    turn,
				ID:      use.ID,
				Name:    use.Name,
				Input:   use.Input,
				Success: result.Success,
				Error:   result.Error,
			}
		}
		if err := a.pool.Submit(task); err != nil {
			a.logger.WarnContext(ctx, "tool pool unavailable, running inline", "tool", use.Name, "error", err)
			task()
		}
	}
	wg.Wait()
	return blocks, records
}

func (a *Agent) execute(ctx context.Context, use llm.ToolUse) *econflux.ToolResult {
	ctx, span := observability.GetTracer().Start(ctx, "tool."+use.Name)
	defer span.End()
	span.SetAttributes(
		attribute.String("tool.name", use.Name),
		attribute.String("tool.use_id", use.ID),
	)

	start := time.Now()
	result := a.registry.Execute(ctx, tools.ToolCall{
		ID:         use.ID,
		ToolName:   use.Name,
		Parameters: use.Input,
	})
	elapsed := time.Since(start)
	a.toolMetrics.Record(ctx, use.Name, result.Success, elapsed)

	if result.Success {
		span.SetStatus(codes.Ok, "")
		a.logger.DebugContext(ctx, "tool executed", "tool", use.Name, "duration", elapsed)
	} else {
		span.SetStatus(codes.Error, result.Error)
		a.logger.WarnContext(ctx, "tool failed", "tool", use.Name, "error", result.Error)
	}
	return result
}

// remember stores the prompt and the answer. Storage failures are logged.
func (a *Agent) remember(ctx context.Context, logger *slog.Logger, sessionID string, prompt, response *econflux.Message) {
	if a.memory == nil || sessionID == "" {
		return
	}
	user := econflux.NewMessage("user", prompt.Content)
	user.Timestamp = prompt.Timestamp
	assistant := econflux.NewMessage("assistant", response.Content)
	if !assistant.Timestamp.After(user.Timestamp) {
		assistant.Timestamp = user.Timestamp.Add(time.Microsecond)
	}

	for _, msg := range []*econflux.Message{user, assistant} {
		if err := a.memory.Store(ctx, sessionID, msg); err != nil {
			logger.WarnContext(ctx, "failed to store session history", "error", err)
			return
		}
	}
}

func stopReason(reason types.StopReason) StopReason {
	switch reason {
	case types.StopReasonEndTurn, types.StopReasonStopSequence:
		return StopReasonEndTurn
	case types.StopReasonGuardrailIntervened, types.StopReasonContentFiltered:
		return StopReasonGuardrail
	case types.StopReasonMaxTokens:
		return StopReasonMaxTokens
	case types.StopReasonToolUse:
		return StopReasonNoToolCalls
	default:
		return StopReason(reason)
	}
}

// addUsage accumulates the token counts of one model turn.
func addUsage(usage map[string]int32, output *bedrockruntime.ConverseOutput) {
	if output == nil || output.Usage == nil {
		return
	}
	usage["prompt_tokens"] += aws.ToInt32(output.Usage.InputTokens)
	usage["completion_tokens"] += aws.ToInt32(output.Usage.OutputTokens)
	usage["total_tokens"] += aws.ToInt32(output.Usage.TotalTokens)
}
