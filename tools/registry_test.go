package tools

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/scttfrdmn/econflux/econflux-go/econflux"
)

// MockTool is a test tool that returns predefined results.
type MockTool struct {
	name       string
	result     *econflux.ToolResult
	err        error
	callCount  int
	lastParams map[string]interface{}
}

func (m *MockTool) Name() string        { return m.name }
func (m *MockTool) Description() string { return "mock tool " + m.name }
func (m *MockTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}
}

func (m *MockTool) Execute(ctx context.Context, params map[string]interface{}) (*econflux.ToolResult, error) {
	m.callCount++
	m.lastParams = params
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func TestToolRegistryRegister(t *testing.T) {
	registry := NewToolRegistry()

	if err := registry.Register(&MockTool{name: "b"}, &MockTool{name: "a"}); err != nil {
		t.Fatalf("Failed to register tools: %v", err)
	}

	retrieved, exists := registry.Get("a")
	if !exists {
		t.Fatal("Tool not found in registry")
	}
	if retrieved.Name() != "a" {
		t.Errorf("Expected tool name 'a', got '%s'", retrieved.Name())
	}

	names := registry.List()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("Expected sorted names [a b], got %v", names)
	}
}

func TestToolRegistryRegisterInvalid(t *testing.T) {
	registry := NewToolRegistry()

	if err := registry.Register(&MockTool{name: "tool"}); err != nil {
		t.Fatalf("First registration failed: %v", err)
	}
	if err := registry.Register(&MockTool{name: "tool"}); err == nil {
		t.Error("Expected error for duplicate registration")
	}
	if err := registry.Register(&MockTool{name: ""}); err == nil {
		t.Error("Expected error for empty name")
	}
	if err := registry.Register(nil); err == nil {
		t.Error("Expected error for nil tool")
	}
}

func TestToolRegistryDescriptions(t *testing.T) {
	registry := NewToolRegistry()
	if got := registry.GetToolDescriptions(); got != "No tools available." {
		t.Errorf("Unexpected empty description: %q", got)
	}

	_ = registry.Register(&MockTool{name: "ping"})
	desc := registry.GetToolDescriptions()
	if !strings.Contains(desc, "- ping: mock tool ping") {
		t.Errorf("Description missing tool line: %q", desc)
	}
}

func TestToolRegistryExecute(t *testing.T) {
	registry := NewToolRegistry()
	ok := &MockTool{name: "ok", result: econflux.NewToolResult("done")}
	failing := &MockTool{name: "failing", err: errors.New("boom")}
	invalid := &MockTool{name: "invalid", err: econflux.NewValidationError("ticker", "must not be empty")}
	empty := &MockTool{name: "empty"}
	_ = registry.Register(ok, failing, invalid, empty)

	tests := []struct {
		name        string
		call        ToolCall
		wantSuccess bool
		wantError   string
		wantKind    string
	}{
		{name: "success", call: ToolCall{ToolName: "ok"}, wantSuccess: true},
		{name: "unknown", call: ToolCall{ToolName: "missing"}, wantError: "tool 'missing' not found"},
		{name: "execution error", call: ToolCall{ToolName: "failing"}, wantError: "boom", wantKind: "execution"},
		{name: "validation error", call: ToolCall{ToolName: "invalid"}, wantError: "invalid ticker: must not be empty", wantKind: "validation"},
		{name: "nil result", call: ToolCall{ToolName: "empty"}, wantError: "returned no result"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := registry.Execute(context.Background(), tt.call)
			if result.Success != tt.wantSuccess {
				t.Fatalf("Expected success=%v, got %v (%s)", tt.wantSuccess, result.Success, result.Error)
			}
			if tt.wantError != "" && !strings.Contains(result.Error, tt.wantError) {
				t.Errorf("Expected error containing %q, got %q", tt.wantError, result.Error)
			}
			if tt.wantKind != "" && result.Metadata["error_kind"] != tt.wantKind {
				t.Errorf("Expected error kind %q, got %v", tt.wantKind, result.Metadata["error_kind"])
			}
		})
	}

	if ok.lastParams == nil {
		t.Error("Expected non-nil params to be passed to the tool")
	}
}

func TestPingTool(t *testing.T) {
	now := time.Date(2025, time.January, 2, 3, 4, 5, 0, time.Local)
	tool := NewPingTool(func() time.Time { return now })

	result, err := tool.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("ping failed: %v", err)
	}
	pong, ok := result.Data.(Pong)
	if !ok {
		t.Fatalf("Expected Pong, got %T", result.Data)
	}
	if pong.OK != "pong" || pong.TOD != "2025-01-02 03:04:05" {
		t.Errorf("Unexpected pong: %+v", pong)
	}

	if _, err := tool.Execute(context.Background(), map[string]interface{}{"extra": 1}); err == nil {
		t.Error("Expected validation error for unexpected parameter")
	}
}

func TestReflectSchemaEmptyParams(t *testing.T) {
	for name, schema := range map[string]func() (map[string]interface{}, error){
		"named":     ReflectSchema[PingParams],
		"anonymous": ReflectSchema[struct{}],
	} {
		got, err := schema()
		if err != nil {
			t.Fatalf("%s: ReflectSchema failed: %v", name, err)
		}
		if got["type"] != "object" {
			t.Errorf("%s: expected object schema, got %v", name, got["type"])
		}
		if props, ok := got["properties"].(map[string]interface{}); !ok || len(props) != 0 {
			t.Errorf("%s: expected empty properties, got %v", name, got["properties"])
		}
		if got["additionalProperties"] != false {
			t.Errorf("%s: expected additionalProperties false, got %v", name, got["additionalProperties"])
		}
	}
}

func TestDefaultRegistry(t *testing.T) {
	registry, err := Default(NewMarketData(), NewRetriever(nil, nil, nil), &stubCompleter{})
	if err != nil {
		t.Fatalf("Default registry failed: %v", err)
	}
	want := []string{
		"calculator",
		"generate_stock_report",
		"get_earnings",
		"get_price_history",
		"get_stock_price",
		"ping",
		"query_economic_indicators_kb",
		"query_monetary_policy_kb",
		"query_policy_decisions_kb",
		"query_regulatory_changes_kb",
		"retrieve",
		"use_llm",
	}
	got := registry.List()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Expected tools %v, got %v", want, got)
	}

	result := registry.Execute(context.Background(), ToolCall{ToolName: "ping"})
	if !result.Success {
		t.Errorf("Expected ping to succeed through the registry, got %q", result.Error)
	}
}

func TestDefaultRegistryWithoutModel(t *testing.T) {
	registry, err := Default(NewMarketData(), NewRetriever(nil, nil, nil), nil)
	if err != nil {
		t.Fatalf("Default registry failed: %v", err)
	}
	if _, ok := registry.Get("use_llm"); ok {
		t.Error("Expected use_llm to be absent without a model")
	}
	if _, ok := registry.Get("retrieve"); !ok {
		t.Error("Expected retrieve to be registered")
	}
}
