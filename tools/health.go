package tools

import (
	"context"
	"time"

	"github.com/scttfrdmn/econflux/econflux-go/adapter/llm"
	"github.com/scttfrdmn/econflux/econflux-go/econflux"
)

// PingParams is the empty input of the ping tool.
type PingParams struct{}

// Pong is the liveness reply.
type Pong struct {
	OK  string `json:"ok"`
	TOD string `json:"tod"`
}

// NewPingTool returns the ping tool. now defaults to time.Now and is read
// in the host's local time zone.
func NewPingTool(now func() time.Time) econflux.Tool {
	if now == nil {
		now = time.Now
	}
	return MustFunctionTool("ping",
		"Return a simple liveness check with the current server time. "+
			"Use to confirm the agent runtime responds; it does not check dependencies.",
		func(context.Context, PingParams) (Pong, error) {
			return Pong{OK: "pong", TOD: now().Local().Format(time.DateTime)}, nil
		})
}

// Default builds the registry served by the agent: the mock market tools,
// one query tool per knowledge base, generic retrieve, the calculator and
// ping. use_llm is added when model is not nil; opts apply to its calls.
func Default(market *MarketData, retriever *Retriever, model Completer, opts ...llm.CallOption) (*ToolRegistry, error) {
	registry := NewToolRegistry()
	if err := registry.Register(market.Tools()...); err != nil {
		return nil, err
	}
	if err := registry.Register(retriever.Tools()...); err != nil {
		return nil, err
	}
	if err := registry.Register(retriever.RetrieveTool()); err != nil {
		return nil, err
	}
	if model != nil {
		if err := registry.Register(NewUseLLMTool(model, opts...)); err != nil {
			return nil, err
		}
	}
	if err := registry.Register(NewCalculatorTool(), NewPingTool(nil)); err != nil {
		return nil, err
	}
	return registry, nil
}
