// Package middleware provides agent decorators used by the runtime.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/scttfrdmn/econflux/econflux-go/econflux"
)

// DefaultTimeout bounds a single invocation.
const DefaultTimeout = 120 * time.Second

// TimeoutError is returned when a request exceeds the configured timeout.
type TimeoutError struct {
	AgentName string
	Timeout   time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request to agent '%s' timed out after %v", e.AgentName, e.Timeout)
}

// Unwrap lets errors.Is match context.DeadlineExceeded.
func (e *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

// TimeoutDecorator bounds every Process call with a deadline.
//
// The agent runs in its own goroutine so that a call which ignores its
// context still returns to the caller on time.
type TimeoutDecorator struct {
	agent   econflux.Agent
	timeout time.Duration
}

var _ econflux.Agent = (*TimeoutDecorator)(nil)

// NewTimeoutDecorator creates a new timeout decorator. A non-positive
// timeout uses DefaultTimeout.
func NewTimeoutDecorator(agent econflux.Agent, timeout time.Duration) *TimeoutDecorator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &TimeoutDecorator{agent: agent, timeout: timeout}
}

// Name returns the name of the underlying agent.
func (t *TimeoutDecorator) Name() string {
	return t.agent.Name()
}

// Capabilities returns the capabilities of the underlying agent.
func (t *TimeoutDecorator) Capabilities() []string {
	return t.agent.Capabilities()
}

// Process implements econflux.Agent.
func (t *TimeoutDecorator) Process(ctx context.Context, message *econflux.Message) (*econflux.Message, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	type result struct {
		msg *econflux.Message
		err error
	}
	// Buffered so the goroutine can finish after a timeout.
	done := make(chan result, 1)

	go func() {
		msg, err := t.agent.Process(timeoutCtx, message)
		done <- result{msg, err}
	}()

	select {
	case res := <-done:
		if res.err != nil && errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, t.timeoutError()
		}
		return res.msg, res.err
	case <-timeoutCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, t.timeoutError()
	}
}

func (t *TimeoutDecorator) timeoutError() *TimeoutError {
	return &TimeoutError{AgentName: t.Name(), Timeout: t.timeout}
}
