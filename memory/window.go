package memory

import (
	"context"
	"slices"

	"github.com/scttfrdmn/econflux/econflux-go/econflux"
)

// Window returns the most recent user and assistant messages of a session in
// chronological order, at most windowSize of them. The window never starts
// with an assistant message, since a model conversation must open with the
// user.
func Window(ctx context.Context, mem Memory, sessionID string, windowSize int) ([]*econflux.Message, error) {
	if mem == nil || sessionID == "" {
		return nil, nil
	}

	recent, err := mem.Retrieve(ctx, sessionID, RetrieveOptions{
		Limit: windowSize,
		Roles: []string{"user", "assistant"},
	})
	if err != nil {
		return nil, err
	}

	slices.Reverse(recent)
	for len(recent) > 0 && recent[0].Role != "user" {
		recent = recent[1:]
	}
	return recent, nil
}
