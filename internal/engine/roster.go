package engine

import (
	"context"
	"fmt"
)

// RosterProvider supplies a user's canonical course names and course
// aliases.
type RosterProvider interface {
	Roster(ctx context.Context) ([]string, map[string]string, error)
}

// RosterFunc adapts a function to RosterProvider.
type RosterFunc func(ctx context.Context) ([]string, map[string]string, error)

// Roster implements RosterProvider.
func (f RosterFunc) Roster(ctx context.Context) ([]string, map[string]string, error) {
	return f(ctx)
}

const refreshKey = "roster"

// Refresh loads the roster from p and swaps it in. Concurrent refreshes
// share one load. On error the current roster stays in place.
func (e *Engine) Refresh(ctx context.Context, p RosterProvider) error {
	_, err, shared := e.group.Do(refreshKey, func() (any, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		names, aliases, err := p.Roster(ctx)
		if err != nil {
			return nil, fmt.Errorf("load roster: %w", err)
		}
		e.SetRoster(names, aliases)
		return nil, nil
	})
	if shared {
		e.metrics.RecordSingleflightDedup("roster_refresh")
	}
	return err
}
