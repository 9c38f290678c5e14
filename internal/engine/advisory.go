package engine

import (
	"context"

	"github.com/fraim-ai/fraim-toolkit/internal/config"
	"github.com/fraim-ai/fraim-toolkit/internal/errors"
	"github.com/fraim-ai/fraim-toolkit/internal/event"
)

// advise runs fn within the advisory budget. A failure or timeout is logged,
// published as an AdvisoryDegradedEvent and returned as a message for the
// caller's result; it never fails the surrounding operation.
func (e *Engine) advise(ctx context.Context, op string, fn func(ctx context.Context) error) string {
	budget := e.cfg.Advisory.Timeout
	if budget <= 0 {
		budget = config.Default().Advisory.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- errors.Wrapf(errors.ErrInvalidInput, "%s panicked: %v", op, r)
			}
		}()
		done <- fn(ctx)
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = errors.NewTimeoutError(op, budget).WithCause(ctx.Err())
	}
	if err == nil {
		return ""
	}

	e.logger.Warn("advisory step degraded", "operation", op, "error", err)
	e.bus.Publish(event.NewAdvisoryDegradedEvent(op, err))
	return op + " skipped: " + err.Error()
}

// regenerate rewrites INDEX.md and HEALTH.md after a mutation when
// health.auto_regenerate is set.
func (e *Engine) regenerate(ctx context.Context) []string {
	if !e.cfg.Health.AutoRegenerate {
		return nil
	}
	var notes []string
	msg := e.advise(ctx, "regenerate", func(ctx context.Context) error {
		st, err := e.Load()
		if err != nil {
			return err
		}
		if _, err := e.writeIndexes(st); err != nil {
			return err
		}
		_, err = e.writeHealth(ctx, st)
		return err
	})
	if msg != "" {
		notes = append(notes, msg)
	}
	return notes
}
