// Package command holds the write side of the user and account services.
// Every operation is a sequence of single-document store writes; cross-document
// consistency is kept by ordering those writes and compensating on failure.
package command

import (
	"context"
	"errors"
	"log/slog"

	"github.com/eaglebank/bank-api/internal/repository"
	"github.com/eaglebank/bank-api/shared/errs"
	"github.com/eaglebank/bank-api/shared/events"
)

// lookupError maps a store read failure onto an error kind.
func lookupError(err error, notFound string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return errs.NotFound(notFound)
	}
	return errs.Store("Server error", err)
}

// publish emits an event after a committed write. Failures are logged and dropped.
func publish(ctx context.Context, emitter events.Emitter, stream, eventType string, data any) {
	if err := emitter.Publish(ctx, stream, eventType, data); err != nil {
		slog.Warn("failed to publish event", "type", eventType, "error", err)
	}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
