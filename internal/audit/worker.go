package audit

import (
	"context"
	"log/slog"
)

// Worker drains audit events from a channel into a sink so emitting from the
// request path never blocks on the sink's latency.
type Worker struct {
	sink   Appender
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(sink Appender, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

// Run consumes until the context is cancelled. Sink failures are logged and
// the event dropped; the verification path must not stall on the audit trail.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit append failed",
					"action", event.Action,
					"error", err,
				)
			}
		}
	}
}

// ChannelAppender adapts a channel to the Appender interface for use with
// Worker. A full inbox drops the event rather than blocking the caller.
type ChannelAppender struct {
	inbox chan<- Event
}

func NewChannelAppender(inbox chan<- Event) *ChannelAppender {
	return &ChannelAppender{inbox: inbox}
}

func (a *ChannelAppender) Append(ctx context.Context, event Event) error {
	select {
	case a.inbox <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
