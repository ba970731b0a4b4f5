package audit

import (
	"context"
	"time"
)

// Appender is the minimal sink contract: memory store, Kafka sink, and the
// async channel adapter all satisfy it.
type Appender interface {
	Append(ctx context.Context, event Event) error
}

// Store extends Appender with the read side used by admin tooling and tests.
type Store interface {
	Appender
	ListByUser(ctx context.Context, userID string) ([]Event, error)
}

// Publisher captures structured audit events. It is append-only; the sink
// decides durability.
type Publisher struct {
	sink Appender
}

func NewPublisher(sink Appender) *Publisher {
	return &Publisher{sink: sink}
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return p.sink.Append(ctx, event)
}
