// Package events wraps lifecycle events in the versioned envelope and delivers them to a
// Sink through the dispatch queue.
package events

import (
	"context"
	"time"

	"commerce-service/internal/dispatch"
	"commerce-service/internal/domain"
	"commerce-service/internal/observability"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sink stores or forwards one event. Implementations must be safe for concurrent use.
type Sink interface {
	Write(ctx context.Context, evt domain.Event) error
}

type Enqueuer interface {
	Enqueue(job dispatch.Job) error
}

type Publisher struct {
	sink   Sink
	queue  Enqueuer
	origin string
	log    *zap.Logger
	now    func() time.Time
	newID  func() string
}

func NewPublisher(sink Sink, queue Enqueuer, origin string, log *zap.Logger) *Publisher {
	return &Publisher{
		sink:   sink,
		queue:  queue,
		origin: origin,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// Publish returns as soon as the event is queued. An error means the event was not accepted;
// delivery failures after that point are only logged and counted.
func (p *Publisher) Publish(_ context.Context, name string, payload any) error {
	evt := domain.Event{
		ID:        p.newID(),
		Name:      name,
		Version:   domain.EventVersion,
		Timestamp: p.now(),
		Origin:    p.origin,
		Payload:   payload,
	}
	err := p.queue.Enqueue(dispatch.Job{
		Name: "event:" + name,
		Run: func(ctx context.Context) error {
			if err := p.sink.Write(ctx, evt); err != nil {
				observability.RecordEvent("retry")
				return err
			}
			observability.RecordEvent("ok")
			return nil
		},
		OnFailure: func(err error) {
			observability.RecordEvent("dropped")
			p.log.Error("event dropped", zap.String("event", name), zap.String("event_id", evt.ID), zap.Error(err))
		},
	})
	if err != nil {
		observability.RecordEvent("rejected")
		p.log.Warn("event not queued", zap.String("event", name), zap.Error(err))
		return err
	}
	return nil
}

// LogSink writes events to the structured log. It is the default when no broker is configured.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Write(_ context.Context, evt domain.Event) error {
	s.log.Info("event",
		zap.String("event_id", evt.ID),
		zap.String("event", evt.Name),
		zap.String("version", evt.Version),
		zap.String("origin", evt.Origin),
		zap.Time("timestamp", evt.Timestamp),
		zap.Any("payload", evt.Payload),
	)
	return nil
}
