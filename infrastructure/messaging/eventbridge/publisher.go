package eventbridge

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"mindweave/application/ports"
	"mindweave/domain/events"
	pkgerrors "mindweave/pkg/errors"
)

// PutEvents accepts at most 10 entries per call
const putEventsLimit = 10

// Publisher sends domain events to an EventBridge bus
type Publisher struct {
	client  *eventbridge.Client
	busName string
	logger  *zap.Logger
}

// NewPublisher creates an EventBridge publisher
func NewPublisher(client *eventbridge.Client, busName string, logger *zap.Logger) ports.EventPublisher {
	return &Publisher{
		client:  client,
		busName: busName,
		logger:  logger,
	}
}

// Publish sends a single event
func (p *Publisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return p.PublishBatch(ctx, []events.DomainEvent{event})
}

// PublishBatch sends events in chunks of the PutEvents limit
func (p *Publisher) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	for start := 0; start < len(batch); start += putEventsLimit {
		end := start + putEventsLimit
		if end > len(batch) {
			end = len(batch)
		}

		entries := make([]types.PutEventsRequestEntry, 0, end-start)
		for _, event := range batch[start:end] {
			detail, err := json.Marshal(event)
			if err != nil {
				p.logger.Warn("failed to marshal domain event",
					zap.String("eventType", event.GetEventType()),
					zap.Error(err),
				)
				continue
			}
			entries = append(entries, types.PutEventsRequestEntry{
				EventBusName: aws.String(p.busName),
				Source:       aws.String(events.SourceMindweave),
				DetailType:   aws.String(event.GetEventType()),
				Detail:       aws.String(string(detail)),
				Time:         aws.Time(event.GetTimestamp()),
			})
		}
		if len(entries) == 0 {
			continue
		}

		result, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{Entries: entries})
		if err != nil {
			return pkgerrors.NewDatabaseError("put events", err)
		}
		if result.FailedEntryCount > 0 {
			p.logger.Warn("some events failed to publish",
				zap.Int32("failedCount", result.FailedEntryCount),
			)
		}
	}
	return nil
}

// NoopPublisher discards events, used when no event bus is configured
type NoopPublisher struct{}

// NewNoopPublisher creates a publisher that drops all events
func NewNoopPublisher() ports.EventPublisher {
	return NoopPublisher{}
}

// Publish implements ports.EventPublisher
func (NoopPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return nil
}

// PublishBatch implements ports.EventPublisher
func (NoopPublisher) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	return nil
}
