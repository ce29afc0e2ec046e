package consumer

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/campbook/service-booking/internal/application"
	"github.com/campbook/service-booking/internal/events"
	"github.com/campbook/service-booking/internal/kafka"
)

// OccasionEventConsumer listens to activity events and cancels bookings on
// withdrawn occasions.
type OccasionEventConsumer struct {
	consumer *kafka.Consumer
	service  *application.BookingService
	logger   *zap.Logger
}

// NewOccasionEventConsumer creates a new OccasionEventConsumer.
func NewOccasionEventConsumer(
	brokers []string,
	groupID string,
	service *application.BookingService,
	logger *zap.Logger,
) *OccasionEventConsumer {
	c := kafka.NewConsumer(brokers, groupID, events.TopicActivityEvents, logger)
	return &OccasionEventConsumer{
		consumer: c,
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming activity events. This blocks until the context is
// cancelled.
func (c *OccasionEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *OccasionEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *OccasionEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	var cloudEvent kafka.CloudEvent
	if err := json.Unmarshal(msg.Value, &cloudEvent); err != nil {
		c.logger.Error("failed to parse cloud event from activity topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case events.OccasionWithdrawn:
		return c.handleOccasionWithdrawn(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled activity event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *OccasionEventConsumer) handleOccasionWithdrawn(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt events.OccasionWithdrawnEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse OccasionWithdrawnEvent data",
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	c.logger.Info("processing occasion withdrawn event",
		zap.String("occasion_id", evt.OccasionID.String()),
	)

	if err := c.service.CancelOccasionBookings(ctx, evt.OccasionID, evt.Reason); err != nil {
		c.logger.Error("failed to cancel bookings for withdrawn occasion",
			zap.String("occasion_id", evt.OccasionID.String()),
			zap.Error(err),
		)
		return err
	}

	return nil
}
