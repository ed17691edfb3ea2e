package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/tienda-escolar/shop-service/internal/config"
	"github.com/tienda-escolar/shop-service/internal/logging"
)

// PaymentEventType represents the type of provider payment event.
type PaymentEventType string

const (
	PaymentEventApproved PaymentEventType = "payment.approved"
	PaymentEventRejected PaymentEventType = "payment.rejected"
)

// PaymentEvent is a provider payment notification delivered over Kafka
// instead of the HTTP webhook. Both paths converge on the same
// confirmation logic.
type PaymentEvent struct {
	ID                string           `json:"id"`
	Type              PaymentEventType `json:"type"`
	ProviderPaymentID string           `json:"providerPaymentId"`
	Timestamp         time.Time        `json:"timestamp"`
}

// PaymentConfirmer handles a provider payment notification idempotently.
type PaymentConfirmer interface {
	ConfirmFromProvider(ctx context.Context, providerPaymentID string) error
}

// KafkaConsumer consumes provider payment events.
type KafkaConsumer struct {
	reader    *kafka.Reader
	confirmer PaymentConfirmer
	logger    *logging.Logger
	stopCh    chan struct{}
}

// NewKafkaConsumer creates a new Kafka-based payment event consumer.
func NewKafkaConsumer(cfg config.KafkaConfig, confirmer PaymentConfirmer, logger *logging.Logger) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.PaymentsTopic,
		GroupID:  cfg.ConsumerGroup,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})

	return &KafkaConsumer{
		reader:    reader,
		confirmer: confirmer,
		logger:    logger,
		stopCh:    make(chan struct{}),
	}
}

// Start begins consuming events. It returns when the context is done or
// Stop is called.
func (c *KafkaConsumer) Start(ctx context.Context) error {
	c.logger.Info("Starting payment event consumer", nil)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopCh:
			c.logger.Info("Payment event consumer stopped", nil)
			return nil
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.logger.Error("Failed to read message", logging.Fields{"error": err.Error()})
				continue
			}
			c.handleMessage(ctx, msg)
		}
	}
}

// Stop stops the consumer.
func (c *KafkaConsumer) Stop() {
	close(c.stopCh)
	c.reader.Close()
}

func (c *KafkaConsumer) handleMessage(ctx context.Context, msg kafka.Message) {
	var event PaymentEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.logger.Error("Failed to unmarshal payment event", logging.Fields{"error": err.Error()})
		return
	}

	switch event.Type {
	case PaymentEventApproved:
		if err := c.confirmer.ConfirmFromProvider(ctx, event.ProviderPaymentID); err != nil {
			// Same policy as the webhook: the confirmer swallows
			// transient provider failures, so an error here means
			// something genuinely broken worth surfacing.
			c.logger.Error("Failed to confirm payment from event", logging.Fields{
				"provider_payment_id": event.ProviderPaymentID,
				"error":               err.Error(),
			})
		}
	case PaymentEventRejected:
		c.logger.Info("Payment rejected by provider", logging.Fields{
			"provider_payment_id": event.ProviderPaymentID,
		})
	default:
		c.logger.Debug("Ignoring unknown payment event type", logging.Fields{"type": event.Type})
	}
}
