// Package notify implements the TransitionNotifier towards the external
// alert/reprice collaborator.
package notify

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/urbanyield/riskengine/internal/config"
	"github.com/urbanyield/riskengine/internal/domain/models"
	"github.com/urbanyield/riskengine/internal/domain/service"
	"github.com/urbanyield/riskengine/pkg/logger"
)

// messageWriter abstracts kafka.Writer for tests.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes grade transition events to a Kafka topic, keyed by
// property id so one property's transitions stay ordered.
type KafkaNotifier struct {
	writer messageWriter
	log    logger.Logger
}

// NewKafkaNotifier creates the notifier from config.
func NewKafkaNotifier(cfg config.KafkaConfig, log logger.Logger) *KafkaNotifier {
	writer := &kafka.Writer{
		Addr:      kafka.TCP(cfg.Brokers...),
		Topic:     cfg.TransitionTopic,
		Balancer:  &kafka.LeastBytes{},
		BatchSize: cfg.BatchSize,
	}
	return &KafkaNotifier{writer: writer, log: log.WithComponent("KafkaNotifier")}
}

// NewKafkaNotifierWithWriter wraps an existing writer. Used in tests.
func NewKafkaNotifierWithWriter(writer messageWriter, log logger.Logger) *KafkaNotifier {
	return &KafkaNotifier{writer: writer, log: log.WithComponent("KafkaNotifier")}
}

var _ service.TransitionNotifier = (*KafkaNotifier)(nil)

func (n *KafkaNotifier) PublishTransition(ctx context.Context, event models.GradeTransitionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		n.log.Error(ctx, "failed to marshal transition event", err)
		return err
	}
	err = n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.PropertyID),
		Value: payload,
	})
	if err != nil {
		n.log.Error(ctx, "failed to publish transition event", err, logger.Fields{
			"property_id": event.PropertyID,
		})
	}
	return err
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
