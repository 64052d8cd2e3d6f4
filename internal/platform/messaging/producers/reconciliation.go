package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/kkariyawasam/ledger-engine/internal/config"
)

// ReconciliationProducer surfaces transactions stuck in PENDING to the
// reconciliation topic for operator attention. Writes are synchronous with
// full acks: losing one of these messages defeats the point.
type ReconciliationProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

// NewReconciliationProducer creates the producer and ensures the topic
// exists. Returns a nil producer if no reconciliation topic is configured.
func NewReconciliationProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*ReconciliationProducer, error) {
	if cfg.ReconciliationTopic == "" {
		logger.Info("Reconciliation topic is not configured, producer disabled")
		return nil, nil
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for reconciliation producer: %w", err)
	}
	defer conn.Close()

	if err := ensureTopic(conn, cfg.ReconciliationTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure reconciliation topic %s exists: %w", cfg.ReconciliationTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.ReconciliationTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
	}

	return &ReconciliationProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.ReconciliationTopic,
	}, nil
}

func (p *ReconciliationProducer) Publish(ctx context.Context, key string, value interface{}) error {
	if p == nil || p.writer == nil {
		return fmt.Errorf("reconciliation producer not initialized")
	}

	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal reconciliation message: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish reconciliation message",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish reconciliation message to %s: %w", p.topic, err)
	}

	p.logger.Info("Published reconciliation message",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *ReconciliationProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	p.logger.Info("Closing reconciliation producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
