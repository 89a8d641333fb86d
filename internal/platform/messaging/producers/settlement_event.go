package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/clinic-finance-ledger/internal/config"
)

// SettledEventProducer publishes "account settled" events to the scheduling
// subsystem. Publishing is best-effort and happens after the financial
// transaction has committed.
type SettledEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// NewSettledEventProducer creates the producer and ensures the topic exists
func NewSettledEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*SettledEventProducer, error) {
	if cfg.SettledTopic == "" {
		return nil, fmt.Errorf("kafka settled topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for settled event producer: %w", err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, cfg.SettledTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure settled topic %s exists: %w", cfg.SettledTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.SettledTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &SettledEventProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.SettledTopic,
	}, nil
}

// Publish writes one event keyed by the monetary account id so settlements
// of the same account stay ordered per partition.
func (p *SettledEventProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal settled event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish settled event", "topic", p.topic, "key", key, "error", err)
		return fmt.Errorf("failed to publish settled event: %w", err)
	}

	return nil
}

// Close shuts down the underlying writer
func (p *SettledEventProducer) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close settled event producer: %w", err)
	}
	return nil
}
