package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stockinsights/sp500-collector/internal/models"
)

// Producer publishes collection events to Kafka
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
	}
}

// PublishMetricsUpdated publishes an event after a company's daily record
// commits, so downstream consumers (alerting, screeners) can react without
// polling the store.
func (p *Producer) PublishMetricsUpdated(ctx context.Context, m *models.DailyMetrics) error {
	event := models.MetricsEvent{
		EventType:          "METRICS_UPDATED",
		Symbol:             m.Symbol,
		Date:               m.Date.Format("2006-01-02"),
		ClosePrice:         m.ClosePrice,
		DailyChangePercent: m.DailyChangePercent,
		Timestamp:          time.Now(),
	}
	return p.publish(ctx, m.Symbol, event)
}

func (p *Producer) publish(ctx context.Context, key string, event models.MetricsEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
