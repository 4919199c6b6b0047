// Package kafka publishes appended daily records to a Kafka topic so other
// services can follow a user's footprint history.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/carbon-food-print/internal/config"
	"github.com/couchcryptid/carbon-food-print/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// RecordEvent is the payload written for every appended daily record.
type RecordEvent struct {
	RunID  string             `json:"run_id"`
	Record domain.DailyRecord `json:"record"`
}

// Publisher produces RecordEvents to the configured records topic.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the records topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaRecordsTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish writes one record event. Records of the same day share a key and
// therefore a partition.
func (p *Publisher) Publish(ctx context.Context, runID string, rec domain.DailyRecord) error {
	msg, err := serializeToMessage(runID, rec)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish record: %w", err)
	}
	p.logger.Debug("record published", "run_id", runID, "topic", p.writer.Topic)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func serializeToMessage(runID string, rec domain.DailyRecord) (kafkago.Message, error) {
	data, err := json.Marshal(RecordEvent{RunID: runID, Record: rec})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize record event: %w", err)
	}
	date := rec.Date.Format(domain.DateLayout)
	return kafkago.Message{
		Key:   []byte(date),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(runID)},
			{Key: "record_date", Value: []byte(date)},
		},
	}, nil
}
