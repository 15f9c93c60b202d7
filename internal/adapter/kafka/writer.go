// Package kafka publishes prediction reports to the live feed topic
// consumed by the dashboard.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/aquasight/groundwater-prediction-service/internal/config"
	"github.com/aquasight/groundwater-prediction-service/internal/domain"
)

// Writer produces feed records to the configured Kafka topic.
// It implements feed.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the live feed topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaFeedTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishBatch serializes and publishes one feed cycle's records in a
// single WriteMessages call.
func (w *Writer) PublishBatch(ctx context.Context, records []domain.FeedRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(records[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a feed record into a Kafka message keyed by
// station id, so per-station ordering is preserved within a partition.
func serializeToMessage(record domain.FeedRecord) (kafkago.Message, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize feed record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(record.StationID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "station_id", Value: []byte(record.StationID)},
			{Key: "generated_at", Value: []byte(record.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
