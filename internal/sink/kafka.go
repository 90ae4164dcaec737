package sink

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/segmentio/kafka-go"

	"ratelim/internal/config"
	"ratelim/internal/model"
)

// Kafka publishes each permitted firing to a topic.
type Kafka struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewKafka returns nil when the sink is disabled.
func NewKafka(cfg config.KafkaConfig, logger *slog.Logger) *Kafka {
	if !cfg.Enabled {
		if logger != nil {
			logger.Info("kafka sink disabled")
		}
		return nil
	}
	if logger != nil {
		logger.Info("kafka sink enabled", "brokers", cfg.Brokers, "topic", cfg.Topic)
	}
	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	return &Kafka{writer: writer, logger: logger}
}

func (k *Kafka) Publish(ctx context.Context, f model.Firing) error {
	if k == nil || k.writer == nil {
		return nil
	}
	value, err := json.Marshal(f)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatUint(f.Seq, 10)),
		Value: value,
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		if k.logger != nil {
			k.logger.Warn("kafka publish error", "err", err, "seq", f.Seq)
		}
		return err
	}
	return nil
}

func (k *Kafka) Close() error {
	if k == nil || k.writer == nil {
		return nil
	}
	return k.writer.Close()
}
