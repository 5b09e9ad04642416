package emitters

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"dash-monitor/internal/interfaces"
	"dash-monitor/internal/models"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// KafkaEmitter publishes alert events to Kafka, keyed by transaction hash
type KafkaEmitter struct {
	writer *kafka.Writer
	logger *zerolog.Logger
	mu     sync.Mutex
}

var _ interfaces.EventEmitter = (*KafkaEmitter)(nil)

// NewKafkaEmitter creates a new KafkaEmitter
func NewKafkaEmitter(brokerAddress, topic string, logger *zerolog.Logger) *KafkaEmitter {
	return &KafkaEmitter{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokerAddress),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
		logger: logger,
	}
}

func (k *KafkaEmitter) EmitEvent(ctx context.Context, event models.AlertEvent) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %v", err)
	}

	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.TxID),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("failed to write message to Kafka: %v", err)
	}

	k.logger.Info().
		Str("txHash", event.TxID).
		Str("address", event.Address).
		Msg("Successfully emitted event to Kafka")
	return nil
}

func (k *KafkaEmitter) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.writer != nil {
		err := k.writer.Close()
		k.writer = nil
		return err
	}
	return nil
}
