package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alimikegami/nextrans-go/config"
	"github.com/alimikegami/nextrans-go/internal/dto"
	"github.com/segmentio/kafka-go"
)

func CreateKafkaWriter(config *config.Config) *kafka.Writer {
	return &kafka.Writer{
		Addr:  kafka.TCP(config.KafkaConfig.BrokerAddress),
		Topic: config.KafkaConfig.BrokerTopic,
		// Events of one order land on one partition and keep their order.
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Publisher writes payment events keyed by order id.
type Publisher struct {
	writer messageWriter
}

func CreatePublisher(writer *kafka.Writer) *Publisher {
	return &Publisher{writer: writer}
}

func (p *Publisher) Publish(ctx context.Context, key string, msg dto.KafkaMessage) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal Kafka message: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(msg.EventType)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to write %s event: %w", msg.EventType, err)
	}

	return nil
}
