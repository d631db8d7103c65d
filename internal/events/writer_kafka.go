package events

import (
	"context"
	"encoding/json"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	kafka "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaWriter publishes the events as structured cloudevents JSON, keyed by event id.
type KafkaWriter struct {
	writer *kafka.Writer
}

func NewKafkaWriter(brokers []string) *KafkaWriter {
	return &KafkaWriter{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.LeastBytes{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
	}
}

func (k *KafkaWriter) Write(ctx context.Context, topic string, e cloudevents.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	return k.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(e.ID()),
		Value: data,
		Time:  e.Time(),
	})
}

func (k *KafkaWriter) Close(_ context.Context) error {
	if err := k.writer.Close(); err != nil {
		return err
	}
	zap.S().Named("kafka_writer").Debug("kafka writer closed")
	return nil
}
