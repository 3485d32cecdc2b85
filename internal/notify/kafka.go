package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// KafkaNotifier publishes notifications as JSON to a Kafka topic
type KafkaNotifier struct {
	writer *kafkago.Writer
}

// NewKafkaNotifier creates a producer for topic
func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &KafkaNotifier{writer: w}
}

// Notify implements Notifier
func (k *KafkaNotifier) Notify(ctx context.Context, n Notification) error {
	msg, err := toMessage(n)
	if err != nil {
		return err
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish notification %s: %w", n.Key, err)
	}
	return nil
}

// Close flushes pending messages and closes the writer
func (k *KafkaNotifier) Close() error {
	return k.writer.Close()
}

func toMessage(n Notification) (kafkago.Message, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize notification: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(n.Key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "notification_id", Value: []byte(n.ID)},
			{Key: "severity", Value: []byte(n.Severity)},
			{Key: "sent_at", Value: []byte(n.SentAt.Format(time.RFC3339))},
		},
	}, nil
}
