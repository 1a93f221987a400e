package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// DefaultKafkaTopic receives ledger summary messages.
const DefaultKafkaTopic = "squash_ledger_summary"

// MessageWriter is the part of *kafka.Writer the notifier uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var _ MessageWriter = (*kafka.Writer)(nil)

// SummaryEvent is the JSON payload published for each message.
type SummaryEvent struct {
	ID     string    `json:"id"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// KafkaNotifier publishes each message as one event, for bots and bridges
// that consume the topic.
type KafkaNotifier struct {
	writer MessageWriter
	now    func() time.Time
}

var _ Notifier = (*KafkaNotifier)(nil)

// NewKafkaNotifier creates a notifier writing to topic on brokers.
// PRE: brokers is non-empty
// POST: Returns a notifier; connections open lazily on first write
func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	if topic == "" {
		topic = DefaultKafkaTopic
	}
	return NewKafkaNotifierWithWriter(&kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	})
}

// NewKafkaNotifierWithWriter creates a notifier over an existing writer.
func NewKafkaNotifierWithWriter(w MessageWriter) *KafkaNotifier {
	return &KafkaNotifier{writer: w, now: time.Now}
}

// Notify implements Notifier.
func (k *KafkaNotifier) Notify(ctx context.Context, text string) error {
	ev := SummaryEvent{ID: uuid.NewString(), Text: text, SentAt: k.now().UTC()}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("kafka notify: encode: %w", err)
	}
	if err := k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(ev.ID), Value: data}); err != nil {
		return fmt.Errorf("kafka notify: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (k *KafkaNotifier) Close() error {
	return k.writer.Close()
}
