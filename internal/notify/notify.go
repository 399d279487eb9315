// Package notify holds the Notifier implementations. Delivery itself (SMTP,
// templates) belongs to an external mailer that consumes the Kafka topic.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Message is the job published for the mailer.
type Message struct {
	ID        string    `json:"id"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// LogNotifier only logs. Used when no broker is configured.
type LogNotifier struct {
	Log logrus.FieldLogger
}

func (n *LogNotifier) Notify(_ context.Context, recipient, subject, _ string) error {
	n.Log.WithFields(logrus.Fields{"recipient": recipient, "subject": subject}).Info("notification queued (log only)")
	return nil
}

type KafkaNotifier struct {
	producer sarama.SyncProducer
	topic    string
	log      logrus.FieldLogger
}

func NewKafkaProducer(brokers []string) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return producer, nil
}

func NewKafkaNotifier(producer sarama.SyncProducer, topic string, log logrus.FieldLogger) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, topic: topic, log: log}
}

func (n *KafkaNotifier) Notify(ctx context.Context, recipient, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := Message{
		ID:        uuid.NewString(),
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	partition, offset, err := n.producer.SendMessage(&sarama.ProducerMessage{
		Topic: n.topic,
		Key:   sarama.StringEncoder(msg.ID),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	n.log.WithFields(logrus.Fields{
		"topic":     n.topic,
		"partition": partition,
		"offset":    offset,
		"messageId": msg.ID,
	}).Debug("notification published")
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.producer.Close()
}
