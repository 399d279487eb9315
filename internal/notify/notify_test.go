package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogNotifier(t *testing.T) {
	log, hook := test.NewNullLogger()
	n := &LogNotifier{Log: log}

	require.NoError(t, n.Notify(context.Background(), "admin@example.com", "New order", "body"))
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
	assert.Equal(t, "admin@example.com", hook.LastEntry().Data["recipient"])
}

func TestKafkaNotifier_PublishesJSON(t *testing.T) {
	log, _ := test.NewNullLogger()
	producer := mocks.NewSyncProducer(t, sarama.NewConfig())
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var msg Message
		if err := json.Unmarshal(val, &msg); err != nil {
			return err
		}
		if msg.Recipient != "sara@example.com" || msg.Subject != "Order ORD-1-0001" || msg.ID == "" {
			return errors.New("unexpected message")
		}
		return nil
	})

	n := NewKafkaNotifier(producer, "storefront.notifications", log)
	require.NoError(t, n.Notify(context.Background(), "sara@example.com", "Order ORD-1-0001", "thanks"))
	require.NoError(t, n.Close())
}

func TestKafkaNotifier_SendFailure(t *testing.T) {
	log, _ := test.NewNullLogger()
	producer := mocks.NewSyncProducer(t, sarama.NewConfig())
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	n := NewKafkaNotifier(producer, "storefront.notifications", log)
	err := n.Notify(context.Background(), "sara@example.com", "s", "b")
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, n.Close())
}

func TestKafkaNotifier_CancelledContext(t *testing.T) {
	log, _ := test.NewNullLogger()
	producer := mocks.NewSyncProducer(t, sarama.NewConfig())
	n := NewKafkaNotifier(producer, "t", log)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, n.Notify(ctx, "a@b.c", "s", "b"), context.Canceled)
	require.NoError(t, n.Close())
}
