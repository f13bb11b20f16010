package kafka

import (
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func TestOutboxPublisher_Publish(t *testing.T) {
	t.Parallel()

	mockProducer := mocks.NewSyncProducer(t, nil)
	payload := `{"id":"journal-1","domain":"cart","type":"FETCH_CART_START","action":{"type":"FETCH_CART_START"}}`
	mockProducer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if string(val) != payload {
			t.Errorf("payload should be forwarded unchanged, got %s", val)
		}
		return nil
	})

	publisher := NewOutboxPublisher(NewProducerFromSync(mockProducer), "")

	err := publisher.Publish(domain.OutboxMessage{
		ID:        "journal-1",
		Key:       "cart",
		EventType: "FETCH_CART_START",
		Payload:   []byte(payload),
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOutboxPublisher_PublishProducerError(t *testing.T) {
	t.Parallel()

	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	publisher := NewOutboxPublisher(NewProducerFromSync(mockProducer), TopicActions)

	err := publisher.Publish(domain.OutboxMessage{ID: "journal-2", Payload: []byte(`{}`)})
	if err == nil {
		t.Fatal("expected publish error, got nil")
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOutboxPublisher_PublishNilProducer(t *testing.T) {
	t.Parallel()

	publisher := NewOutboxPublisher(nil, TopicActions)
	if err := publisher.Publish(domain.OutboxMessage{ID: "journal-3"}); err == nil {
		t.Fatal("expected error for nil producer")
	}
}
