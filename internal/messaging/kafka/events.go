package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/storefront/internal/state"
)

// Topics для Kafka
const (
	TopicActions         = "storefront.actions"
	TopicDeadLetterQueue = "storefront.dlq" // Dead Letter Queue для необработанных записей журнала
)

// Kafka headers для retry логики
const (
	HeaderRetryCount    = "x-retry-count"
	HeaderOriginalTopic = "x-original-topic"
	HeaderErrorMessage  = "x-error-message"
	HeaderFailedAt      = "x-failed-at"
	HeaderEventType     = "x-event-type"
)

// ActionEvent — запись журнала действий: одно действие, применённое к store.
type ActionEvent struct {
	ID        string           `json:"id"`
	Domain    state.Domain     `json:"domain"`
	Type      state.ActionType `json:"type"`
	Action    json.RawMessage  `json:"action"`
	Timestamp time.Time        `json:"timestamp"`
}

// NewActionEvent кодирует действие в запись журнала.
func NewActionEvent(action state.Action, at time.Time) (*ActionEvent, error) {
	encoded, err := state.EncodeAction(action)
	if err != nil {
		return nil, err
	}
	if at.IsZero() {
		at = time.Now()
	}

	return &ActionEvent{
		ID:        uuid.NewString(),
		Domain:    action.Domain(),
		Type:      action.Type(),
		Action:    encoded,
		Timestamp: at.UTC(),
	}, nil
}

// Key возвращает ключ партиционирования: все действия домена попадают в одну partition.
func (e *ActionEvent) Key() string {
	if e.Domain == "" {
		return "unknown"
	}
	return string(e.Domain)
}

// DecodeAction восстанавливает действие из записи.
func (e *ActionEvent) DecodeAction() (state.Action, error) {
	action, err := state.DecodeAction(e.Action)
	if err != nil {
		return nil, fmt.Errorf("decode action of event %s: %w", e.ID, err)
	}
	return action, nil
}

// ParseActionEvent парсит ActionEvent из сообщения
func ParseActionEvent(message *sarama.ConsumerMessage) (*ActionEvent, error) {
	var event ActionEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal action event: %w", err)
	}
	if len(event.Action) == 0 {
		return nil, fmt.Errorf("action event %s has no action", event.ID)
	}
	return &event, nil
}
