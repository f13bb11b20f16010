package kafka

import (
	"context"
	"sync"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/state"
)

const defaultDedupWindow = 4096

// Dispatcher применяет действие к store.
type Dispatcher interface {
	Dispatch(action state.Action) state.RootState
}

// Replayer читает журнал действий и применяет его к store реплики.
// Повторно доставленные записи (at-least-once) отбрасываются по ID в пределах окна.
type Replayer struct {
	dispatcher Dispatcher
	logger     *log.Entry

	mu     sync.Mutex
	seen   map[string]struct{}
	window []string
	next   int
}

// NewReplayer создаёт обработчик журнала для реплики.
func NewReplayer(dispatcher Dispatcher, logger *log.Entry) *Replayer {
	if logger == nil {
		logger = log.WithField("component", "action-replayer")
	}
	return &Replayer{
		dispatcher: dispatcher,
		logger:     logger,
		seen:       make(map[string]struct{}, defaultDedupWindow),
		window:     make([]string, defaultDedupWindow),
	}
}

// Handle реализует MessageHandler. Некорректная запись возвращает ошибку и уходит в DLQ.
func (r *Replayer) Handle(_ context.Context, message *sarama.ConsumerMessage) error {
	event, err := ParseActionEvent(message)
	if err != nil {
		return err
	}
	action, err := event.DecodeAction()
	if err != nil {
		return err
	}

	if !r.remember(event.ID) {
		r.logger.WithField("event_id", event.ID).Debug("duplicate journal record skipped")
		return nil
	}

	r.dispatcher.Dispatch(action)
	return nil
}

// remember возвращает false, если ID уже встречался в окне.
func (r *Replayer) remember(id string) bool {
	if id == "" {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.seen[id]; dup {
		return false
	}
	if evicted := r.window[r.next]; evicted != "" {
		delete(r.seen, evicted)
	}
	r.window[r.next] = id
	r.seen[id] = struct{}{}
	r.next = (r.next + 1) % len(r.window)
	return true
}
