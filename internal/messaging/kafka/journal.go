package kafka

import (
	"encoding/json"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/state"
	"github.com/vladislavdragonenkov/storefront/internal/store"
)

// Journal наблюдает за store и ставит каждое применённое действие в outbox журнала.
// Отправку в Kafka выполняет outbox worker, ошибки журнала не влияют на dispatch.
//
// NewJournal пишет в outbox прямо из ObserveDispatch, то есть под блокировкой store:
// так можно только с outbox в памяти. Для outbox с сетевым хранилищем (postgres)
// нужен NewAsyncJournal.
type Journal struct {
	outbox domain.OutboxRepository
	logger *log.Entry

	queue     chan domain.OutboxMessage
	done      chan struct{}
	closeOnce sync.Once
}

// NewJournal создаёт синхронный журнал действий поверх outbox.
func NewJournal(outbox domain.OutboxRepository, logger *log.Entry) *Journal {
	if logger == nil {
		logger = log.WithField("component", "action-journal")
	}
	return &Journal{outbox: outbox, logger: logger}
}

// NewAsyncJournal создаёт журнал, который кодирует запись под блокировкой store, а в outbox
// пишет из отдельной горутины в порядке dispatch. Dispatch ждёт только при заполненном буфере.
// Close дописывает очередь и останавливает горутину.
func NewAsyncJournal(outbox domain.OutboxRepository, logger *log.Entry, buffer int) *Journal {
	j := NewJournal(outbox, logger)
	if outbox == nil {
		return j
	}
	if buffer <= 0 {
		buffer = 1
	}
	j.queue = make(chan domain.OutboxMessage, buffer)
	j.done = make(chan struct{})

	go func() {
		defer close(j.done)
		for msg := range j.queue {
			j.enqueue(msg)
		}
	}()
	return j
}

// ObserveDispatch реализует store.Observer.
func (j *Journal) ObserveDispatch(event store.Event) {
	if j == nil || j.outbox == nil {
		return
	}

	record, err := NewActionEvent(event.Action, event.At)
	if err != nil {
		j.entry(event.Action.Domain(), event.Action.Type()).WithError(err).Error("failed to encode action for journal")
		return
	}
	payload, err := json.Marshal(record)
	if err != nil {
		j.entry(record.Domain, record.Type).WithError(err).Error("failed to marshal journal record")
		return
	}

	msg := domain.OutboxMessage{
		ID:        record.ID,
		Key:       record.Key(),
		EventType: string(record.Type),
		Payload:   payload,
	}
	if j.queue != nil {
		j.queue <- msg
		return
	}
	j.enqueue(msg)
}

// Close дожидается записи всех действий, поставленных в очередь. После Close
// асинхронный журнал нельзя использовать; для синхронного журнала это no-op.
func (j *Journal) Close() {
	if j == nil || j.queue == nil {
		return
	}
	j.closeOnce.Do(func() { close(j.queue) })
	<-j.done
}

func (j *Journal) enqueue(msg domain.OutboxMessage) {
	if _, err := j.outbox.Enqueue(msg); err != nil {
		j.logger.WithError(err).WithFields(log.Fields{
			"journal_id": msg.ID,
			"key":        msg.Key,
			"type":       msg.EventType,
		}).Error("failed to enqueue journal record")
	}
}

func (j *Journal) entry(d state.Domain, t state.ActionType) *log.Entry {
	return j.logger.WithFields(log.Fields{"domain": d, "type": t})
}

var _ store.Observer = (*Journal)(nil)
