package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// maxFailedKept ограничивает число failed-записей, которые буфер хранит для диагностики.
const maxFailedKept = 256

type outboxStatus string

const (
	outboxStatusPending outboxStatus = "pending"
	outboxStatusSent    outboxStatus = "sent"
	outboxStatusFailed  outboxStatus = "failed"
)

// outboxRecord хранит запись журнала и служебные поля для in-memory реализации.
type outboxRecord struct {
	msg       domain.OutboxMessage
	status    outboxStatus
	createdAt time.Time
}

// outboxRepositoryInMemory — FIFO-буфер журнала действий.
// В очереди живут только pending-записи; последние failed лежат отдельно, не больше failedCap.
type outboxRepositoryInMemory struct {
	mu        sync.RWMutex
	order     []string
	records   map[string]*outboxRecord
	failed    []domain.OutboxMessage
	failedCap int
}

// NewOutboxRepository создаёт in-memory буфер журнала.
func NewOutboxRepository() *outboxRepositoryInMemory {
	return &outboxRepositoryInMemory{records: make(map[string]*outboxRecord), failedCap: maxFailedKept}
}

// Enqueue ставит запись в конец очереди со статусом `pending`.
func (r *outboxRepositoryInMemory) Enqueue(msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.Payload = append([]byte(nil), msg.Payload...)

	now := time.Now().UTC()
	if _, exists := r.records[msg.ID]; !exists {
		r.order = append(r.order, msg.ID)
	}
	r.records[msg.ID] = &outboxRecord{
		msg:       msg,
		status:    outboxStatusPending,
		createdAt: now,
	}
	return msg, nil
}

// PullPending возвращает до limit самых старых записей со статусом `pending`.
func (r *outboxRepositoryInMemory) PullPending(limit int) ([]domain.OutboxMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	result := make([]domain.OutboxMessage, 0, min(limit, len(r.order)))
	for _, id := range r.order {
		rec := r.records[id]
		if rec.status != outboxStatusPending {
			continue
		}
		result = append(result, rec.msg)
		if len(result) >= limit {
			break
		}
	}

	return result, nil
}

// Stats возвращает размер backlog и время самой старой pending-записи.
func (r *outboxRepositoryInMemory) Stats() (domain.OutboxStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stats domain.OutboxStats
	for _, id := range r.order {
		rec := r.records[id]
		if rec.status != outboxStatusPending {
			continue
		}
		if stats.PendingCount == 0 {
			stats.OldestPendingAt = rec.createdAt
		}
		stats.PendingCount++
	}
	return stats, nil
}

// MarkSent обновляет статус записи после успешной публикации и убирает её из очереди.
func (r *outboxRepositoryInMemory) MarkSent(id string) error {
	return r.finish(id, outboxStatusSent)
}

// MarkFailed фиксирует окончательную ошибку публикации. Запись покидает очередь
// и попадает в ограниченный список Failed; самые старые из него вытесняются.
func (r *outboxRepositoryInMemory) MarkFailed(id string) error {
	return r.finish(id, outboxStatusFailed)
}

func (r *outboxRepositoryInMemory) finish(id string, status outboxStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[id]
	if !ok {
		return domain.ErrOutboxRecordNotFound
	}
	delete(r.records, id)
	for i, queued := range r.order {
		if queued == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	if status == outboxStatusFailed && r.failedCap > 0 {
		if len(r.failed) >= r.failedCap {
			// Сдвигаем в новый срез, чтобы не держать вытесненные payload через общий массив.
			r.failed = append([]domain.OutboxMessage(nil), r.failed[len(r.failed)-r.failedCap+1:]...)
		}
		r.failed = append(r.failed, record.msg)
	}
	return nil
}

// Failed возвращает копию последних failed-записей, от старых к новым.
func (r *outboxRepositoryInMemory) Failed() []domain.OutboxMessage {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]domain.OutboxMessage(nil), r.failed...)
}

// AllPending возвращает копию всех pending-записей в порядке очереди (используется в тестах).
func (r *outboxRepositoryInMemory) AllPending() []domain.OutboxMessage {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.OutboxMessage, 0, len(r.order))
	for _, id := range r.order {
		if rec := r.records[id]; rec.status == outboxStatusPending {
			result = append(result, rec.msg)
		}
	}
	return result
}

var _ domain.OutboxRepository = (*outboxRepositoryInMemory)(nil)
