package domain

import "time"

// OutboxPublisher публикует записи журнала действий наружу.
type OutboxPublisher interface {
	// Publish передаёт запись брокеру; должен быть идемпотентным по ID.
	Publish(msg OutboxMessage) error
}

// OutboxRepository буферизует записи журнала до публикации. PullPending отдаёт записи
// в порядке постановки, чтобы порядок действий в журнале совпадал с порядком dispatch.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// IdempotencyRepository хранит состояние обработки запросов по idempotency-key.
type IdempotencyRepository interface {
	CreateProcessing(key, requestHash string, ttlAt time.Time) (IdempotencyRecord, error)
	Get(key string) (IdempotencyRecord, error)
	MarkDone(key string, responseBody []byte, httpStatus int) error
	MarkFailed(key string, responseBody []byte, httpStatus int) error
}

// OutboxMessage — запись журнала действий, ожидающая публикации.
type OutboxMessage struct {
	ID string
	// Key — ключ партиционирования (домен действия).
	Key       string
	EventType string
	Payload   []byte
}

// OutboxStats описывает текущий backlog журнала.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
