package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const defaultPullLimit = 100

type journalOutbox struct {
	db  *sql.DB
	now func() time.Time
}

// NewJournalOutbox создаёт outbox журнала действий поверх таблицы journal_outbox.
// Порядок выдачи PullPending совпадает с порядком Enqueue (по seq).
func NewJournalOutbox(store *Store) domain.OutboxRepository {
	return &journalOutbox{db: store.db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *journalOutbox) Enqueue(msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	now := r.now()

	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO journal_outbox (id, partition_key, action_type, payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`, msg.ID, msg.Key, msg.EventType, msg.Payload, now); err != nil {
		return domain.OutboxMessage{}, fmt.Errorf("enqueue journal record %s: %w", msg.ID, err)
	}
	return msg, nil
}

func (r *journalOutbox) PullPending(limit int) ([]domain.OutboxMessage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if limit <= 0 {
		limit = defaultPullLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, partition_key, action_type, payload
		FROM journal_outbox
		WHERE status = 'pending'
		ORDER BY seq
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("pull pending journal records: %w", err)
	}
	defer rows.Close()

	var result []domain.OutboxMessage
	for rows.Next() {
		var msg domain.OutboxMessage
		if err := rows.Scan(&msg.ID, &msg.Key, &msg.EventType, &msg.Payload); err != nil {
			return nil, fmt.Errorf("scan journal record: %w", err)
		}
		result = append(result, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal records: %w", err)
	}
	return result, nil
}

func (r *journalOutbox) Stats() (domain.OutboxStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var (
		stats  domain.OutboxStats
		oldest sql.NullTime
	)
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), MIN(created_at)
		FROM journal_outbox
		WHERE status = 'pending'
	`).Scan(&stats.PendingCount, &oldest); err != nil {
		return domain.OutboxStats{}, fmt.Errorf("journal outbox stats: %w", err)
	}
	if oldest.Valid {
		stats.OldestPendingAt = oldest.Time.UTC()
	}
	return stats, nil
}

func (r *journalOutbox) MarkSent(id string) error {
	return r.finish(id, `
		UPDATE journal_outbox
		SET status = 'sent', attempt_count = attempt_count + 1, updated_at = $2, sent_at = $2
		WHERE id = $1
	`)
}

func (r *journalOutbox) MarkFailed(id string) error {
	return r.finish(id, `
		UPDATE journal_outbox
		SET status = 'failed', attempt_count = attempt_count + 1, updated_at = $2
		WHERE id = $1
	`)
}

func (r *journalOutbox) finish(id, query string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, query, id, r.now())
	if err != nil {
		return fmt.Errorf("update journal record %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for journal record %s: %w", id, err)
	}
	if affected == 0 {
		return domain.ErrOutboxRecordNotFound
	}
	return nil
}

var _ domain.OutboxRepository = (*journalOutbox)(nil)
