// Package outbox доставляет журнал действий из outbox в брокер.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	defaultPollInterval   = time.Second
	defaultBatchSize      = 100
	defaultMaxAttempts    = 3
	defaultRetryBaseDelay = 50 * time.Millisecond
	maxRetryDelay         = 5 * time.Second
)

var (
	journalPublishAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_journal_publish_attempts_total",
		Help: "Total number of action journal publish attempts grouped by result.",
	}, []string{"result"})
	journalPendingRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_journal_pending_records",
		Help: "Current number of journal records waiting for publication.",
	})
	journalOldestPendingAge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_journal_oldest_pending_age_seconds",
		Help: "Age in seconds of the oldest pending journal record.",
	})
)

// ErrKeyFenced означает, что запись не публиковалась: более ранняя запись с тем же ключом
// уже ушла в DLQ.
var ErrKeyFenced = errors.New("journal key is fenced")

// DeadLetter — конверт записи журнала, которую не удалось опубликовать.
// Payload содержит исходную запись (ActionEvent) как есть.
type DeadLetter struct {
	JournalID      string          `json:"journal_id"`
	Key            string          `json:"key"`
	EventType      string          `json:"event_type"`
	Payload        json.RawMessage `json:"payload"`
	PublishError   string          `json:"publish_error"`
	DLQPublishedAt time.Time       `json:"dlq_published_at"`
}

// Result — итог одного прохода воркера.
type Result struct {
	Sent   int
	Failed int
}

// WorkerOptions задаёт параметры воркера.
type WorkerOptions struct {
	Logger         *log.Entry
	DLQPublisher   domain.OutboxPublisher
	PollInterval   time.Duration
	BatchSize      int
	MaxAttempts    int
	RetryBaseDelay time.Duration
	Clock          func() time.Time
}

// Option настраивает Worker.
type Option func(*WorkerOptions)

// WithLogger задаёт logger для воркера.
func WithLogger(logger *log.Entry) Option {
	return func(opts *WorkerOptions) { opts.Logger = logger }
}

// WithDLQPublisher задаёт получателя записей, исчерпавших попытки публикации.
func WithDLQPublisher(publisher domain.OutboxPublisher) Option {
	return func(opts *WorkerOptions) { opts.DLQPublisher = publisher }
}

// WithPollInterval задаёт частоту опроса outbox в Run.
func WithPollInterval(interval time.Duration) Option {
	return func(opts *WorkerOptions) { opts.PollInterval = interval }
}

// WithBatchSize задаёт число записей, забираемых за один проход.
func WithBatchSize(batchSize int) Option {
	return func(opts *WorkerOptions) { opts.BatchSize = batchSize }
}

// WithMaxAttempts задаёт число попыток публикации одной записи.
func WithMaxAttempts(maxAttempts int) Option {
	return func(opts *WorkerOptions) { opts.MaxAttempts = maxAttempts }
}

// WithRetryBaseDelay задаёт задержку перед второй попыткой; каждая следующая вдвое дольше.
func WithRetryBaseDelay(delay time.Duration) Option {
	return func(opts *WorkerOptions) { opts.RetryBaseDelay = delay }
}

// WithClock подменяет источник времени для отметки dlq_published_at.
func WithClock(clock func() time.Time) Option {
	return func(opts *WorkerOptions) { opts.Clock = clock }
}

// Worker публикует записи журнала действий в порядке постановки в outbox.
// Запись, не опубликованная за MaxAttempts попыток, помечается failed и уходит в DLQ.
// После этого ключ (домен) записи закрыт: все следующие записи с тем же ключом сразу идут
// в DLQ за ней, чтобы dlq-reprocess вернул их в исходном порядке. Записи других ключей
// публикуются как обычно. Закрытие ключа действует до перезапуска воркера.
//
// ProcessOnce не предназначен для конкурентного вызова.
type Worker struct {
	repo      domain.OutboxRepository
	publisher domain.OutboxPublisher
	opts      WorkerOptions
	logger    *log.Entry
	// fenced: ключ -> ID записи, после которой ключ закрыт.
	fenced map[string]string
}

// NewWorker создаёт воркер журнала.
func NewWorker(repo domain.OutboxRepository, publisher domain.OutboxPublisher, options ...Option) *Worker {
	opts := WorkerOptions{
		PollInterval:   defaultPollInterval,
		BatchSize:      defaultBatchSize,
		MaxAttempts:    defaultMaxAttempts,
		RetryBaseDelay: defaultRetryBaseDelay,
		Clock:          time.Now,
	}
	for _, option := range options {
		option(&opts)
	}

	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.RetryBaseDelay < 0 {
		opts.RetryBaseDelay = 0
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "journal-worker")
	}

	return &Worker{repo: repo, publisher: publisher, opts: opts, logger: logger, fenced: map[string]string{}}
}

// Run опрашивает outbox до отмены ctx. Перед выходом делает ещё один проход,
// чтобы дослать записи, поставленные перед остановкой.
func (w *Worker) Run(ctx context.Context) {
	if w.repo == nil || w.publisher == nil {
		w.logger.Warn("journal worker is disabled: repo or publisher is nil")
		return
	}

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	w.ProcessOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			w.ProcessOnce(context.WithoutCancel(ctx))
			return
		case <-ticker.C:
			w.ProcessOnce(ctx)
		}
	}
}

// ProcessOnce публикует одну порцию pending записей.
func (w *Worker) ProcessOnce(ctx context.Context) Result {
	var result Result
	if ctx.Err() != nil {
		return result
	}

	records, err := w.repo.PullPending(w.opts.BatchSize)
	if err != nil {
		w.logger.WithError(err).Warn("failed to pull pending journal records")
		return result
	}

	for _, record := range records {
		if ctx.Err() != nil {
			break
		}

		fields := log.Fields{"journal_id": record.ID, "event_type": record.EventType, "key": record.Key}
		err := w.fenceError(record)
		if err == nil {
			err = w.publish(ctx, record)
		}
		if err != nil {
			if ctx.Err() != nil {
				// Отмена прервала retry: запись остаётся pending до следующего прохода.
				break
			}
			result.Failed++
			journalPublishAttempts.WithLabelValues("failed").Inc()
			w.logger.WithError(err).WithFields(fields).Error("journal record dropped after retries")
			if _, closed := w.fenced[record.Key]; !closed {
				w.fenced[record.Key] = record.ID
			}

			if dlqErr := w.deadLetter(record, err); dlqErr != nil {
				journalPublishAttempts.WithLabelValues("dlq_failed").Inc()
				w.logger.WithError(dlqErr).WithFields(fields).Warn("failed to publish to DLQ")
			}
			if markErr := w.repo.MarkFailed(record.ID); markErr != nil {
				w.logger.WithError(markErr).WithFields(fields).Warn("failed to mark journal record as failed")
			}
			continue
		}

		result.Sent++
		if err := w.repo.MarkSent(record.ID); err != nil {
			w.logger.WithError(err).WithFields(fields).Warn("failed to mark journal record as sent")
		}
	}

	w.observeBacklog()
	return result
}

// fenceError возвращает ошибку для записи закрытого ключа.
func (w *Worker) fenceError(record domain.OutboxMessage) error {
	failedID, closed := w.fenced[record.Key]
	if !closed {
		return nil
	}
	return fmt.Errorf("%w: key %q closed after journal record %s", ErrKeyFenced, record.Key, failedID)
}

func (w *Worker) publish(ctx context.Context, record domain.OutboxMessage) error {
	var lastErr error
	for attempt := 1; attempt <= w.opts.MaxAttempts; attempt++ {
		if lastErr = w.publisher.Publish(record); lastErr == nil {
			journalPublishAttempts.WithLabelValues("sent").Inc()
			return nil
		}
		journalPublishAttempts.WithLabelValues("retry_error").Inc()

		if attempt == w.opts.MaxAttempts {
			break
		}
		if delay := w.backoff(attempt); delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return fmt.Errorf("publish failed after %d attempts: %w", w.opts.MaxAttempts, lastErr)
}

// backoff возвращает задержку после attempt-й неудачной попытки, не больше maxRetryDelay.
func (w *Worker) backoff(attempt int) time.Duration {
	delay := w.opts.RetryBaseDelay
	for i := 1; i < attempt && delay < maxRetryDelay; i++ {
		delay *= 2
	}
	return min(delay, maxRetryDelay)
}

func (w *Worker) observeBacklog() {
	stats, err := w.repo.Stats()
	if err != nil {
		w.logger.WithError(err).Warn("failed to collect journal backlog stats")
		return
	}

	journalPendingRecords.Set(float64(stats.PendingCount))
	if stats.PendingCount == 0 || stats.OldestPendingAt.IsZero() {
		journalOldestPendingAge.Set(0)
		return
	}
	journalOldestPendingAge.Set(max(w.opts.Clock().Sub(stats.OldestPendingAt).Seconds(), 0))
}

func (w *Worker) deadLetter(record domain.OutboxMessage, publishErr error) error {
	if w.opts.DLQPublisher == nil {
		return nil
	}

	payload := json.RawMessage(record.Payload)
	if !json.Valid(payload) {
		// Повреждённую запись сохраняем строкой, чтобы конверт оставался валидным JSON.
		quoted, err := json.Marshal(string(record.Payload))
		if err != nil {
			return fmt.Errorf("quote journal payload: %w", err)
		}
		payload = quoted
	}

	body, err := json.Marshal(DeadLetter{
		JournalID:      record.ID,
		Key:            record.Key,
		EventType:      record.EventType,
		Payload:        payload,
		PublishError:   publishErr.Error(),
		DLQPublishedAt: w.opts.Clock().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal dead letter: %w", err)
	}

	if err := w.opts.DLQPublisher.Publish(domain.OutboxMessage{
		ID:        record.ID,
		Key:       record.Key,
		EventType: record.EventType,
		Payload:   body,
	}); err != nil {
		return fmt.Errorf("publish to dlq: %w", err)
	}
	return nil
}
