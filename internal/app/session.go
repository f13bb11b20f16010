package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/client"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/service/outbox"
	"github.com/vladislavdragonenkov/storefront/internal/service/storefront"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
	"github.com/vladislavdragonenkov/storefront/internal/store"
)

const defaultJournalBuffer = 256

// SessionConfig задаёт клиентскую сессию storefront.
type SessionConfig struct {
	BackendURL string
	HTTPClient *http.Client
	Logger     *log.Entry
	// Registerer получает метрики store, клиента и checkout; nil означает DefaultRegisterer.
	Registerer prometheus.Registerer

	// Outbox — хранилище журнала действий; nil означает буфер в памяти процесса.
	// Внешнее хранилище пишется из отдельной горутины, а не под блокировкой store.
	Outbox domain.OutboxRepository
	// Publisher получает записи журнала; nil отключает журнал целиком.
	Publisher     domain.OutboxPublisher
	DLQPublisher  domain.OutboxPublisher
	PollInterval  time.Duration
	JournalBuffer int
}

// Session собирает клиент backend, store с метриками и журналом действий и сервис
// storefront поверх них.
type Session struct {
	Store   *store.Store
	Service *storefront.Service

	journal *kafka.Journal
	worker  *outbox.Worker
}

// NewSession создаёт сессию. Журнал публикуется только через Run или Flush.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.BackendURL == "" {
		return nil, errors.New("backend url is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.WithField("component", "storefront-session")
	}

	storeMetrics := metrics.NewStoreMetricsWithRegisterer(cfg.Registerer)
	clientOptions := []client.Option{client.WithMetrics(storeMetrics), client.WithLogger(logger.WithField("layer", "client"))}
	if cfg.HTTPClient != nil {
		clientOptions = append(clientOptions, client.WithHTTPClient(cfg.HTTPClient))
	}
	api, err := client.New(cfg.BackendURL, clientOptions...)
	if err != nil {
		return nil, fmt.Errorf("create backend client: %w", err)
	}

	session := &Session{}
	storeOptions := []store.Option{
		store.WithLogger(logger.WithField("layer", "store")),
		store.WithObserver(storeMetrics),
	}
	if cfg.Publisher != nil {
		journalLogger := logger.WithField("layer", "journal")
		repo := cfg.Outbox
		if repo == nil {
			repo = memory.NewOutboxRepository()
			session.journal = kafka.NewJournal(repo, journalLogger)
		} else {
			buffer := cfg.JournalBuffer
			if buffer <= 0 {
				buffer = defaultJournalBuffer
			}
			session.journal = kafka.NewAsyncJournal(repo, journalLogger, buffer)
		}

		workerOptions := []outbox.Option{outbox.WithLogger(journalLogger), outbox.WithDLQPublisher(cfg.DLQPublisher)}
		if cfg.PollInterval > 0 {
			workerOptions = append(workerOptions, outbox.WithPollInterval(cfg.PollInterval))
		}
		session.worker = outbox.NewWorker(repo, cfg.Publisher, workerOptions...)
		storeOptions = append(storeOptions, store.WithObserver(session.journal))
	}

	session.Store = store.New(storeOptions...)
	session.Service = storefront.New(session.Store, api,
		storefront.WithLogger(logger.WithField("layer", "service")),
		storefront.WithMetrics(storeMetrics),
	)
	return session, nil
}

// Run публикует журнал до отмены ctx. Без Publisher сразу возвращается.
func (s *Session) Run(ctx context.Context) {
	if s.worker == nil {
		return
	}
	s.worker.Run(ctx)
}

// Flush публикует одну порцию журнала. Асинхронный журнал при этом не ждёт:
// записи, ещё не дошедшие до outbox, уйдут следующим проходом.
func (s *Session) Flush(ctx context.Context) outbox.Result {
	if s.worker == nil {
		return outbox.Result{}
	}
	return s.worker.ProcessOnce(ctx)
}

// Close дописывает очередь журнала в outbox. Dispatch после Close недопустим.
func (s *Session) Close() {
	s.journal.Close()
}
