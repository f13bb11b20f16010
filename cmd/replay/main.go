// Команда replay прогоняет журнал действий (JSON Lines) через store и печатает итоговое состояние.
// С флагом -publish применённые действия дополнительно публикуются в Kafka через outbox журнала.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storefront/internal/service/outbox"
	"github.com/vladislavdragonenkov/storefront/internal/state"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
	"github.com/vladislavdragonenkov/storefront/internal/storage/postgres"
	"github.com/vladislavdragonenkov/storefront/internal/store"
)

const (
	maxLineSize   = 1 << 20
	journalBuffer = 256
)

type config struct {
	input     string
	trace     bool
	publish   bool
	brokers   []string
	topic     string
	outboxDSN string
}

// journalSink — куда уходят применённые действия при -publish.
type journalSink struct {
	outbox    domain.OutboxRepository
	publisher domain.OutboxPublisher
}

type tracedState struct {
	Line   int              `json:"line"`
	Type   state.ActionType `json:"type"`
	Domain state.Domain     `json:"domain,omitempty"`
	State  state.RootState  `json:"state"`
}

// newPublisher подменяется в тестах.
var newPublisher = func(brokers []string, topic string) (domain.OutboxPublisher, func() error, error) {
	producer, err := kafka.NewProducer(brokers)
	if err != nil {
		return nil, nil, err
	}
	return kafka.NewOutboxPublisher(producer, topic), producer.Close, nil
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	cfg, err := readConfig(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fail(err)
	}

	input := io.Reader(os.Stdin)
	if cfg.input != "" && cfg.input != "-" {
		file, err := os.Open(cfg.input)
		if err != nil {
			fail(fmt.Errorf("open journal: %w", err))
		}
		defer file.Close()
		input = file
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sink *journalSink
	if cfg.publish {
		publisher, closePublisher, err := newPublisher(cfg.brokers, cfg.topic)
		if err != nil {
			fail(fmt.Errorf("create kafka producer: %w", err))
		}
		defer func() {
			if err := closePublisher(); err != nil {
				log.WithError(err).Warn("failed to close kafka producer")
			}
		}()

		outboxRepo, closeOutbox, err := openOutbox(ctx, cfg.outboxDSN)
		if err != nil {
			fail(err)
		}
		defer closeOutbox()
		sink = &journalSink{outbox: outboxRepo, publisher: publisher}
	}

	if err := run(ctx, cfg, input, os.Stdout, sink); err != nil {
		fail(err)
	}
}

// openOutbox выбирает outbox журнала: PostgreSQL, если задан DSN, иначе память процесса.
// Записи в PostgreSQL, не опубликованные в этом запуске, будут отправлены следующим.
func openOutbox(ctx context.Context, dsn string) (domain.OutboxRepository, func(), error) {
	if dsn == "" {
		return memory.NewOutboxRepository(), func() {}, nil
	}
	pg, err := postgres.Open(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open journal outbox: %w", err)
	}
	if err := pg.Migrate(ctx); err != nil {
		_ = pg.Close()
		return nil, nil, fmt.Errorf("migrate journal outbox: %w", err)
	}
	return postgres.NewJournalOutbox(pg), func() { _ = pg.Close() }, nil
}

func readConfig(args []string, output io.Writer) (config, error) {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	fs.SetOutput(output)

	var cfg config
	var brokers string
	fs.BoolVar(&cfg.trace, "trace", false, "print state after every action")
	fs.BoolVar(&cfg.publish, "publish", false, "publish applied actions to kafka")
	fs.StringVar(&brokers, "brokers", "localhost:9092", "comma separated kafka brokers")
	fs.StringVar(&cfg.topic, "topic", kafka.TopicActions, "journal topic")
	fs.StringVar(&cfg.outboxDSN, "outbox-dsn", "", "postgres DSN of a durable journal outbox (default: in-memory)")
	fs.Usage = func() {
		fmt.Fprintln(output, "usage: replay [flags] [journal.jsonl]")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	if fs.NArg() > 1 {
		return config{}, fmt.Errorf("expected at most one journal file, got %d", fs.NArg())
	}
	cfg.input = fs.Arg(0)

	for _, broker := range strings.Split(brokers, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			cfg.brokers = append(cfg.brokers, broker)
		}
	}
	if cfg.publish && len(cfg.brokers) == 0 {
		return config{}, errors.New("-publish requires at least one broker")
	}
	if strings.TrimSpace(cfg.topic) == "" {
		return config{}, errors.New("-topic must not be empty")
	}
	cfg.outboxDSN = strings.TrimSpace(cfg.outboxDSN)
	if cfg.outboxDSN != "" && !cfg.publish {
		return config{}, errors.New("-outbox-dsn only makes sense with -publish")
	}

	return cfg, nil
}

// run применяет действия из input по одному на строку. Пустые строки и строки с # пропускаются.
// Итоговое состояние печатается в out; при -trace перед ним идёт снимок после каждого действия.
func run(ctx context.Context, cfg config, input io.Reader, out io.Writer, sink *journalSink) error {
	options := []store.Option{store.WithLogger(log.WithField("component", "replay"))}
	var journal *kafka.Journal
	if sink != nil {
		journal = kafka.NewAsyncJournal(sink.outbox, nil, journalBuffer)
		// На раннем выходе по ошибке очередь журнала всё равно дописывается.
		defer journal.Close()
		options = append(options, store.WithObserver(journal))
	}
	s := store.New(options...)

	encoder := json.NewEncoder(out)
	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line, applied := 0, 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 || raw[0] == '#' {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		action, err := state.DecodeAction(raw)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		next := s.Dispatch(action)
		applied++

		if cfg.trace {
			if err := encoder.Encode(tracedState{Line: line, Type: action.Type(), Domain: action.Domain(), State: next}); err != nil {
				return fmt.Errorf("write trace: %w", err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read journal: %w", err)
	}

	if !cfg.trace {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(s.State()); err != nil {
		return fmt.Errorf("write state: %w", err)
	}

	if sink == nil {
		return nil
	}
	journal.Close()
	return flush(ctx, sink, applied)
}

// flush публикует весь backlog outbox одним проходом воркера.
func flush(ctx context.Context, sink *journalSink, applied int) error {
	backlog, err := sink.outbox.Stats()
	if err != nil {
		return fmt.Errorf("journal stats: %w", err)
	}

	worker := outbox.NewWorker(sink.outbox, sink.publisher,
		outbox.WithBatchSize(backlog.PendingCount+1),
		outbox.WithLogger(log.WithField("component", "replay-journal")),
	)
	result := worker.ProcessOnce(ctx)

	stats, err := sink.outbox.Stats()
	if err != nil {
		return fmt.Errorf("journal stats: %w", err)
	}
	if lost := stats.PendingCount + result.Failed; lost > 0 {
		return fmt.Errorf("%d of %d journal records were not published", lost, backlog.PendingCount)
	}

	log.WithFields(log.Fields{"actions": applied, "published": result.Sent}).Info("journal published")
	return nil
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "replay: %v\n", err)
	os.Exit(1)
}
