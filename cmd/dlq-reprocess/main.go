// Команда dlq-reprocess возвращает записи журнала действий из storefront.dlq в рабочий topic.
// По умолчанию работает в режиме dry-run и только перечисляет кандидатов.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storefront/internal/service/outbox"
)

const (
	defaultLimit       = 100
	defaultIdleTimeout = 2 * time.Second

	headerReplayedFrom = "x-replayed-from"
)

type config struct {
	brokers     []string
	sourceTopic string
	targetTopic string
	limit       int
	execute     bool
	fromNewest  bool
	idleTimeout time.Duration
}

// candidate — запись журнала, готовая к повторной публикации.
type candidate struct {
	topic   string
	key     string
	value   []byte
	eventID string
	action  string
}

type partitionConsumer interface {
	Messages() <-chan *sarama.ConsumerMessage
	Errors() <-chan *sarama.ConsumerError
	Close() error
}

// dlqReader даёт доступ к партициям DLQ.
type dlqReader interface {
	Partitions(topic string) ([]int32, error)
	GetOffset(topic string, partition int32, at int64) (int64, error)
	ConsumePartition(topic string, partition int32, offset int64) (partitionConsumer, error)
	Close() error
}

// republisher реализуется *kafka.Producer.
type republisher interface {
	PublishMessage(topic, key string, value []byte, headers map[string]string) error
	Close() error
}

type saramaReader struct {
	client   sarama.Client
	consumer sarama.Consumer
}

func (r *saramaReader) Partitions(topic string) ([]int32, error) {
	return r.client.Partitions(topic)
}

func (r *saramaReader) GetOffset(topic string, partition int32, at int64) (int64, error) {
	return r.client.GetOffset(topic, partition, at)
}

func (r *saramaReader) ConsumePartition(topic string, partition int32, offset int64) (partitionConsumer, error) {
	return r.consumer.ConsumePartition(topic, partition, offset)
}

func (r *saramaReader) Close() error {
	return errors.Join(r.consumer.Close(), r.client.Close())
}

// connect подменяется в тестах.
var connect = func(cfg config) (dlqReader, republisher, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Consumer.Return.Errors = true

	client, err := sarama.NewClient(cfg.brokers, saramaConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("create kafka client: %w", err)
	}
	consumer, err := sarama.NewConsumerFromClient(client)
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	reader := &saramaReader{client: client, consumer: consumer}

	if !cfg.execute {
		return reader, nil, nil
	}
	producer, err := kafka.NewProducer(cfg.brokers)
	if err != nil {
		_ = reader.Close()
		return nil, nil, err
	}
	return reader, producer, nil
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)

	cfg, err := readConfig(os.Args[1:], os.LookupEnv, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fail(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		fail(fmt.Errorf("dlq reprocess failed: %w", err))
	}
}

func readConfig(args []string, lookup func(string) (string, bool), output io.Writer) (config, error) {
	fs := flag.NewFlagSet("dlq-reprocess", flag.ContinueOnError)
	fs.SetOutput(output)

	var (
		cfg     config
		brokers string
	)
	fs.StringVar(&brokers, "brokers", "", "comma separated kafka brokers (fallback: KAFKA_BROKERS)")
	fs.StringVar(&cfg.sourceTopic, "source-topic", kafka.TopicDeadLetterQueue, "dead letter topic to scan")
	fs.StringVar(&cfg.targetTopic, "target-topic", kafka.TopicActions, "journal topic to republish into")
	fs.IntVar(&cfg.limit, "limit", defaultLimit, "max number of dlq records to scan")
	fs.BoolVar(&cfg.execute, "execute", false, "republish records; default is dry-run")
	fs.BoolVar(&cfg.fromNewest, "from-newest", false, "scan the latest records of each partition")
	fs.DurationVar(&cfg.idleTimeout, "idle-timeout", defaultIdleTimeout, "stop reading a partition after this long without records")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	if strings.TrimSpace(brokers) == "" {
		brokers, _ = lookup("KAFKA_BROKERS")
	}
	cfg.brokers = parseBrokers(brokers)

	switch {
	case len(cfg.brokers) == 0:
		return config{}, errors.New("kafka brokers are required (-brokers or KAFKA_BROKERS)")
	case strings.TrimSpace(cfg.sourceTopic) == "":
		return config{}, errors.New("-source-topic must not be empty")
	case strings.TrimSpace(cfg.targetTopic) == "":
		return config{}, errors.New("-target-topic must not be empty")
	case cfg.limit <= 0:
		return config{}, errors.New("-limit must be > 0")
	case cfg.idleTimeout <= 0:
		return config{}, errors.New("-idle-timeout must be > 0")
	}
	return cfg, nil
}

func parseBrokers(raw string) []string {
	var brokers []string
	for _, broker := range strings.Split(raw, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}

func run(ctx context.Context, cfg config) error {
	reader, producer, err := connect(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if producer != nil {
			_ = producer.Close()
		}
		_ = reader.Close()
	}()

	summary, err := reprocess(ctx, cfg, reader, producer)
	mode := "dry-run"
	if cfg.execute {
		mode = "execute"
	}
	log.WithFields(log.Fields{
		"mode":         mode,
		"source_topic": cfg.sourceTopic,
		"target_topic": cfg.targetTopic,
		"scanned":      summary.scanned,
		"republished":  summary.republished,
		"skipped":      summary.skipped,
	}).Info("dlq reprocess finished")
	return err
}

type summary struct {
	scanned     int
	republished int
	skipped     int
}

func (s *summary) add(other summary) {
	s.scanned += other.scanned
	s.republished += other.republished
	s.skipped += other.skipped
}

// reprocess обходит партиции DLQ по возрастанию номера, пока не исчерпан limit.
func reprocess(ctx context.Context, cfg config, reader dlqReader, producer republisher) (summary, error) {
	var total summary
	if cfg.execute && producer == nil {
		return total, errors.New("producer is required in execute mode")
	}

	partitions, err := reader.Partitions(cfg.sourceTopic)
	if err != nil {
		return total, fmt.Errorf("list partitions of %s: %w", cfg.sourceTopic, err)
	}
	slices.Sort(partitions)

	for _, partition := range partitions {
		if total.scanned >= cfg.limit {
			break
		}
		part, err := reprocessPartition(ctx, cfg, reader, producer, partition, cfg.limit-total.scanned)
		total.add(part)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// reprocessPartition читает партицию до offset, бывшего последним на момент старта.
func reprocessPartition(ctx context.Context, cfg config, reader dlqReader, producer republisher, partition int32, limit int) (summary, error) {
	var result summary

	oldest, err := reader.GetOffset(cfg.sourceTopic, partition, sarama.OffsetOldest)
	if err != nil {
		return result, fmt.Errorf("oldest offset of partition %d: %w", partition, err)
	}
	end, err := reader.GetOffset(cfg.sourceTopic, partition, sarama.OffsetNewest)
	if err != nil {
		return result, fmt.Errorf("newest offset of partition %d: %w", partition, err)
	}
	if end <= oldest {
		return result, nil
	}

	start := oldest
	if cfg.fromNewest {
		start = max(oldest, end-int64(limit))
	}

	pc, err := reader.ConsumePartition(cfg.sourceTopic, partition, start)
	if err != nil {
		return result, fmt.Errorf("consume partition %d: %w", partition, err)
	}
	defer func() { _ = pc.Close() }()

	idle := time.NewTimer(cfg.idleTimeout)
	defer idle.Stop()

	errs := pc.Errors()

	for result.scanned < limit {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-idle.C:
			return result, nil
		case consumeErr, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if consumeErr != nil {
				return result, fmt.Errorf("partition %d: %w", partition, consumeErr)
			}
		case msg, ok := <-pc.Messages():
			if !ok || msg == nil || msg.Offset >= end {
				return result, nil
			}
			idle.Reset(cfg.idleTimeout)
			result.scanned++

			entry := log.WithFields(log.Fields{"partition": msg.Partition, "offset": msg.Offset})
			next, err := extractCandidate(msg, cfg.targetTopic)
			if err != nil {
				result.skipped++
				entry.WithError(err).Warn("skip dlq record")
			} else if cfg.execute {
				if err := republish(producer, msg, next); err != nil {
					return result, fmt.Errorf("republish offset %d of partition %d: %w", msg.Offset, partition, err)
				}
				result.republished++
			} else {
				result.republished++
				entry.WithFields(log.Fields{
					"target_topic": next.topic,
					"key":          next.key,
					"event_id":     next.eventID,
					"action":       next.action,
				}).Info("dlq reprocess candidate")
			}

			if msg.Offset+1 >= end {
				return result, nil
			}
		}
	}
	return result, nil
}

func republish(producer republisher, source *sarama.ConsumerMessage, next candidate) error {
	return producer.PublishMessage(next.topic, next.key, next.value, map[string]string{
		kafka.HeaderEventType: next.action,
		headerReplayedFrom:    fmt.Sprintf("%s/%d/%d", source.Topic, source.Partition, source.Offset),
	})
}

// extractCandidate распознаёт обе формы записей DLQ: исходное сообщение, которое не смогла
// применить реплика (с заголовком x-original-topic), и конверт воркера журнала.
// Запись принимается, только если внутри лежит декодируемое действие.
func extractCandidate(msg *sarama.ConsumerMessage, defaultTopic string) (candidate, error) {
	key, value := string(msg.Key), msg.Value
	topic := defaultTopic

	if original := header(msg, kafka.HeaderOriginalTopic); original != "" {
		topic = original
	} else {
		var record outbox.DeadLetter
		if err := json.Unmarshal(msg.Value, &record); err != nil {
			return candidate{}, fmt.Errorf("decode dlq record: %w", err)
		}
		if len(record.Payload) == 0 {
			return candidate{}, errors.New("dlq record has no journal payload")
		}
		value = record.Payload
		key = firstNonEmpty(record.Key, key, record.JournalID)
	}

	event, err := kafka.ParseActionEvent(&sarama.ConsumerMessage{Value: value})
	if err != nil {
		return candidate{}, err
	}
	action, err := event.DecodeAction()
	if err != nil {
		return candidate{}, err
	}

	return candidate{
		topic:   topic,
		key:     firstNonEmpty(key, event.Key()),
		value:   value,
		eventID: event.ID,
		action:  string(action.Type()),
	}, nil
}

func header(msg *sarama.ConsumerMessage, name string) string {
	for _, h := range msg.Headers {
		if h != nil && string(h.Key) == name {
			return strings.TrimSpace(string(h.Value))
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func fail(err error) {
	_, _ = fmt.Fprintf(os.Stderr, "dlq-reprocess: %v\n", err)
	os.Exit(1)
}
