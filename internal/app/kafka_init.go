package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/health"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
)

var errJournalDisabled = fmt.Errorf("kafka is not configured: %w", health.ErrDegraded)

// journal — подписка реплики на журнал действий.
type journal struct {
	consumer *kafka.Consumer
	dlq      *kafka.Producer
	err      error
}

// startJournal подключает реплику к журналу, если заданы брокеры. Ошибка подключения
// не останавливает сервис: реплика продолжает отдавать последнее состояние.
func startJournal(ctx context.Context, cfg Config, dispatcher kafka.Dispatcher, logger *log.Entry) *journal {
	brokers := cfg.Brokers()
	if len(brokers) == 0 {
		logger.Info("kafka brokers are not configured, journal replay disabled")
		return &journal{err: errJournalDisabled}
	}

	dlq, err := kafka.NewProducer(brokers)
	if err != nil {
		logger.WithError(err).Warn("failed to create dlq producer, continuing without journal")
		return &journal{err: err}
	}

	replayer := kafka.NewReplayer(dispatcher, logger.WithField("layer", "replay"))
	consumer, err := kafka.NewConsumerWithDLQ(brokers, cfg.KafkaGroup, []string{cfg.JournalTopic}, replayer.Handle, dlq, cfg.MaxRetries)
	if err != nil {
		logger.WithError(err).Warn("failed to create journal consumer, continuing without journal")
		closeProducer(dlq, logger)
		return &journal{err: err}
	}
	if err := consumer.Start(ctx); err != nil {
		closeProducer(dlq, logger)
		return &journal{err: err}
	}

	logger.WithFields(log.Fields{
		"brokers": brokers,
		"topic":   cfg.JournalTopic,
		"group":   cfg.KafkaGroup,
	}).Info("journal replay started")
	return &journal{consumer: consumer, dlq: dlq}
}

// Check используется health-проверкой journal.
func (j *journal) Check() error {
	return j.err
}

func (j *journal) stop(logger *log.Entry) {
	if j.consumer != nil {
		if err := j.consumer.Stop(); err != nil {
			logger.WithError(err).Warn("failed to stop journal consumer")
		}
	}
	closeProducer(j.dlq, logger)
}

// closeProducer закрывает Kafka producer, если он не nil.
func closeProducer(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}
	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
		return
	}
	logger.Info("kafka producer closed")
}
