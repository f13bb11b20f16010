package app

import (
	"strings"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
)

// Config — настройки запуска реплики storefront.
type Config struct {
	HTTPAddr string
	GRPCAddr string

	// KafkaBrokers — список брокеров через запятую; пустая строка отключает журнал.
	KafkaBrokers string
	KafkaGroup   string
	JournalTopic string
	MaxRetries   int

	ShutdownTimeout time.Duration
}

// DefaultConfig возвращает настройки по умолчанию.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:        ":8080",
		GRPCAddr:        ":50051",
		KafkaGroup:      "storefront-replica",
		JournalTopic:    kafka.TopicActions,
		MaxRetries:      3,
		ShutdownTimeout: 5 * time.Second,
	}
}

// Brokers разбирает KafkaBrokers, пропуская пустые элементы.
func (c Config) Brokers() []string {
	var brokers []string
	for _, broker := range strings.Split(c.KafkaBrokers, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}
