package queue

import (
	"fmt"
	"strings"

	"github.com/demandcast/demandcast/internal/config"
)

// Supported queue backends.
const (
	TypeNATS   = "nats"
	TypeRedis  = "redis"
	TypeKafka  = "kafka"
	TypeMemory = "memory"
)

// NewPublisher creates a Publisher instance based on configuration.
// Default is NATS if type is not specified.
func NewPublisher(cfg config.QueueConfig) (Publisher, error) {
	queueType := strings.ToLower(cfg.Type)

	// Default to NATS if not specified
	if queueType == "" {
		queueType = TypeNATS
	}

	switch queueType {
	case TypeNATS:
		return newNATSPublisher(cfg.URL)

	case TypeRedis:
		return newRedisPublisher(RedisConfig{
			URL:      cfg.URL,
			Password: cfg.Password,
			DB:       cfg.RedisDB,
			Stream:   cfg.RedisStream,
		})

	case TypeKafka:
		return newKafkaPublisher(KafkaConfig{
			Brokers: cfg.KafkaBrokers,
		})

	case TypeMemory:
		return newMemoryPublisher(), nil

	default:
		return nil, fmt.Errorf("unsupported queue type: %s (supported: nats, redis, kafka, memory)", queueType)
	}
}
