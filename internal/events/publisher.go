package events

import (
	"fmt"

	"sample-logistics/internal/config"
)

// NewPublisher builds the publisher selected by EVENTS_BACKEND.
func NewPublisher(cfg *config.Config) (Publisher, error) {
	switch cfg.EventsBackend {
	case config.EventsAMQP:
		return NewAMQPPublisher(cfg.RabbitMQURL, cfg.EventsQueue)
	case config.EventsKafka:
		return NewKafkaPublisher(cfg.Brokers(), cfg.KafkaTopic), nil
	case config.EventsNone, "":
		return NopPublisher{}, nil
	}
	return nil, fmt.Errorf("unknown events backend %q", cfg.EventsBackend)
}
