package bus

import (
	"fmt"
	"strings"

	"github.com/T-rav/hydra/internal/config"
	"github.com/T-rav/hydra/internal/pkg/errors"
	"github.com/T-rav/hydra/internal/pkg/logger"
)

// New creates a Bus from configuration.
func New(cfg config.BusConfig, log *logger.Logger) (Bus, error) {
	switch strings.ToLower(cfg.Type) {
	case "memory", "":
		return NewMemoryBus(log), nil

	case "kafka":
		brokers := cfg.KafkaBrokerList()
		if len(brokers) == 0 {
			return nil, errors.New(errors.CodeValidation, "kafka brokers not configured")
		}
		group := cfg.ConsumerGroup
		if group == "" {
			group = "hydra-ingest"
		}
		return NewKafkaBus(KafkaConfig{
			Brokers:       brokers,
			ConsumerGroup: group,
			ClientID:      "hydra-bus",
		}, log)

	default:
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("unknown bus type: %s", cfg.Type))
	}
}
