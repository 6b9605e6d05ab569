package bus

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/T-rav/hydra/internal/pkg/errors"
	"github.com/T-rav/hydra/internal/pkg/logger"
)

// KafkaBus is a Bus backed by Kafka topics. Each subscribed topic gets
// one consumer-group loop; handlers for a topic share that loop.
type KafkaBus struct {
	producer sarama.SyncProducer
	consumer sarama.ConsumerGroup
	client   sarama.Client

	mu       sync.RWMutex
	handlers map[string][]Handler
	closed   bool

	consumerWg   sync.WaitGroup
	consumerStop chan struct{}
	log          *logger.Logger
}

// KafkaConfig holds Kafka connection settings.
type KafkaConfig struct {
	Brokers       []string
	ConsumerGroup string
	ClientID      string
	Version       string
}

// NewKafkaBus connects to Kafka and returns a bus.
func NewKafkaBus(cfg KafkaConfig, log *logger.Logger) (*KafkaBus, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.CodeValidation, "kafka brokers cannot be empty")
	}
	if cfg.ConsumerGroup == "" {
		return nil, errors.New(errors.CodeValidation, "kafka consumer group cannot be empty")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "hydra-bus"
	}
	if cfg.Version == "" {
		cfg.Version = "2.8.0"
	}

	version, err := sarama.ParseKafkaVersion(cfg.Version)
	if err != nil {
		return nil, errors.Wrap(errors.CodeValidation, "invalid kafka version", err)
	}

	sc := sarama.NewConfig()
	sc.Version = version
	sc.ClientID = cfg.ClientID
	sc.Producer.Return.Successes = true
	sc.Producer.Return.Errors = true
	sc.Producer.Retry.Max = 3
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRoundRobin()
	sc.Consumer.Offsets.Initial = sarama.OffsetNewest
	sc.Consumer.Return.Errors = true
	sc.Net.DialTimeout = 10 * time.Second
	sc.Net.ReadTimeout = 10 * time.Second
	sc.Net.WriteTimeout = 10 * time.Second

	client, err := sarama.NewClient(cfg.Brokers, sc)
	if err != nil {
		return nil, errors.Wrap(errors.CodeUnavailable, "creating kafka client", err)
	}
	producer, err := sarama.NewSyncProducerFromClient(client)
	if err != nil {
		client.Close()
		return nil, errors.Wrap(errors.CodeUnavailable, "creating kafka producer", err)
	}
	consumer, err := sarama.NewConsumerGroupFromClient(cfg.ConsumerGroup, client)
	if err != nil {
		producer.Close()
		client.Close()
		return nil, errors.Wrap(errors.CodeUnavailable, "creating kafka consumer group", err)
	}

	return &KafkaBus{
		producer:     producer,
		consumer:     consumer,
		client:       client,
		handlers:     make(map[string][]Handler),
		consumerStop: make(chan struct{}),
		log:          log,
	}, nil
}

// Publish implements Bus. The event ID is used as the partition key so
// re-ingested chunks with the same event ID stay ordered.
func (b *KafkaBus) Publish(_ context.Context, topic string, event Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return errors.New(errors.CodeUnavailable, "bus is closed")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, "marshaling event", err)
	}
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(event.ID),
		Value: sarama.ByteEncoder(data),
	}
	if _, _, err := b.producer.SendMessage(msg); err != nil {
		return errors.Wrap(errors.CodeUnavailable, "publishing to kafka", err)
	}
	return nil
}

// Subscribe implements Bus. The first handler on a topic starts that
// topic's consumer loop.
func (b *KafkaBus) Subscribe(_ context.Context, topic string, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return errors.New(errors.CodeUnavailable, "bus is closed")
	}

	first := len(b.handlers[topic]) == 0
	b.handlers[topic] = append(b.handlers[topic], handler)
	if first {
		b.consumerWg.Add(1)
		go b.consumeTopic(topic)
	}
	return nil
}

func (b *KafkaBus) consumeTopic(topic string) {
	defer b.consumerWg.Done()

	h := &consumerGroupHandler{bus: b, topic: topic}
	for {
		select {
		case <-b.consumerStop:
			return
		default:
		}

		// Blocks until the session ends (rebalance or close).
		if err := b.consumer.Consume(context.Background(), []string{topic}, h); err != nil {
			b.log.Warn("kafka consumer error", "topic", topic, "error", err)
		}

		select {
		case <-b.consumerStop:
			return
		default:
			time.Sleep(time.Second)
		}
	}
}

// Close stops consumers and closes Kafka resources.
func (b *KafkaBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	close(b.consumerStop)
	b.consumerWg.Wait()

	var firstErr error
	for _, c := range []interface{ Close() error }{b.consumer, b.producer, b.client} {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	b.mu.Lock()
	b.handlers = nil
	b.mu.Unlock()

	if firstErr != nil {
		return errors.Wrap(errors.CodeInternal, "closing kafka bus", firstErr)
	}
	return nil
}

type consumerGroupHandler struct {
	bus   *KafkaBus
	topic string
}

func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case <-session.Context().Done():
			return nil
		case msg := <-claim.Messages():
			if msg == nil {
				return nil
			}

			var event Event
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				h.bus.log.Warn("dropping undecodable kafka message", "topic", h.topic, "error", err)
				session.MarkMessage(msg, "")
				continue
			}

			h.bus.mu.RLock()
			handlers := h.bus.handlers[h.topic]
			h.bus.mu.RUnlock()

			for _, handler := range handlers {
				if err := handler(session.Context(), event); err != nil {
					h.bus.log.Warn("bus handler failed", "topic", h.topic, "event_type", event.Type, "error", err)
				}
			}
			session.MarkMessage(msg, "")
		}
	}
}
