package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"FinTrain/internal/domain/models"
	domrepo "FinTrain/internal/domain/repository"
	pkgkafka "FinTrain/pkg/kafka"
	applogger "FinTrain/pkg/logger"
)

type topicDrainer interface {
	Topic() string
	Drain(ctx context.Context, h pkgkafka.MessageHandler) (int, error)
}

// KafkaTickSource drains the symbol topic into an ordered price slice.
type KafkaTickSource struct {
	drainer topicDrainer
	metrics domrepo.Metrics
	l       *applogger.Logger
}

// NewKafkaTickSource wraps a drainer configured for the symbol topic.
func NewKafkaTickSource(d *pkgkafka.Drainer, metrics domrepo.Metrics, l *applogger.Logger) *KafkaTickSource {
	return newKafkaTickSource(d, metrics, l)
}

func newKafkaTickSource(d topicDrainer, metrics domrepo.Metrics, l *applogger.Logger) *KafkaTickSource {
	return &KafkaTickSource{drainer: d, metrics: metrics, l: l}
}

// Drain reads the topic from the first offset until it goes idle.
// A malformed message fails the whole drain.
func (s *KafkaTickSource) Drain(ctx context.Context) ([]float64, error) {
	h := &ticksHandler{topic: s.drainer.Topic()}
	n, err := s.drainer.Drain(ctx, h)
	if err != nil {
		if errors.Is(err, models.ErrMalformedTick) {
			s.metrics.RecordError("malformed_tick")
		}
		return nil, fmt.Errorf("drain kafka: %w", err)
	}
	s.l.Debug("kafka drain complete",
		applogger.String("topic", h.topic),
		applogger.Int("messages", n),
	)
	return h.prices, nil
}

func (s *KafkaTickSource) Close() error { return nil }

// ticksHandler collects the price of every tick message in arrival order.
type ticksHandler struct {
	topic  string
	prices []float64
}

func (h *ticksHandler) Topic() string { return h.topic }

func (h *ticksHandler) Handle(_ context.Context, b []byte) error {
	t, err := models.DecodeTick(b)
	if err != nil {
		return err
	}
	h.prices = append(h.prices, *t.Price)
	return nil
}

type tickProducer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// KafkaTickPublisher writes ticks to the topic resolved from their symbol.
type KafkaTickPublisher struct {
	producer tickProducer
	topics   map[string]string
}

// NewKafkaTickPublisher creates Kafka publisher. topics maps a stream symbol to
// its topic; unmapped symbols use TopicForSymbol.
func NewKafkaTickPublisher(producer *pkgkafka.Producer, topics map[string]string) *KafkaTickPublisher {
	return newKafkaTickPublisher(producer, topics)
}

func newKafkaTickPublisher(producer tickProducer, topics map[string]string) *KafkaTickPublisher {
	return &KafkaTickPublisher{producer: producer, topics: topics}
}

// TopicForSymbol derives a topic name from a stream symbol (BINANCE:BTCUSDT -> BINANCE-BTCUSDT).
func TopicForSymbol(symbol string) string {
	return strings.NewReplacer(":", "-", "/", "-").Replace(symbol)
}

func (p *KafkaTickPublisher) topic(symbol string) string {
	if t, ok := p.topics[symbol]; ok && t != "" {
		return t
	}
	return TopicForSymbol(symbol)
}

func (p *KafkaTickPublisher) Publish(ctx context.Context, t *models.Tick) error {
	if t == nil || t.Price == nil {
		return models.ErrMalformedTick
	}
	return p.producer.Publish(ctx, p.topic(t.Symbol), []byte(t.Symbol), t)
}

// PublishBatch groups ticks by topic, keeping per-topic order.
func (p *KafkaTickPublisher) PublishBatch(ctx context.Context, ticks []*models.Tick) error {
	if len(ticks) == 0 {
		return nil
	}
	byTopic := make(map[string][]pkgkafka.Message)
	order := make([]string, 0, 1)
	for _, t := range ticks {
		if t == nil || t.Price == nil {
			continue
		}
		topic := p.topic(t.Symbol)
		if _, ok := byTopic[topic]; !ok {
			order = append(order, topic)
		}
		byTopic[topic] = append(byTopic[topic], pkgkafka.Message{Key: []byte(t.Symbol), Value: t})
	}
	for _, topic := range order {
		if err := p.producer.PublishBatch(ctx, topic, byTopic[topic]); err != nil {
			return err
		}
	}
	return nil
}

func (p *KafkaTickPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// KafkaMetricsSink publishes one JSON message per completed epoch.
type KafkaMetricsSink struct {
	producer tickProducer
	topic    string
}

// NewKafkaMetricsSink creates an epoch metrics sink on topic.
func NewKafkaMetricsSink(producer *pkgkafka.Producer, topic string) *KafkaMetricsSink {
	return &KafkaMetricsSink{producer: producer, topic: topic}
}

func (s *KafkaMetricsSink) RecordEpoch(ctx context.Context, m models.EpochMetrics) error {
	return s.producer.Publish(ctx, s.topic, []byte(m.Symbol), m)
}

var (
	_ domrepo.ObservationSource = (*KafkaTickSource)(nil)
	_ domrepo.TickPublisher     = (*KafkaTickPublisher)(nil)
	_ domrepo.MetricsSink       = (*KafkaMetricsSink)(nil)
	_ pkgkafka.MessageHandler   = (*ticksHandler)(nil)
)
