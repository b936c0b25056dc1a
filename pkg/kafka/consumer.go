package kafka

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// MessageHandler handles messages from a specific topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// Reader is the subset of *kafka.Reader used by Drainer.
type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Drainer reads every partition of a topic from the first offset until no
// message arrives within the idle timeout. It keeps no consumer group and
// commits nothing, so every drain sees the whole retained topic.
type Drainer struct {
	cfg        *DrainConfig
	newReader  func(cfg *DrainConfig, partition int) Reader
	partitions func(ctx context.Context, cfg *DrainConfig) ([]PartitionRange, error)
	hook       ConsumerHook
}

// PartitionRange is the retained offset span of one partition.
// Last is the offset the next written message will get.
type PartitionRange struct {
	Partition int
	First     int64
	Last      int64
}

// Empty reports whether the partition held no message when it was listed.
func (p PartitionRange) Empty() bool { return p.Last <= p.First }

// NewDrainer creates a new bounded topic reader.
func NewDrainer(opts ...DrainOption) (*Drainer, error) {
	cfg := &DrainConfig{
		IdleTimeout:      time.Second,
		FirstReadTimeout: 10 * time.Second,
		MinBytes:         1,
		MaxBytes:         10e6, // 10MB
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	initDrainMetricsOnce()
	return newDrainer(cfg, newKafkaReader, listKafkaPartitions), nil
}

func newDrainer(
	cfg *DrainConfig,
	newReader func(*DrainConfig, int) Reader,
	partitions func(context.Context, *DrainConfig) ([]PartitionRange, error),
) *Drainer {
	return &Drainer{cfg: cfg, newReader: newReader, partitions: partitions, hook: NoopHook{}}
}

func newKafkaReader(cfg *DrainConfig, partition int) Reader {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   cfg.Brokers,
		Topic:     cfg.Topic,
		Partition: partition,
		MinBytes:  cfg.MinBytes,
		MaxBytes:  cfg.MaxBytes,
		MaxWait:   cfg.IdleTimeout,
	})
	// No consumer group: every drain reads the partition from its first retained offset.
	_ = r.SetOffset(kafka.FirstOffset)
	return r
}

// listKafkaPartitions asks the first reachable broker for the topic layout,
// then each partition leader for its offset span.
func listKafkaPartitions(ctx context.Context, cfg *DrainConfig) ([]PartitionRange, error) {
	var (
		conn *kafka.Conn
		err  error
	)
	for _, broker := range cfg.Brokers {
		conn, err = kafka.DialContext(ctx, "tcp", broker)
		if err == nil {
			break
		}
	}
	if conn == nil {
		return nil, fmt.Errorf("dial brokers: %w", err)
	}
	parts, err := conn.ReadPartitions(cfg.Topic)
	_ = conn.Close()
	if err != nil {
		return nil, fmt.Errorf("read partitions: %w", err)
	}

	out := make([]PartitionRange, 0, len(parts))
	for _, p := range parts {
		if !cfg.wants(p.ID) {
			continue
		}
		leader := net.JoinHostPort(p.Leader.Host, strconv.Itoa(p.Leader.Port))
		pc, err := kafka.DialLeader(ctx, "tcp", leader, cfg.Topic, p.ID)
		if err != nil {
			return nil, fmt.Errorf("dial leader of partition %d: %w", p.ID, err)
		}
		first, last, err := pc.ReadOffsets()
		_ = pc.Close()
		if err != nil {
			return nil, fmt.Errorf("read offsets of partition %d: %w", p.ID, err)
		}
		out = append(out, PartitionRange{Partition: p.ID, First: first, Last: last})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Partition < out[j].Partition })
	return out, nil
}

// WithConsumerHook sets a hook implementation for lifecycle events.
func (d *Drainer) WithConsumerHook(h ConsumerHook) {
	if h != nil {
		d.hook = h
	}
}

// Topic returns the drained topic.
func (d *Drainer) Topic() string { return d.cfg.Topic }

// Drain feeds every message to handler and returns the number handled.
// Partitions are drained one after another in partition order, each in
// offset order; partitions that were empty when listed are skipped.
// A handler error stops the drain; the error carries partition and offset.
func (d *Drainer) Drain(ctx context.Context, handler MessageHandler) (int, error) {
	topic := d.cfg.Topic
	parts, err := d.partitions(ctx, d.cfg)
	if err != nil {
		return 0, fmt.Errorf("list topic %s: %w", topic, err)
	}
	if len(parts) == 0 {
		return 0, fmt.Errorf("topic %s: no partitions to drain", topic)
	}

	handled := 0
	for _, p := range parts {
		if p.Empty() {
			continue
		}
		n, err := d.drainPartition(ctx, p.Partition, handler)
		handled += n
		if err != nil {
			return handled, err
		}
	}
	return handled, nil
}

func (d *Drainer) drainPartition(ctx context.Context, partition int, handler MessageHandler) (int, error) {
	reader := d.newReader(d.cfg, partition)
	defer reader.Close()

	topic := d.cfg.Topic
	timeout := d.cfg.FirstReadTimeout
	handled := 0
	for {
		if err := ctx.Err(); err != nil {
			return handled, err
		}

		rctx, cancel := context.WithTimeout(ctx, timeout)
		msg, err := reader.ReadMessage(rctx)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				return handled, nil
			}
			if ctx.Err() != nil {
				return handled, ctx.Err()
			}
			return handled, fmt.Errorf("read topic %s partition %d: %w", topic, partition, err)
		}
		timeout = d.cfg.IdleTimeout

		start := time.Now()
		hctx, hmsg, hdata, err := d.hook.BeforeHandle(ctx, topic, msg, msg.Value)
		if err == nil {
			err = handler.Handle(hctx, hdata)
		}
		d.hook.AfterHandle(hctx, topic, hmsg, hdata, err)
		observeDrain(topic, time.Since(start), err)
		if err != nil {
			d.hook.OnError(hctx, topic, hmsg, hdata, err)
			return handled, fmt.Errorf("topic %s partition %d offset %d: %w", topic, msg.Partition, msg.Offset, err)
		}
		handled++
	}
}

// Drain metrics
var (
	drainMessagesTotal *prometheus.CounterVec
	drainHandleLatency *prometheus.HistogramVec
	drainOnce          = make(chan struct{}, 1)
	drainRegisterer    prometheus.Registerer
)

// SetDrainMetricsRegisterer sets a custom Prometheus registerer for drain metrics (useful for testing).
func SetDrainMetricsRegisterer(reg prometheus.Registerer) { drainRegisterer = reg }

func initDrainMetricsOnce() {
	select {
	case drainOnce <- struct{}{}:
		f := promauto.With(prometheus.DefaultRegisterer)
		if drainRegisterer != nil {
			f = promauto.With(drainRegisterer)
		}
		drainMessagesTotal = f.NewCounterVec(
			prometheus.CounterOpts{Name: "fintrain_kafka_drain_messages_total", Help: "Messages read by the topic drain"},
			[]string{"topic", "result"},
		)
		drainHandleLatency = f.NewHistogramVec(
			prometheus.HistogramOpts{Name: "fintrain_kafka_drain_handle_seconds", Help: "Handling time per drained message"},
			[]string{"topic"},
		)
	default:
		// already initialized
	}
}

func observeDrain(topic string, dur time.Duration, err error) {
	if drainMessagesTotal == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	drainMessagesTotal.WithLabelValues(topic, result).Inc()
	drainHandleLatency.WithLabelValues(topic).Observe(dur.Seconds())
}
