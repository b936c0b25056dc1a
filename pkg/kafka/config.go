package kafka

import "time"

// ProducerOption configures Producer.
type ProducerOption func(*ProducerConfig)

// ProducerConfig holds producer configuration.
type ProducerConfig struct {
	Brokers      []string
	RequiredAcks int
	Compression  string
	MaxAttempts  int
	WriteTimeout time.Duration
	BatchSize    int
	BatchTimeout time.Duration
	HashByKey    bool
}

// WithBrokers sets Kafka brokers.
func WithBrokers(brokers []string) ProducerOption {
	return func(c *ProducerConfig) {
		c.Brokers = brokers
	}
}

// WithCompression sets compression type.
func WithCompression(compression string) ProducerOption {
	return func(c *ProducerConfig) {
		c.Compression = compression
	}
}

// WithRequiredAcks sets required acknowledgements (-1 = all).
func WithRequiredAcks(acks int) ProducerOption {
	return func(c *ProducerConfig) {
		c.RequiredAcks = acks
	}
}

// WithMaxAttempts sets max retry attempts by the writer.
func WithMaxAttempts(n int) ProducerOption {
	return func(c *ProducerConfig) {
		c.MaxAttempts = n
	}
}

// WithBatchSize sets batch size.
func WithBatchSize(size int) ProducerOption {
	return func(c *ProducerConfig) {
		c.BatchSize = size
	}
}

// WithBatchTimeout sets batch timeout.
func WithBatchTimeout(timeout time.Duration) ProducerOption {
	return func(c *ProducerConfig) {
		c.BatchTimeout = timeout
	}
}

// WithWriteTimeout sets the writer write timeout.
func WithWriteTimeout(timeout time.Duration) ProducerOption {
	return func(c *ProducerConfig) {
		c.WriteTimeout = timeout
	}
}

// WithHashByKey sets hash balancer for per-key (symbol) ordering.
func WithHashByKey(hash bool) ProducerOption {
	return func(c *ProducerConfig) {
		c.HashByKey = hash
	}
}

// DrainOption configures Drainer.
type DrainOption func(*DrainConfig)

// DrainConfig holds the bounded topic read configuration.
type DrainConfig struct {
	Brokers          []string
	Topic            string
	Partitions       []int // empty drains every partition
	IdleTimeout      time.Duration
	FirstReadTimeout time.Duration
	MinBytes         int
	MaxBytes         int
}

// WithDrainBrokers sets Kafka brokers.
func WithDrainBrokers(brokers []string) DrainOption {
	return func(c *DrainConfig) {
		c.Brokers = brokers
	}
}

// WithDrainTopic sets the topic to read.
func WithDrainTopic(topic string) DrainOption {
	return func(c *DrainConfig) {
		c.Topic = topic
	}
}

// WithDrainPartitions restricts the drain to the given partitions.
// Without it every partition of the topic is read.
func WithDrainPartitions(partitions ...int) DrainOption {
	return func(c *DrainConfig) {
		c.Partitions = partitions
	}
}

func (c *DrainConfig) wants(partition int) bool {
	if len(c.Partitions) == 0 {
		return true
	}
	for _, p := range c.Partitions {
		if p == partition {
			return true
		}
	}
	return false
}

// WithIdleTimeout sets how long a read may wait for a new message before the drain ends.
func WithIdleTimeout(timeout time.Duration) DrainOption {
	return func(c *DrainConfig) {
		if timeout > 0 {
			c.IdleTimeout = timeout
		}
	}
}

// WithFirstReadTimeout sets the wait for the first message.
func WithFirstReadTimeout(timeout time.Duration) DrainOption {
	return func(c *DrainConfig) {
		if timeout > 0 {
			c.FirstReadTimeout = timeout
		}
	}
}

// WithDrainFetch sets fetch min/max bytes.
func WithDrainFetch(minBytes, maxBytes int) DrainOption {
	return func(c *DrainConfig) {
		c.MinBytes = minBytes
		c.MaxBytes = maxBytes
	}
}
