package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	xutil "FinTrain/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Symbol      string `yaml:"symbol" default:"BTC-CAD" validate:"required"`
	Log         struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowThreshold   time.Duration `yaml:"slow_threshold" default:"500ms"`
		RateLimit       float64       `yaml:"rate_limit" default:"20" validate:"gte=0"`
		RateBurst       int           `yaml:"rate_burst" default:"40" validate:"gte=1"`
	} `yaml:"server"`
	Source struct {
		Type string `yaml:"type" default:"kafka" validate:"oneof=kafka clickhouse"`
	} `yaml:"source"`
	Kafka struct {
		Brokers      []string `yaml:"brokers" default:"[\"localhost:9092\"]" validate:"min=1"`
		Topic        string   `yaml:"topic"`
		MetricsTopic string   `yaml:"metrics_topic"`
		Compression  string   `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
		Consumer     struct {
			Partitions       []int         `yaml:"partitions"`
			IdleTimeout      time.Duration `yaml:"idle_timeout" default:"1s" validate:"gt=0"`
			FirstReadTimeout time.Duration `yaml:"first_read_timeout" default:"10s" validate:"gt=0"`
			MinBytes         int           `yaml:"min_bytes" default:"1"`
			MaxBytes         int           `yaml:"max_bytes" default:"10000000"`
		} `yaml:"consumer"`
		Producer struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			Linger       time.Duration `yaml:"linger" default:"100ms"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"fintrain"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		Table            string        `yaml:"table" default:"ticks"`
		Since            string        `yaml:"since"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	Redis struct {
		Host         string        `yaml:"host" default:"localhost"`
		Port         int           `yaml:"port" default:"6379"`
		Password     string        `yaml:"password"`
		DB           int           `yaml:"db"`
		Prefix       string        `yaml:"prefix" default:"fintrain"`
		PoolSize     int           `yaml:"pool_size" default:"4" validate:"gte=1"`
		MinIdleConns int           `yaml:"min_idle_conns" default:"1"`
		PoolTimeout  time.Duration `yaml:"pool_timeout" default:"5s"`
	} `yaml:"redis"`
	Snapshot struct {
		Backend string `yaml:"backend" default:"file" validate:"oneof=file redis"`
		Path    string `yaml:"path" default:"model_data" validate:"required"`
	} `yaml:"snapshot"`
	Model struct {
		Kind     string  `yaml:"kind" default:"mlp" validate:"oneof=linear mlp"`
		Features int     `yaml:"features" default:"15" validate:"gte=1"`
		Labels   int     `yaml:"labels" default:"5" validate:"gte=1"`
		Hidden   int     `yaml:"hidden" default:"32" validate:"gte=1"`
		Dropout  float64 `yaml:"dropout" validate:"gte=0,lt=1"`
	} `yaml:"model"`
	Training struct {
		Epochs       int     `yaml:"epochs" default:"5" validate:"gte=1"`
		BatchSize    int     `yaml:"batch_size" default:"10" validate:"gte=1"`
		LearningRate float64 `yaml:"learning_rate" default:"0.01" validate:"gt=0"`
		SplitRatio   float64 `yaml:"split_ratio" default:"0.8" validate:"gt=0,lt=1"`
		Seed         int64   `yaml:"seed"`
		NotifyURL    string  `yaml:"notify_url"`
	} `yaml:"training"`
	Finnhub struct {
		APIKey         string        `yaml:"api_key"`
		WebSocketURL   string        `yaml:"websocket_url" default:"wss://ws.finnhub.io"`
		Symbols        []string      `yaml:"symbols"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"5s"`
		PingInterval   time.Duration `yaml:"ping_interval" default:"30s"`
		// Topics maps a Finnhub symbol (e.g. BINANCE:BTCUSDT) to the topic it feeds.
		Topics map[string]string `yaml:"topics"`
	} `yaml:"finnhub"`
	Collector struct {
		// Interval is the sampling period of the published ticks.
		Interval   time.Duration `yaml:"interval" default:"2m"`
		BufferSize int           `yaml:"buffer_size" default:"1000" validate:"gte=1"`
		Sinks      []string      `yaml:"sinks" default:"[\"kafka\"]" validate:"min=1,dive,oneof=kafka clickhouse"`
	} `yaml:"collector"`
}

var validate = validator.New()

// Window returns the sliding window length (features + labels).
func (c *Config) Window() int { return c.Model.Features + c.Model.Labels }

// Load reads and parses a YAML configuration file, fills defaults and validates.
// A missing file is not an error: the defaults alone describe a runnable job.
func Load(path string) (*Config, error) {
	var c Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	c.finalize()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv()
	c.finalize()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// SetSymbol switches the currency pair; the topic follows unless it was set explicitly.
func (c *Config) SetSymbol(symbol string) {
	if symbol == "" {
		return
	}
	if c.Kafka.Topic == c.Symbol {
		c.Kafka.Topic = symbol
	}
	c.Symbol = symbol
}

func (c *Config) applyEnv() {
	if v := os.Getenv("SYMBOL"); v != "" {
		c.SetSymbol(v)
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("SOURCE_BACKEND"); v != "" {
		c.Source.Type = v
	}
	if v := os.Getenv("MODEL_PATH"); v != "" {
		c.Snapshot.Path = v
	}
	if v := os.Getenv("NOTIFY_URL"); v != "" {
		c.Training.NotifyURL = v
	}
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		c.Finnhub.APIKey = v
	}
	c.Training.Epochs = xutil.ParseIntDefault(os.Getenv("TRAIN_EPOCHS"), c.Training.Epochs)
	c.Training.Seed = xutil.ParseInt64Default(os.Getenv("TRAIN_SEED"), c.Training.Seed)
}

func (c *Config) finalize() {
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = c.Symbol
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Source.Type == "clickhouse" && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when source.type is clickhouse")
	}
	if c.ClickHouse.Since != "" {
		if _, ok := xutil.ParseTime(c.ClickHouse.Since); !ok {
			return fmt.Errorf("clickhouse.since: cannot parse %q", c.ClickHouse.Since)
		}
	}
	return nil
}
