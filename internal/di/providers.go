package di

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"FinTrain/internal/domain/repository"
	handlerapi "FinTrain/internal/handler/api"
	mid "FinTrain/internal/middleware"
	internalrepo "FinTrain/internal/repository"
	"FinTrain/internal/service/finnhub"
	"FinTrain/internal/service/ratelimit"
	"FinTrain/internal/services/dataset"
	"FinTrain/internal/services/model"
	"FinTrain/internal/usecase"
	"FinTrain/pkg/cache"
	pkgch "FinTrain/pkg/clickhouse"
	"FinTrain/pkg/config"
	xhttp "FinTrain/pkg/http"
	pkgkafka "FinTrain/pkg/kafka"
	applogger "FinTrain/pkg/logger"
	"FinTrain/pkg/metrics"
	"FinTrain/pkg/server"
	xutil "FinTrain/pkg/util"

	kafkago "github.com/segmentio/kafka-go"
)

const notifyTimeout = 10 * time.Second

func noop() {}

// ProvideLogger creates the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRand creates the shared random source; seed 0 seeds from the clock.
func ProvideRand(cfg *config.Config) *rand.Rand {
	return dataset.NewRand(cfg.Training.Seed)
}

func newClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

func newKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithWriteTimeout(cfg.Kafka.Producer.WriteTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideObservationSource creates the price source selected by source.type.
func ProvideObservationSource(cfg *config.Config, m repository.Metrics, l *applogger.Logger) (repository.ObservationSource, func(), error) {
	switch cfg.Source.Type {
	case "clickhouse":
		client, err := newClickHouseClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		since, _ := xutil.ParseTime(cfg.ClickHouse.Since)
		src := internalrepo.NewClickHouseTicks(client, cfg.ClickHouse.Table, cfg.Symbol, since, l)
		return src, func() { _ = client.Close() }, nil
	default:
		drainer, err := pkgkafka.NewDrainer(
			pkgkafka.WithDrainBrokers(cfg.Kafka.Brokers),
			pkgkafka.WithDrainTopic(cfg.Kafka.Topic),
			pkgkafka.WithDrainPartitions(cfg.Kafka.Consumer.Partitions...),
			pkgkafka.WithIdleTimeout(cfg.Kafka.Consumer.IdleTimeout),
			pkgkafka.WithFirstReadTimeout(cfg.Kafka.Consumer.FirstReadTimeout),
			pkgkafka.WithDrainFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("kafka drainer: %w", err)
		}
		drainer.WithConsumerHook(pkgkafka.HookFuncs{
			Err: func(_ context.Context, topic string, km kafkago.Message, _ []byte, err error) {
				l.Warn("kafka message rejected",
					applogger.String("topic", topic),
					applogger.Int("partition", km.Partition),
					applogger.Int64("offset", km.Offset),
					applogger.Error(err),
				)
			},
		})
		return internalrepo.NewKafkaTickSource(drainer, m, l), noop, nil
	}
}

// ProvideSnapshotStore creates the snapshot store selected by snapshot.backend.
func ProvideSnapshotStore(cfg *config.Config) (repository.SnapshotStore, func(), error) {
	switch cfg.Snapshot.Backend {
	case "redis":
		rc, err := cache.NewRedisCache(
			cache.WithRedisHost(cfg.Redis.Host),
			cache.WithRedisPort(cfg.Redis.Port),
			cache.WithRedisPassword(cfg.Redis.Password),
			cache.WithRedisDB(cfg.Redis.DB),
			cache.WithRedisPrefix(cfg.Redis.Prefix),
			cache.WithRedisPool(cfg.Redis.PoolSize, cfg.Redis.MinIdleConns, cfg.Redis.PoolTimeout),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("redis snapshot store: %w", err)
		}
		return internalrepo.NewRedisSnapshotStore(rc, cfg.Symbol), func() { _ = rc.Close() }, nil
	default:
		return internalrepo.NewFileSnapshotStore(cfg.Snapshot.Path), noop, nil
	}
}

// ProvideMetricsSink creates the optional epoch metrics topic sink.
func ProvideMetricsSink(cfg *config.Config) (repository.MetricsSink, func(), error) {
	if cfg.Kafka.MetricsTopic == "" {
		return nil, noop, nil
	}
	producer, err := newKafkaProducer(cfg)
	if err != nil {
		return nil, nil, err
	}
	return internalrepo.NewKafkaMetricsSink(producer, cfg.Kafka.MetricsTopic), func() { _ = producer.Close() }, nil
}

// ProvidePredictor builds the configured model with fresh parameters.
func ProvidePredictor(cfg *config.Config, rng *rand.Rand) (model.Predictor, error) {
	p, err := model.New(model.Spec{
		Kind:    cfg.Model.Kind,
		Inputs:  cfg.Model.Features,
		Outputs: cfg.Model.Labels,
		Hidden:  cfg.Model.Hidden,
		Dropout: cfg.Model.Dropout,
	}, rng)
	if err != nil {
		return nil, fmt.Errorf("predictor: %w", err)
	}
	return p, nil
}

// ProvideWindower creates the sliding window for features+labels.
func ProvideWindower(cfg *config.Config) (*dataset.Windower, error) {
	return dataset.NewWindower(cfg.Model.Features, cfg.Model.Labels)
}

// ProvideTrainer creates the epoch loop.
func ProvideTrainer(
	cfg *config.Config,
	p model.Predictor,
	rng *rand.Rand,
	m repository.Metrics,
	sink repository.MetricsSink,
	l *applogger.Logger,
) *usecase.Trainer {
	return usecase.NewTrainer(p, rng, m, l,
		usecase.WithBatchSize(cfg.Training.BatchSize),
		usecase.WithLearningRate(cfg.Training.LearningRate),
		usecase.WithSymbol(cfg.Symbol),
		usecase.WithMetricsSink(sink),
	)
}

// ProvideRetrainJob wires the retraining use case.
func ProvideRetrainJob(
	cfg *config.Config,
	src repository.ObservationSource,
	store repository.SnapshotStore,
	p model.Predictor,
	trainer *usecase.Trainer,
	w *dataset.Windower,
	rng *rand.Rand,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.RetrainJob {
	job := usecase.NewRetrainJob(src, store, p, trainer, w, rng, m, l, usecase.RetrainParams{
		Symbol:     cfg.Symbol,
		SourceName: cfg.Source.Type,
		SplitRatio: cfg.Training.SplitRatio,
		Epochs:     cfg.Training.Epochs,
	})
	if cfg.Training.NotifyURL != "" {
		job.WithNotifier(internalrepo.NewHTTPReloadNotifier(cfg.Training.NotifyURL, notifyTimeout))
	}
	return job
}

// ProvideInference creates the prediction use case.
func ProvideInference(cfg *config.Config, p model.Predictor, store repository.SnapshotStore, m repository.Metrics, l *applogger.Logger) *usecase.Inference {
	return usecase.NewInference(p, store, m, l, cfg.Symbol)
}

// ProvideRateLimiter creates the per-client predict limiter; a zero rate disables it.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if cfg.Server.RateLimit <= 0 {
		return nil
	}
	return ratelimit.New(float64(cfg.Server.RateBurst), cfg.Server.RateLimit)
}

// ProvideHTTPHandler creates the model API handler.
func ProvideHTTPHandler(l *applogger.Logger, inf *usecase.Inference, limiter *ratelimit.Limiter) xhttp.Handler {
	return handlerapi.NewModelEchoHandler(l, inf, limiter)
}

// ProvideHTTPServer creates the Echo server.
func ProvideHTTPServer(cfg *config.Config, h xhttp.Handler, l *applogger.Logger) *xhttp.Server {
	return xhttp.NewServer(h, l,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
	)
}

// ProvideFinnhubStream creates Finnhub WebSocket stream.
func ProvideFinnhubStream(cfg *config.Config, l *applogger.Logger) repository.MarketStream {
	return finnhub.New(
		cfg.Finnhub.APIKey,
		cfg.Finnhub.WebSocketURL,
		cfg.Finnhub.Symbols,
		cfg.Finnhub.ReconnectDelay,
		cfg.Finnhub.PingInterval,
		l,
	)
}

// ProvideTickRouter creates every sink listed in collector.sinks.
func ProvideTickRouter(cfg *config.Config, l *applogger.Logger) (*usecase.TickRouter, func(), error) {
	router := usecase.NewTickRouter()
	var chClient *pkgch.Client
	cleanup := func() {
		if err := router.Close(); err != nil {
			l.Warn("tick sink close error", applogger.Error(err))
		}
		if chClient != nil {
			_ = chClient.Close()
		}
	}

	for _, name := range cfg.Collector.Sinks {
		switch name {
		case "kafka":
			producer, err := newKafkaProducer(cfg)
			if err != nil {
				cleanup()
				return nil, nil, err
			}
			router.Add(name, internalrepo.NewKafkaTickPublisher(producer, cfg.Finnhub.Topics))
		case "clickhouse":
			client, err := newClickHouseClient(cfg)
			if err != nil {
				cleanup()
				return nil, nil, err
			}
			chClient = client

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err = client.InitSchema(ctx, internalrepo.SchemaStatements(cfg.ClickHouse.Table))
			cancel()
			if err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
			}
			router.Add(name, internalrepo.NewClickHouseTicks(client, cfg.ClickHouse.Table, "", time.Time{}, l))
		}
	}
	l.Info("tick sinks ready", applogger.Strings("sinks", router.Sinks()))
	return router, cleanup, nil
}

// ProvidePipeline creates the sampling buffer between the stream and the sinks.
func ProvidePipeline(cfg *config.Config, router *usecase.TickRouter, m repository.Metrics) *mid.RealtimePipeline {
	return mid.NewRealtimePipeline(router, m,
		mid.WithInterval(cfg.Collector.Interval),
		mid.WithBufferSize(cfg.Collector.BufferSize),
		mid.WithFlushBatch(cfg.Kafka.Producer.BatchSize),
	)
}

// ProvideTickCollector creates the tick collector use case.
func ProvideTickCollector(
	stream repository.MarketStream,
	pipeline *mid.RealtimePipeline,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.TickCollector {
	return usecase.NewTickCollector(stream, pipeline, m, l)
}

// ProvideTrainingApp creates the retraining application.
func ProvideTrainingApp(cfg *config.Config, l *applogger.Logger, job *usecase.RetrainJob) *server.App {
	return server.NewTrainingApp(cfg, l, job)
}

// ProvideServingApp creates the inference application.
func ProvideServingApp(cfg *config.Config, l *applogger.Logger, inf *usecase.Inference, srv *xhttp.Server) *server.App {
	return server.NewServingApp(cfg, l, inf, srv)
}

// ProvideCollectorApp creates the collector application.
func ProvideCollectorApp(cfg *config.Config, l *applogger.Logger, c *usecase.TickCollector, p *mid.RealtimePipeline) *server.App {
	return server.NewCollectorApp(cfg, l, c, p)
}
