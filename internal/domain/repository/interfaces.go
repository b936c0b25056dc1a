package repository

import (
	"context"
	"errors"

	"FinTrain/internal/domain/models"
)

// ErrSnapshotNotFound is returned by a SnapshotStore that holds no snapshot yet.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// ObservationSource drains an ordered, bounded sequence of prices.
type ObservationSource interface {
	Drain(ctx context.Context) ([]float64, error)
	Close() error
}

// SnapshotStore persists serialized predictor state.
type SnapshotStore interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Location() string
}

// MetricsSink receives each epoch's metrics as soon as the epoch completes.
type MetricsSink interface {
	RecordEpoch(ctx context.Context, m models.EpochMetrics) error
}

// ReloadNotifier tells a running inference server that a new snapshot is stored.
type ReloadNotifier interface {
	NotifyReload(ctx context.Context) error
}

// TickPublisher writes price ticks to the symbol topic.
type TickPublisher interface {
	Publish(ctx context.Context, t *models.Tick) error
	PublishBatch(ctx context.Context, ticks []*models.Tick) error
	Close() error
}

// MarketStream is a live source of ticks, used by the collector.
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Metrics records operational measurements.
type Metrics interface {
	RecordObservations(source string, n int)
	RecordExamples(n int)
	RecordEpoch(symbol string, m models.EpochMetrics)
	RecordTrainDuration(symbol string, seconds float64)
	RecordPrediction(seconds float64)
	RecordTickPublished(symbol string)
	RecordLastPrice(symbol string, price float64)
	RecordError(kind string)
}
