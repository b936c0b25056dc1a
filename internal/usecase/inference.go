package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"FinTrain/internal/domain/models"
	domrepo "FinTrain/internal/domain/repository"
	"FinTrain/internal/services/model"
	applogger "FinTrain/pkg/logger"
)

// Inference serves predictions from an explicitly owned predictor.
type Inference struct {
	mu        sync.RWMutex
	predictor model.Predictor
	store     domrepo.SnapshotStore
	metrics   domrepo.Metrics
	logger    *applogger.Logger
	symbol    string
	fresh     bool
}

func NewInference(p model.Predictor, store domrepo.SnapshotStore, metrics domrepo.Metrics, l *applogger.Logger, symbol string) *Inference {
	return &Inference{predictor: p, store: store, metrics: metrics, logger: l, symbol: symbol, fresh: true}
}

// Reload replaces the predictor parameters with the stored snapshot, if any.
func (s *Inference) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fresh, err := LoadPredictor(ctx, s.store, s.predictor)
	if err != nil {
		s.metrics.RecordError("snapshot_load")
		return err
	}
	s.fresh = fresh
	if fresh {
		s.logger.Warn("no model snapshot found, serving untrained parameters", applogger.String("snapshot", s.store.Location()))
	}
	return nil
}

// Predict maps one feature window to a label window.
func (s *Inference) Predict(ctx context.Context, features []float64) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	// Predict caches nothing and never touches the mode, so a read lock suffices.
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(features) != s.predictor.InputSize() {
		return nil, fmt.Errorf("%w: got %d features, want %d", model.ErrShapeMismatch, len(features), s.predictor.InputSize())
	}
	out, err := s.predictor.Predict(features)
	if err != nil {
		s.metrics.RecordError("predict")
		return nil, err
	}
	s.metrics.RecordPrediction(time.Since(start).Seconds())
	return out, nil
}

// Info describes the served model.
func (s *Inference) Info() models.ModelInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.ModelInfo{
		Kind:       s.predictor.Kind(),
		Symbol:     s.symbol,
		InputSize:  s.predictor.InputSize(),
		OutputSize: s.predictor.OutputSize(),
		Fresh:      s.fresh,
	}
}
