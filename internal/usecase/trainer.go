package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"FinTrain/internal/domain/models"
	domrepo "FinTrain/internal/domain/repository"
	"FinTrain/internal/services/dataset"
	"FinTrain/internal/services/model"
	applogger "FinTrain/pkg/logger"
)

// TrainerOption configures Trainer.
type TrainerOption func(*Trainer)

// WithBatchSize sets the mini-batch size for both training and validation.
func WithBatchSize(n int) TrainerOption {
	return func(t *Trainer) {
		if n > 0 {
			t.batchSize = n
		}
	}
}

// WithLearningRate sets the SGD step size.
func WithLearningRate(lr float64) TrainerOption {
	return func(t *Trainer) {
		if lr > 0 {
			t.lr = lr
		}
	}
}

// WithSymbol labels logs and metrics with the currency pair.
func WithSymbol(symbol string) TrainerOption {
	return func(t *Trainer) { t.symbol = symbol }
}

// WithMetricsSink adds a per-epoch metrics sink. Nil sinks are ignored.
func WithMetricsSink(s domrepo.MetricsSink) TrainerOption {
	return func(t *Trainer) {
		if s != nil {
			t.sinks = append(t.sinks, s)
		}
	}
}

// Trainer runs mini-batch SGD epochs over a predictor it does not own.
type Trainer struct {
	predictor model.Predictor
	rng       *rand.Rand
	metrics   domrepo.Metrics
	logger    *applogger.Logger
	sinks     []domrepo.MetricsSink
	batchSize int
	lr        float64
	symbol    string
}

// NewTrainer creates a trainer. rng drives batch shuffling; fix its seed for reproducible runs.
func NewTrainer(p model.Predictor, rng *rand.Rand, metrics domrepo.Metrics, l *applogger.Logger, opts ...TrainerOption) *Trainer {
	t := &Trainer{
		predictor: p,
		rng:       rng,
		metrics:   metrics,
		logger:    l,
		batchSize: 10,
		lr:        0.01,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Train runs the given number of epochs and returns one metrics record per epoch.
// It never persists anything; callers save the predictor afterwards.
func (t *Trainer) Train(ctx context.Context, train, val []models.Example, epochs int) ([]models.EpochMetrics, error) {
	if len(train) == 0 || len(val) == 0 {
		return nil, fmt.Errorf("%w: train=%d val=%d", dataset.ErrEmptyDataset, len(train), len(val))
	}
	if epochs < 1 {
		return nil, fmt.Errorf("train: epochs must be >= 1, got %d", epochs)
	}
	if err := t.checkShapes(train, "train"); err != nil {
		return nil, err
	}
	if err := t.checkShapes(val, "val"); err != nil {
		return nil, err
	}

	opt := model.NewSGD(t.predictor.Parameters(), t.lr)
	log := make([]models.EpochMetrics, 0, epochs)
	start := time.Now()

	for epoch := 0; epoch < epochs; epoch++ {
		trainLoss, err := t.trainEpoch(ctx, opt, train)
		if err != nil {
			return log, fmt.Errorf("epoch %d train: %w", epoch, err)
		}
		valLoss, acc, err := t.evaluate(ctx, val)
		if err != nil {
			return log, fmt.Errorf("epoch %d eval: %w", epoch, err)
		}

		m := models.EpochMetrics{Symbol: t.symbol, Epoch: epoch, TrainLoss: trainLoss, ValLoss: valLoss, Accuracy: acc}
		log = append(log, m)
		t.report(ctx, m)
	}

	if t.metrics != nil {
		t.metrics.RecordTrainDuration(t.symbol, time.Since(start).Seconds())
	}
	return log, nil
}

func (t *Trainer) trainEpoch(ctx context.Context, opt *model.SGD, train []models.Example) (float64, error) {
	t.predictor.SetMode(model.ModeTrain)
	batches := dataset.Batches(len(train), t.batchSize, t.rng)

	var total float64
	for _, idx := range batches {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		x, y := gather(train, idx)

		opt.ZeroGrad()
		out, err := t.predictor.Forward(x)
		if err != nil {
			return 0, err
		}
		loss, grad, err := model.MSE(out, y)
		if err != nil {
			return 0, err
		}
		if err := t.predictor.Backward(grad); err != nil {
			return 0, err
		}
		opt.Step()
		total += loss
	}
	return total / float64(len(batches)), nil
}

func (t *Trainer) evaluate(ctx context.Context, val []models.Example) (float64, float64, error) {
	t.predictor.SetMode(model.ModeEval)
	batches := dataset.Batches(len(val), t.batchSize, t.rng)

	var lossSum, accSum float64
	for _, idx := range batches {
		if err := ctx.Err(); err != nil {
			return 0, 0, err
		}
		x, y := gather(val, idx)
		out, err := t.predictor.Forward(x)
		if err != nil {
			return 0, 0, err
		}
		loss, _, err := model.MSE(out, y)
		if err != nil {
			return 0, 0, err
		}
		lossSum += loss
		accSum += model.DirectionalAccuracy(out, y)
	}
	n := float64(len(batches))
	return lossSum / n, accSum / n, nil
}

func (t *Trainer) report(ctx context.Context, m models.EpochMetrics) {
	if t.logger != nil {
		t.logger.Info(fmt.Sprintf("Epoch %d: | Train loss: %.3f | Val loss: %.3f | Accuracy: %.6f%%",
			m.Epoch, m.TrainLoss, m.ValLoss, m.Accuracy*100),
			applogger.String("symbol", t.symbol),
			applogger.Int("epoch", m.Epoch),
			applogger.Float64("train_loss", m.TrainLoss),
			applogger.Float64("val_loss", m.ValLoss),
			applogger.Float64("accuracy", m.Accuracy),
		)
	}
	if t.metrics != nil {
		t.metrics.RecordEpoch(t.symbol, m)
	}
	for _, s := range t.sinks {
		if err := s.RecordEpoch(ctx, m); err != nil {
			if t.metrics != nil {
				t.metrics.RecordError("metrics_sink")
			}
			if t.logger != nil {
				t.logger.Warn("epoch metrics sink failed", applogger.Int("epoch", m.Epoch), applogger.Error(err))
			}
		}
	}
}

func (t *Trainer) checkShapes(examples []models.Example, set string) error {
	in, out := t.predictor.InputSize(), t.predictor.OutputSize()
	for i, ex := range examples {
		if len(ex.Features) != in || len(ex.Labels) != out {
			return fmt.Errorf("%w: %s example %d has %d/%d values, predictor expects %d/%d",
				model.ErrShapeMismatch, set, i, len(ex.Features), len(ex.Labels), in, out)
		}
	}
	return nil
}

func gather(examples []models.Example, idx []int) ([][]float64, [][]float64) {
	x := make([][]float64, len(idx))
	y := make([][]float64, len(idx))
	for i, j := range idx {
		x[i] = examples[j].Features
		y[i] = examples[j].Labels
	}
	return x, y
}
