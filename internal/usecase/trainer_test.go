package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinTrain/internal/domain/models"
	"FinTrain/internal/services/dataset"
	"FinTrain/internal/services/model"
	applogger "FinTrain/pkg/logger"
	pkgmetrics "FinTrain/pkg/metrics"
)

func TestTrainer_EmptyDataset(t *testing.T) {
	tr := NewTrainer(newLinear(t, 1), dataset.NewRand(1), pkgmetrics.Nop{}, applogger.Nop())
	ex := examples(t, wave(40))

	_, err := tr.Train(context.Background(), nil, ex, 1)
	assert.ErrorIs(t, err, dataset.ErrEmptyDataset)

	_, err = tr.Train(context.Background(), ex, nil, 1)
	assert.ErrorIs(t, err, dataset.ErrEmptyDataset)
}

func TestTrainer_RejectsBadEpochs(t *testing.T) {
	tr := NewTrainer(newLinear(t, 1), dataset.NewRand(1), nil, nil)
	ex := examples(t, wave(40))

	_, err := tr.Train(context.Background(), ex, ex, 0)
	assert.Error(t, err)
}

func TestTrainer_ShapeMismatch(t *testing.T) {
	tr := NewTrainer(newLinear(t, 1), dataset.NewRand(1), nil, nil)
	bad := []models.Example{{Features: make([]float64, 14), Labels: make([]float64, 5)}}
	good := examples(t, wave(30))

	_, err := tr.Train(context.Background(), bad, good, 1)
	assert.ErrorIs(t, err, model.ErrShapeMismatch)
}

func TestTrainer_OneRecordPerEpochAndSinks(t *testing.T) {
	sink := &recordingSink{}
	failing := &recordingSink{err: errBoom}
	tr := NewTrainer(newLinear(t, 1), dataset.NewRand(1), pkgmetrics.Nop{}, applogger.Nop(),
		WithSymbol("BTC-CAD"), WithMetricsSink(sink), WithMetricsSink(failing), WithMetricsSink(nil))
	ex := examples(t, wave(80))
	train, val, err := dataset.Split(ex, 0.8, dataset.NewRand(2))
	require.NoError(t, err)

	log, err := tr.Train(context.Background(), train, val, 3)
	require.NoError(t, err)
	require.Len(t, log, 3)
	for i, m := range log {
		assert.Equal(t, i, m.Epoch)
		assert.Equal(t, "BTC-CAD", m.Symbol)
		assert.GreaterOrEqual(t, m.Accuracy, 0.0)
		assert.LessOrEqual(t, m.Accuracy, 1.0)
		assert.GreaterOrEqual(t, m.TrainLoss, 0.0)
	}
	assert.Equal(t, log, sink.got)
	assert.Len(t, failing.got, 3)
}

func TestTrainer_LossDecreases(t *testing.T) {
	tr := NewTrainer(newLinear(t, 3), dataset.NewRand(3), nil, applogger.Nop(), WithLearningRate(0.05), WithBatchSize(10))
	ex := examples(t, wave(200))
	train, val, err := dataset.Split(ex, 0.8, dataset.NewRand(4))
	require.NoError(t, err)

	log, err := tr.Train(context.Background(), train, val, 30)
	require.NoError(t, err)
	assert.Less(t, log[len(log)-1].TrainLoss, log[0].TrainLoss)
	assert.Less(t, log[len(log)-1].ValLoss, log[0].ValLoss)
}

// linearExamples draws features in [-1, 1] and labels that are an exact affine map of them.
func linearExamples(n int, seed int64) []models.Example {
	rng := dataset.NewRand(seed)
	out := make([]models.Example, n)
	for i := range out {
		x := make([]float64, 15)
		for j := range x {
			x[j] = rng.Float64()*2 - 1
		}
		y := make([]float64, 5)
		for j := range y {
			y[j] = 0.5*x[14-j] - 0.25*x[j] + 0.1*float64(j)
		}
		out[i] = models.Example{Features: x, Labels: y}
	}
	return out
}

func TestTrainer_FitsLinearMapping(t *testing.T) {
	ex := linearExamples(200, 21)
	tr := NewTrainer(newLinear(t, 8), dataset.NewRand(9), nil, nil, WithLearningRate(0.1), WithBatchSize(10))

	log, err := tr.Train(context.Background(), ex[:160], ex[160:], 200)
	require.NoError(t, err)
	last := log[len(log)-1]
	assert.Less(t, last.TrainLoss, 1e-4)
	assert.Less(t, last.ValLoss, 1e-4)
}

func TestTrainer_SeededRunsAreReproducible(t *testing.T) {
	ex := examples(t, wave(100))
	run := func() []models.EpochMetrics {
		tr := NewTrainer(newLinear(t, 5), dataset.NewRand(6), nil, nil)
		train, val, err := dataset.Split(ex, 0.8, dataset.NewRand(7))
		require.NoError(t, err)
		log, err := tr.Train(context.Background(), train, val, 2)
		require.NoError(t, err)
		return log
	}
	assert.Equal(t, run(), run())
}

func TestTrainer_ContextCanceled(t *testing.T) {
	tr := NewTrainer(newLinear(t, 1), dataset.NewRand(1), nil, nil)
	ex := examples(t, wave(60))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	log, err := tr.Train(ctx, ex, ex, 2)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, log)
}

func TestTrainer_LeavesEvalMode(t *testing.T) {
	p := newLinear(t, 1)
	tr := NewTrainer(p, dataset.NewRand(1), nil, nil)
	ex := examples(t, wave(60))

	_, err := tr.Train(context.Background(), ex, ex, 1)
	require.NoError(t, err)
	assert.Equal(t, model.ModeEval, p.Mode())
}
