package usecase

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"FinTrain/internal/domain/models"
	domrepo "FinTrain/internal/domain/repository"
	"FinTrain/internal/services/dataset"
	"FinTrain/internal/services/model"
)

// wave returns n prices in [0.2, 0.8] following a slow sine.
func wave(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5 + 0.3*math.Sin(float64(i)/7)
	}
	return out
}

func newLinear(t *testing.T, seed int64) model.Predictor {
	t.Helper()
	p, err := model.New(model.Spec{Kind: model.KindLinear, Inputs: 15, Outputs: 5}, dataset.NewRand(seed))
	require.NoError(t, err)
	return p
}

func examples(t *testing.T, prices []float64) []models.Example {
	t.Helper()
	w, err := dataset.NewWindower(15, 5)
	require.NoError(t, err)
	return w.Process(prices)
}

type memorySource struct {
	prices []float64
	err    error
}

func (s *memorySource) Drain(context.Context) ([]float64, error) { return s.prices, s.err }
func (s *memorySource) Close() error                             { return nil }

type memoryStore struct {
	mu      sync.Mutex
	data    []byte
	saves   int
	saveErr error
	loadErr error
}

func (s *memoryStore) Load(context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if s.data == nil {
		return nil, domrepo.ErrSnapshotNotFound
	}
	return s.data, nil
}

func (s *memoryStore) Save(_ context.Context, b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.data = append([]byte(nil), b...)
	return nil
}

func (s *memoryStore) Location() string { return "memory" }

type recordingSink struct {
	got []models.EpochMetrics
	err error
}

func (s *recordingSink) RecordEpoch(_ context.Context, m models.EpochMetrics) error {
	s.got = append(s.got, m)
	return s.err
}

var errBoom = errors.New("boom")

type countingNotifier struct {
	calls int
	err   error
}

func (n *countingNotifier) NotifyReload(context.Context) error {
	n.calls++
	return n.err
}
