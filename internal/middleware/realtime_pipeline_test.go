package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinTrain/internal/domain/models"
	pkgmetrics "FinTrain/pkg/metrics"
)

type fakePublisher struct {
	mu      sync.Mutex
	got     []*models.Tick
	failing bool
}

func (f *fakePublisher) Publish(_ context.Context, t *models.Tick) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("broker down")
	}
	f.got = append(f.got, t)
	return nil
}

func (f *fakePublisher) PublishBatch(ctx context.Context, ticks []*models.Tick) error {
	for _, t := range ticks {
		if err := f.Publish(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakePublisher) setFailing(v bool) {
	f.mu.Lock()
	f.failing = v
	f.mu.Unlock()
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.got)
}

func TestRealtimePipeline_SamplesPerSymbol(t *testing.T) {
	pub := &fakePublisher{}
	p := NewRealtimePipeline(pub, pkgmetrics.Nop{}, WithInterval(2*time.Minute))
	ctx := context.Background()

	require.NoError(t, p.Process(ctx, models.NewTick("A", 1, 1000)))
	require.NoError(t, p.Process(ctx, models.NewTick("A", 2, 1030)))
	require.NoError(t, p.Process(ctx, models.NewTick("B", 3, 1030)))
	require.NoError(t, p.Process(ctx, models.NewTick("A", 4, 1120)))

	require.Len(t, pub.got, 3)
	assert.Equal(t, 1.0, *pub.got[0].Price)
	assert.Equal(t, 3.0, *pub.got[1].Price)
	assert.Equal(t, 4.0, *pub.got[2].Price)
}

func TestRealtimePipeline_ZeroIntervalForwardsAll(t *testing.T) {
	pub := &fakePublisher{}
	p := NewRealtimePipeline(pub, pkgmetrics.Nop{}, WithInterval(0))
	for i := int64(1); i <= 3; i++ {
		require.NoError(t, p.Process(context.Background(), models.NewTick("A", float64(i), 100)))
	}
	assert.Equal(t, 3, pub.count())
}

func TestRealtimePipeline_RejectsInvalid(t *testing.T) {
	p := NewRealtimePipeline(&fakePublisher{}, pkgmetrics.Nop{})
	ctx := context.Background()

	assert.Error(t, p.Process(ctx, nil))
	assert.Error(t, p.Process(ctx, models.NewTick("", 1, 1)))
	assert.Error(t, p.Process(ctx, models.NewTick("A", 1, 0)))
	assert.Error(t, p.Process(ctx, models.NewTick("A", -1, 1)))
	assert.Error(t, p.Process(ctx, &models.Tick{Symbol: "A", Timestamp: 1}))
}

func TestRealtimePipeline_BuffersAndFlushes(t *testing.T) {
	pub := &fakePublisher{failing: true}
	p := NewRealtimePipeline(pub, pkgmetrics.Nop{}, WithInterval(0))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := p.Process(ctx, models.NewTick("A", 1, 1))
	require.Error(t, err)
	assert.Equal(t, 1, p.Buffered())

	pub.setFailing(false)
	p.Start(ctx)
	defer p.Stop()

	assert.Eventually(t, func() bool { return pub.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, p.Buffered())
}
