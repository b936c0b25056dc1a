package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinTrain/internal/domain/models"
	applogger "FinTrain/pkg/logger"
	pkgmetrics "FinTrain/pkg/metrics"
)

type fakePublisher struct {
	mu    sync.Mutex
	ticks []*models.Tick
	err   error
}

func (p *fakePublisher) Publish(_ context.Context, t *models.Tick) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.ticks = append(p.ticks, t)
	return nil
}

func (p *fakePublisher) PublishBatch(ctx context.Context, ts []*models.Tick) error {
	for _, t := range ts {
		if err := p.Publish(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.ticks)
}

func TestTickRouter_FansOut(t *testing.T) {
	a, b := &fakePublisher{}, &fakePublisher{}
	r := NewTickRouter().Add("kafka", a).Add("clickhouse", b).Add("none", nil)
	assert.Equal(t, []string{"kafka", "clickhouse"}, r.Sinks())

	require.NoError(t, r.Publish(context.Background(), models.NewTick("A", 1, 1)))
	require.NoError(t, r.PublishBatch(context.Background(), []*models.Tick{models.NewTick("A", 2, 2)}))
	assert.Equal(t, 2, a.count())
	assert.Equal(t, 2, b.count())
}

func TestTickRouter_JoinsErrors(t *testing.T) {
	ok, bad := &fakePublisher{}, &fakePublisher{err: errBoom}
	r := NewTickRouter().Add("kafka", bad).Add("clickhouse", ok)

	err := r.Publish(context.Background(), models.NewTick("A", 1, 1))
	require.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "kafka")
	assert.Equal(t, 1, ok.count())

	assert.Error(t, NewTickRouter().Publish(context.Background(), models.NewTick("A", 1, 1)))
}

// fakeStream emits scripted ticks, then one error, then more ticks after Reconnect.
type fakeStream struct {
	mu         sync.Mutex
	rounds     [][]*models.Tick
	reconnects int
	connected  bool
}

func (s *fakeStream) Connect(context.Context) error   { s.connected = true; return nil }
func (s *fakeStream) Subscribe(context.Context) error { return nil }
func (s *fakeStream) Close() error                    { s.connected = false; return nil }
func (s *fakeStream) IsConnected() bool               { return s.connected }

func (s *fakeStream) Reconnect(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconnects++
	return nil
}

func (s *fakeStream) Read(ctx context.Context) (<-chan *models.Tick, <-chan error) {
	s.mu.Lock()
	var round []*models.Tick
	last := len(s.rounds) <= 1
	if len(s.rounds) > 0 {
		round, s.rounds = s.rounds[0], s.rounds[1:]
	}
	s.mu.Unlock()

	ticks := make(chan *models.Tick, len(round))
	errs := make(chan error, 1)
	for _, t := range round {
		ticks <- t
	}
	go func() {
		// give the consumer time to take the ticks before the error
		time.Sleep(20 * time.Millisecond)
		if !last {
			errs <- errors.New("read: connection reset")
		}
		close(ticks)
		close(errs)
	}()
	return ticks, errs
}

type recordingProc struct {
	mu  sync.Mutex
	got []*models.Tick
}

func (p *recordingProc) Process(_ context.Context, t *models.Tick) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, t)
	return nil
}

func (p *recordingProc) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.got)
}

func TestTickCollector_ConsumesAndReconnects(t *testing.T) {
	stream := &fakeStream{rounds: [][]*models.Tick{
		{models.NewTick("A", 1, 1), models.NewTick("A", 2, 2)},
		{models.NewTick("A", 3, 3)},
	}}
	proc := &recordingProc{}
	c := NewTickCollector(stream, proc, pkgmetrics.Nop{}, applogger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, c.Start(ctx))
	assert.True(t, c.IsConnected())

	assert.Eventually(t, func() bool { return proc.count() == 3 }, 2*time.Second, 10*time.Millisecond)
	stream.mu.Lock()
	assert.Equal(t, 1, stream.reconnects)
	stream.mu.Unlock()

	cancel()
	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("collector did not stop")
	}
	require.NoError(t, c.Shutdown(context.Background()))
	assert.False(t, c.IsConnected())
}
