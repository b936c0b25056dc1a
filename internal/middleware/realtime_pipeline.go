package middleware

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"FinTrain/internal/domain/models"
	domrepo "FinTrain/internal/domain/repository"
)

// Publisher is the downstream the pipeline forwards sampled ticks to.
type Publisher interface {
	Publish(ctx context.Context, t *models.Tick) error
	PublishBatch(ctx context.Context, ticks []*models.Tick) error
}

// RealtimePipeline sits between the market stream and the topic.
// It validates ticks, keeps one tick per symbol per sampling interval and
// buffers ticks while the downstream is unavailable.
type RealtimePipeline struct {
	pub      Publisher
	metrics  domrepo.Metrics
	interval time.Duration
	bufSize  int
	batch    int
	bufCh    chan *models.Tick
	stopCh   chan struct{}
	started  bool
	mu       sync.Mutex
	lastSeen map[string]int64 // per-symbol unix seconds of the last accepted tick
}

type PipelineOption func(*RealtimePipeline)

// WithInterval sets the per-symbol sampling interval. Zero forwards every tick.
func WithInterval(d time.Duration) PipelineOption {
	return func(p *RealtimePipeline) {
		if d >= 0 {
			p.interval = d
		}
	}
}

// WithBufferSize sets the temporary buffer size when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithFlushBatch sets how many buffered ticks are retried per publish.
func WithFlushBatch(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n > 0 {
			p.batch = n
		}
	}
}

// NewRealtimePipeline creates a new pipeline.
func NewRealtimePipeline(pub Publisher, metrics domrepo.Metrics, opts ...PipelineOption) *RealtimePipeline {
	p := &RealtimePipeline{
		pub:      pub,
		metrics:  metrics,
		interval: 2 * time.Minute,
		bufSize:  1000,
		batch:    100,
		stopCh:   make(chan struct{}),
		lastSeen: make(map[string]int64),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.Tick, p.bufSize)
	return p
}

// Start launches background flushing of buffered ticks.
func (p *RealtimePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go p.flushLoop(ctx)
}

func (p *RealtimePipeline) flushLoop(ctx context.Context) {
	backoff := 50 * time.Millisecond
	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case t := <-p.bufCh:
			batch := p.collect(t)
			if err := p.pub.PublishBatch(ctx, batch); err != nil {
				// exponential backoff with cap
				if backoff < 2*time.Second {
					backoff *= 2
				}
				p.metrics.RecordError("pipeline_flush")
				select {
				case <-time.After(backoff):
				case <-p.stopCh:
					return
				case <-ctx.Done():
					return
				}
				// requeue if space; drop otherwise
				for _, bt := range batch {
					select {
					case p.bufCh <- bt:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				}
				continue
			}
			backoff = 50 * time.Millisecond
			for _, bt := range batch {
				p.metrics.RecordTickPublished(bt.Symbol)
			}
		}
	}
}

// collect takes first plus whatever else is already buffered, up to the batch size.
func (p *RealtimePipeline) collect(first *models.Tick) []*models.Tick {
	batch := []*models.Tick{first}
	for len(batch) < p.batch {
		select {
		case t := <-p.bufCh:
			batch = append(batch, t)
		default:
			return batch
		}
	}
	return batch
}

// Stop stops the background flushing.
func (p *RealtimePipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Buffered returns the number of ticks waiting for the downstream.
func (p *RealtimePipeline) Buffered() int { return len(p.bufCh) }

// Process validates and samples the tick, then forwards it, buffering on errors.
// Ticks inside the current sampling interval are dropped without error.
func (p *RealtimePipeline) Process(ctx context.Context, t *models.Tick) error {
	if err := validateTick(t); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if !p.allow(t.Symbol, t.Timestamp) {
		return nil
	}

	if err := p.pub.Publish(ctx, t); err != nil {
		p.metrics.RecordError("pipeline_process")
		// buffer non-blocking
		select {
		case p.bufCh <- t:
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordTickPublished(t.Symbol)
	p.metrics.RecordLastPrice(t.Symbol, *t.Price)
	return nil
}

func validateTick(t *models.Tick) error {
	if t == nil {
		return fmt.Errorf("tick nil")
	}
	if t.Symbol == "" {
		return fmt.Errorf("symbol empty")
	}
	if t.Timestamp <= 0 {
		return fmt.Errorf("timestamp invalid")
	}
	if t.Price == nil || *t.Price < 0 || math.IsNaN(*t.Price) || math.IsInf(*t.Price, 0) {
		return fmt.Errorf("price invalid")
	}
	return nil
}

func (p *RealtimePipeline) allow(symbol string, ts int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	last, ok := p.lastSeen[symbol]
	if ok && ts-last < int64(p.interval/time.Second) {
		return false
	}
	p.lastSeen[symbol] = ts
	return true
}
