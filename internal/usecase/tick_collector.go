package usecase

import (
	"context"

	"FinTrain/internal/domain/models"
	drepo "FinTrain/internal/domain/repository"
	applogger "FinTrain/pkg/logger"
)

// TickProcessor is the step a collected tick is handed to.
type TickProcessor interface {
	Process(ctx context.Context, t *models.Tick) error
}

// TickCollector reads ticks from a market stream and feeds the pipeline.
type TickCollector struct {
	stream  drepo.MarketStream
	proc    TickProcessor
	metrics drepo.Metrics
	l       *applogger.Logger
	done    chan struct{}
}

// NewTickCollector creates a new TickCollector instance.
func NewTickCollector(stream drepo.MarketStream, proc TickProcessor, metrics drepo.Metrics, l *applogger.Logger) *TickCollector {
	return &TickCollector{stream: stream, proc: proc, metrics: metrics, l: l, done: make(chan struct{})}
}

// IsConnected returns true if the market stream is connected.
func (c *TickCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

// Start connects, subscribes and consumes in the background until ctx ends.
func (c *TickCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	go c.consume(ctx)
	return nil
}

// Done is closed once the consume loop has exited.
func (c *TickCollector) Done() <-chan struct{} { return c.done }

func (c *TickCollector) consume(ctx context.Context) {
	defer close(c.done)
	tCh, errCh := c.stream.Read(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			c.metrics.RecordError("stream")
			c.l.Warn("market stream error, reconnecting", applogger.Error(err))
			if !c.reconnect(ctx) {
				return
			}
			tCh, errCh = c.stream.Read(ctx)
		case t, ok := <-tCh:
			if !ok {
				tCh = nil
				continue
			}
			if t == nil {
				continue
			}
			if err := c.proc.Process(ctx, t); err != nil {
				c.l.Debug("tick not forwarded", applogger.String("symbol", t.Symbol), applogger.Error(err))
			}
		}
	}
}

// reconnect retries until the stream is back or ctx ends.
func (c *TickCollector) reconnect(ctx context.Context) bool {
	for {
		err := c.stream.Reconnect(ctx)
		if err == nil {
			c.l.Info("market stream reconnected")
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		c.metrics.RecordError("stream_reconnect")
		c.l.Error("market stream reconnect failed", applogger.Error(err))
	}
}

// Shutdown closes the stream.
func (c *TickCollector) Shutdown(_ context.Context) error {
	return c.stream.Close()
}
