package usecase

import (
	"context"
	"errors"
	"fmt"

	"FinTrain/internal/domain/models"
	drepo "FinTrain/internal/domain/repository"
)

// TickRouter fans collected ticks out to every configured sink.
type TickRouter struct {
	sinks map[string]drepo.TickPublisher
	order []string
}

// NewTickRouter creates a router; names label errors.
func NewTickRouter() *TickRouter {
	return &TickRouter{sinks: make(map[string]drepo.TickPublisher)}
}

// Add registers a named sink. Nil sinks are ignored.
func (r *TickRouter) Add(name string, p drepo.TickPublisher) *TickRouter {
	if p == nil {
		return r
	}
	if _, ok := r.sinks[name]; !ok {
		r.order = append(r.order, name)
	}
	r.sinks[name] = p
	return r
}

// Sinks returns the registered sink names in registration order.
func (r *TickRouter) Sinks() []string { return r.order }

func (r *TickRouter) Publish(ctx context.Context, t *models.Tick) error {
	if t == nil {
		return fmt.Errorf("tick is nil")
	}
	if len(r.order) == 0 {
		return fmt.Errorf("no tick sinks configured")
	}
	var errs []error
	for _, name := range r.order {
		if err := r.sinks[name].Publish(ctx, t); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func (r *TickRouter) PublishBatch(ctx context.Context, ticks []*models.Tick) error {
	if len(ticks) == 0 {
		return nil
	}
	var errs []error
	for _, name := range r.order {
		if err := r.sinks[name].PublishBatch(ctx, ticks); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink.
func (r *TickRouter) Close() error {
	var errs []error
	for _, name := range r.order {
		if err := r.sinks[name].Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

var _ drepo.TickPublisher = (*TickRouter)(nil)
