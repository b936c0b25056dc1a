package usecase

import (
	"context"
	"errors"
	"fmt"

	domrepo "FinTrain/internal/domain/repository"
	"FinTrain/internal/services/model"
)

// LoadPredictor restores p from store. A store without a snapshot is not an
// error: fresh reports that p keeps its initial parameters.
func LoadPredictor(ctx context.Context, store domrepo.SnapshotStore, p model.Predictor) (fresh bool, err error) {
	data, err := store.Load(ctx)
	if errors.Is(err, domrepo.ErrSnapshotNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("load snapshot %s: %w", store.Location(), err)
	}
	if err := p.UnmarshalSnapshot(data); err != nil {
		return false, fmt.Errorf("restore snapshot %s: %w", store.Location(), err)
	}
	return false, nil
}

// SavePredictor writes p's parameters to store, replacing any previous snapshot.
func SavePredictor(ctx context.Context, store domrepo.SnapshotStore, p model.Predictor) error {
	data, err := p.MarshalSnapshot()
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := store.Save(ctx, data); err != nil {
		return fmt.Errorf("save snapshot %s: %w", store.Location(), err)
	}
	return nil
}
