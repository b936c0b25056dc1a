package models

// Example is one supervised training unit cut from a full sliding window:
// the first F prices are the features, the trailing L prices the labels.
type Example struct {
	Features []float64
	Labels   []float64
}

// Clone returns a deep copy so callers can shuffle or mutate freely.
func (e Example) Clone() Example {
	f := make([]float64, len(e.Features))
	copy(f, e.Features)
	l := make([]float64, len(e.Labels))
	copy(l, e.Labels)
	return Example{Features: f, Labels: l}
}

// EpochMetrics is the per-epoch training record. Appended to the run log, never mutated.
type EpochMetrics struct {
	Symbol    string  `json:"symbol"`
	Epoch     int     `json:"epoch"`
	TrainLoss float64 `json:"train_loss"`
	ValLoss   float64 `json:"val_loss"`
	Accuracy  float64 `json:"accuracy"`
}
