package dataset

import (
	"fmt"

	"FinTrain/internal/domain/models"
)

// Windower turns an ordered price sequence into overlapping (stride 1) examples.
// The window holds the last features+labels prices; it emits only once that many
// real observations have been absorbed.
type Windower struct {
	features int
	labels   int
	buf      []float64
	head     int // index of the oldest slot
	filled   int
}

// NewWindower creates a windower emitting examples with the given arity.
func NewWindower(features, labels int) (*Windower, error) {
	if features <= 0 || labels <= 0 {
		return nil, fmt.Errorf("window: features and labels must be positive, got %d/%d", features, labels)
	}
	return &Windower{
		features: features,
		labels:   labels,
		buf:      make([]float64, features+labels),
	}, nil
}

// Size is the window length W.
func (w *Windower) Size() int { return len(w.buf) }

// Push appends one observation, evicting the oldest once full, and returns the
// example for the current window when it is valid.
func (w *Windower) Push(price float64) (models.Example, bool) {
	size := len(w.buf)
	if w.filled < size {
		w.buf[(w.head+w.filled)%size] = price
		w.filled++
	} else {
		w.buf[w.head] = price
		w.head = (w.head + 1) % size
	}
	if w.filled < size {
		return models.Example{}, false
	}

	ex := models.Example{
		Features: make([]float64, w.features),
		Labels:   make([]float64, w.labels),
	}
	for i := 0; i < size; i++ {
		v := w.buf[(w.head+i)%size]
		if i < w.features {
			ex.Features[i] = v
		} else {
			ex.Labels[i-w.features] = v
		}
	}
	return ex, true
}

// Reset empties the window.
func (w *Windower) Reset() {
	w.head, w.filled = 0, 0
}

// Process runs a whole stream through a fresh window. A stream shorter than
// the window yields no examples.
func (w *Windower) Process(prices []float64) []models.Example {
	w.Reset()
	n := len(prices) - w.Size() + 1
	if n < 0 {
		n = 0
	}
	out := make([]models.Example, 0, n)
	for _, p := range prices {
		if ex, ok := w.Push(p); ok {
			out = append(out, ex)
		}
	}
	return out
}
