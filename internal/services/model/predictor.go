package model

import (
	"errors"
	"fmt"
	"math/rand"
)

var (
	ErrShapeMismatch    = errors.New("model: shape mismatch")
	ErrNotTrainingMode  = errors.New("model: backward called outside training mode")
	ErrNoForwardPass    = errors.New("model: backward called without a cached forward pass")
	ErrUnknownModelKind = errors.New("model: unknown kind")
)

// Mode switches between gradient-tracking training and deterministic inference.
type Mode int

const (
	ModeTrain Mode = iota
	ModeEval
)

func (m Mode) String() string {
	if m == ModeTrain {
		return "train"
	}
	return "eval"
}

// Parameter is one trainable tensor, flattened, with its accumulated gradient.
type Parameter struct {
	Name  string
	Value []float64
	Grad  []float64
}

func newParameter(name string, n int) *Parameter {
	return &Parameter{Name: name, Value: make([]float64, n), Grad: make([]float64, n)}
}

// Predictor is a trainable regression function with fixed input/output arity.
//
// Forward in training mode caches what Backward needs; Backward accumulates
// gradients into Parameters() and never updates values itself. Predict is an
// inference entry point: it always runs in evaluation mode, tracks nothing and
// leaves the current mode untouched.
type Predictor interface {
	Kind() string
	InputSize() int
	OutputSize() int
	Forward(batch [][]float64) ([][]float64, error)
	Backward(gradOut [][]float64) error
	Parameters() []*Parameter
	SetMode(Mode)
	Mode() Mode
	Predict(features []float64) ([]float64, error)
	MarshalSnapshot() ([]byte, error)
	UnmarshalSnapshot(data []byte) error
}

// Spec describes a predictor to build.
type Spec struct {
	Kind    string
	Inputs  int
	Outputs int
	Hidden  int
	Dropout float64
}

// New builds a freshly initialised predictor.
func New(spec Spec, rng *rand.Rand) (Predictor, error) {
	if spec.Inputs <= 0 || spec.Outputs <= 0 {
		return nil, fmt.Errorf("%w: inputs=%d outputs=%d", ErrShapeMismatch, spec.Inputs, spec.Outputs)
	}
	switch spec.Kind {
	case KindLinear:
		return NewLinear(spec.Inputs, spec.Outputs, rng), nil
	case KindMLP:
		return NewMLP(spec.Inputs, spec.Hidden, spec.Outputs, spec.Dropout, rng)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModelKind, spec.Kind)
	}
}

func checkBatch(batch [][]float64, width int) error {
	if len(batch) == 0 {
		return fmt.Errorf("%w: empty batch", ErrShapeMismatch)
	}
	for i, row := range batch {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d values, want %d", ErrShapeMismatch, i, len(row), width)
		}
	}
	return nil
}
