package model

import (
	"encoding/json"
	"fmt"
	"math/rand"
)

const KindLinear = "linear"

// Linear is a single dense layer mapping the feature window to the label window.
type Linear struct {
	layer *dense
	mode  Mode
	cache [][]float64
}

func NewLinear(inputs, outputs int, rng *rand.Rand) *Linear {
	return &Linear{layer: newDense("linear", inputs, outputs, rng), mode: ModeTrain}
}

func (m *Linear) Kind() string    { return KindLinear }
func (m *Linear) InputSize() int  { return m.layer.in }
func (m *Linear) OutputSize() int { return m.layer.out }
func (m *Linear) Mode() Mode      { return m.mode }

func (m *Linear) SetMode(mode Mode) {
	m.mode = mode
	m.cache = nil
}

func (m *Linear) Parameters() []*Parameter {
	return []*Parameter{m.layer.w, m.layer.b}
}

func (m *Linear) Forward(batch [][]float64) ([][]float64, error) {
	if err := checkBatch(batch, m.layer.in); err != nil {
		return nil, err
	}
	out := make([][]float64, len(batch))
	for i, x := range batch {
		out[i] = m.layer.apply(x)
	}
	if m.mode == ModeTrain {
		m.cache = batch
	}
	return out, nil
}

func (m *Linear) Backward(gradOut [][]float64) error {
	if m.mode != ModeTrain {
		return ErrNotTrainingMode
	}
	if m.cache == nil {
		return ErrNoForwardPass
	}
	if len(gradOut) != len(m.cache) {
		return fmt.Errorf("%w: %d gradients for %d cached rows", ErrShapeMismatch, len(gradOut), len(m.cache))
	}
	if err := checkBatch(gradOut, m.layer.out); err != nil {
		return err
	}
	for i, x := range m.cache {
		m.layer.accumulate(x, gradOut[i])
	}
	m.cache = nil
	return nil
}

func (m *Linear) Predict(features []float64) ([]float64, error) {
	if len(features) != m.layer.in {
		return nil, fmt.Errorf("%w: got %d features, want %d", ErrShapeMismatch, len(features), m.layer.in)
	}
	return m.layer.apply(features), nil
}

func (m *Linear) MarshalSnapshot() ([]byte, error) {
	return json.Marshal(snapshot{
		Kind:       KindLinear,
		InputSize:  m.layer.in,
		OutputSize: m.layer.out,
		Params:     paramMap(m.Parameters()),
	})
}

func (m *Linear) UnmarshalSnapshot(data []byte) error {
	s, err := decodeSnapshot(data, KindLinear, m.layer.in, m.layer.out)
	if err != nil {
		return err
	}
	return restoreParams(m.Parameters(), s.Params)
}
