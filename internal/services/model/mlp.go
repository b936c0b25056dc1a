package model

import (
	"encoding/json"
	"fmt"
	"math/rand"
)

const KindMLP = "mlp"

// MLP is input → dense → ReLU → dropout → dense → output.
// Dropout is inverted (scaled at train time) and disabled in ModeEval.
type MLP struct {
	hidden  *dense
	output  *dense
	dropout float64
	rng     *rand.Rand
	mode    Mode
	cache   []mlpTrace
}

type mlpTrace struct {
	x    []float64
	pre  []float64 // hidden pre-activation
	mask []float64 // combined ReLU derivative and dropout scale
	h    []float64 // hidden output fed to the output layer
}

func NewMLP(inputs, hidden, outputs int, dropout float64, rng *rand.Rand) (*MLP, error) {
	if hidden <= 0 {
		return nil, fmt.Errorf("%w: hidden=%d", ErrShapeMismatch, hidden)
	}
	if dropout < 0 || dropout >= 1 {
		return nil, fmt.Errorf("model: dropout must be in [0,1), got %v", dropout)
	}
	return &MLP{
		hidden:  newDense("hidden", inputs, hidden, rng),
		output:  newDense("output", hidden, outputs, rng),
		dropout: dropout,
		rng:     rng,
		mode:    ModeTrain,
	}, nil
}

func (m *MLP) Kind() string    { return KindMLP }
func (m *MLP) InputSize() int  { return m.hidden.in }
func (m *MLP) OutputSize() int { return m.output.out }
func (m *MLP) Mode() Mode      { return m.mode }

func (m *MLP) SetMode(mode Mode) {
	m.mode = mode
	m.cache = nil
}

func (m *MLP) Parameters() []*Parameter {
	return []*Parameter{m.hidden.w, m.hidden.b, m.output.w, m.output.b}
}

func (m *MLP) forwardRow(x []float64, train bool) ([]float64, mlpTrace) {
	pre := m.hidden.apply(x)
	mask := make([]float64, len(pre))
	h := make([]float64, len(pre))
	keep := 1 - m.dropout
	for i, z := range pre {
		if z <= 0 {
			continue
		}
		scale := 1.0
		if train && m.dropout > 0 {
			if m.rng.Float64() >= keep {
				continue
			}
			scale = 1 / keep
		}
		mask[i] = scale
		h[i] = z * scale
	}
	return m.output.apply(h), mlpTrace{x: x, pre: pre, mask: mask, h: h}
}

func (m *MLP) Forward(batch [][]float64) ([][]float64, error) {
	if err := checkBatch(batch, m.hidden.in); err != nil {
		return nil, err
	}
	train := m.mode == ModeTrain
	out := make([][]float64, len(batch))
	var traces []mlpTrace
	if train {
		traces = make([]mlpTrace, len(batch))
	}
	for i, x := range batch {
		y, tr := m.forwardRow(x, train)
		out[i] = y
		if train {
			traces[i] = tr
		}
	}
	m.cache = traces
	return out, nil
}

func (m *MLP) Backward(gradOut [][]float64) error {
	if m.mode != ModeTrain {
		return ErrNotTrainingMode
	}
	if m.cache == nil {
		return ErrNoForwardPass
	}
	if len(gradOut) != len(m.cache) {
		return fmt.Errorf("%w: %d gradients for %d cached rows", ErrShapeMismatch, len(gradOut), len(m.cache))
	}
	if err := checkBatch(gradOut, m.output.out); err != nil {
		return err
	}
	for i, tr := range m.cache {
		gh := m.output.accumulate(tr.h, gradOut[i])
		for j := range gh {
			gh[j] *= tr.mask[j]
		}
		m.hidden.accumulate(tr.x, gh)
	}
	m.cache = nil
	return nil
}

func (m *MLP) Predict(features []float64) ([]float64, error) {
	if len(features) != m.hidden.in {
		return nil, fmt.Errorf("%w: got %d features, want %d", ErrShapeMismatch, len(features), m.hidden.in)
	}
	y, _ := m.forwardRow(features, false)
	return y, nil
}

func (m *MLP) MarshalSnapshot() ([]byte, error) {
	return json.Marshal(snapshot{
		Kind:       KindMLP,
		InputSize:  m.hidden.in,
		OutputSize: m.output.out,
		HiddenSize: m.hidden.out,
		Dropout:    m.dropout,
		Params:     paramMap(m.Parameters()),
	})
}

func (m *MLP) UnmarshalSnapshot(data []byte) error {
	s, err := decodeSnapshot(data, KindMLP, m.hidden.in, m.output.out)
	if err != nil {
		return err
	}
	if s.HiddenSize != m.hidden.out {
		return fmt.Errorf("%w: snapshot hidden=%d, model hidden=%d", ErrShapeMismatch, s.HiddenSize, m.hidden.out)
	}
	if s.Dropout != m.dropout {
		return fmt.Errorf("%w: snapshot dropout=%v, model dropout=%v", ErrShapeMismatch, s.Dropout, m.dropout)
	}
	return restoreParams(m.Parameters(), s.Params)
}
