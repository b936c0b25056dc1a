package model

import (
	"encoding/json"
	"fmt"
)

type snapshot struct {
	Kind       string               `json:"kind"`
	InputSize  int                  `json:"input_size"`
	OutputSize int                  `json:"output_size"`
	HiddenSize int                  `json:"hidden_size,omitempty"`
	Dropout    float64              `json:"dropout,omitempty"`
	Params     map[string][]float64 `json:"params"`
}

func paramMap(params []*Parameter) map[string][]float64 {
	out := make(map[string][]float64, len(params))
	for _, p := range params {
		v := make([]float64, len(p.Value))
		copy(v, p.Value)
		out[p.Name] = v
	}
	return out
}

func decodeSnapshot(data []byte, kind string, in, out int) (*snapshot, error) {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.Kind != kind {
		return nil, fmt.Errorf("%w: snapshot kind %q, model kind %q", ErrShapeMismatch, s.Kind, kind)
	}
	if s.InputSize != in || s.OutputSize != out {
		return nil, fmt.Errorf("%w: snapshot %dx%d, model %dx%d", ErrShapeMismatch, s.InputSize, s.OutputSize, in, out)
	}
	return &s, nil
}

// restoreParams validates every tensor before touching any, so a bad snapshot leaves the model intact.
func restoreParams(params []*Parameter, values map[string][]float64) error {
	for _, p := range params {
		v, ok := values[p.Name]
		if !ok {
			return fmt.Errorf("%w: snapshot missing %s", ErrShapeMismatch, p.Name)
		}
		if len(v) != len(p.Value) {
			return fmt.Errorf("%w: %s has %d values, want %d", ErrShapeMismatch, p.Name, len(v), len(p.Value))
		}
	}
	for _, p := range params {
		copy(p.Value, values[p.Name])
		for i := range p.Grad {
			p.Grad[i] = 0
		}
	}
	return nil
}
