package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlotAccuracy(t *testing.T) {
	tests := []struct {
		name          string
		output, label float64
		want          float64
	}{
		{name: "exact match", output: 3, label: 3, want: 1},
		{name: "same sign ratio", output: 2, label: 4, want: 0.5},
		{name: "same sign ratio reversed", output: 4, label: 2, want: 0.5},
		{name: "both negative", output: -1, label: -4, want: 0.25},
		{name: "opposite sign", output: -2, label: 2, want: 0},
		{name: "both zero", output: 0, label: 0, want: 1},
		{name: "zero label nonzero output", output: 5, label: 0, want: 0},
		{name: "zero output nonzero label", output: 0, label: -5, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SlotAccuracy(tt.output, tt.label), 1e-12)
		})
	}
}

func TestExampleAccuracy_Bounds(t *testing.T) {
	label := []float64{1, -2, 3, -4, 5}

	assert.InDelta(t, 1, ExampleAccuracy(label, label), 1e-12)
	assert.InDelta(t, 0, ExampleAccuracy([]float64{-1, 2, -3, 4, -5}, label), 1e-12)

	mixed := ExampleAccuracy([]float64{1, 2, 1.5, -8, 0}, label)
	assert.InDelta(t, (1+0+0.5+0.5+0)/5.0, mixed, 1e-12)
	assert.GreaterOrEqual(t, mixed, 0.0)
	assert.LessOrEqual(t, mixed, 1.0)
}

func TestDirectionalAccuracy_MeanOfExamples(t *testing.T) {
	outputs := [][]float64{{1, 1}, {-1, -1}}
	labels := [][]float64{{1, 1}, {1, 1}}
	assert.InDelta(t, 0.5, DirectionalAccuracy(outputs, labels), 1e-12)
	assert.Equal(t, 0.0, DirectionalAccuracy(nil, nil))
}
