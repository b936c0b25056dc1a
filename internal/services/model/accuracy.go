package model

import "math"

// SlotAccuracy scores one predicted value against its label: 0 when the signs
// disagree, otherwise the ratio of the smaller to the larger magnitude. Zero is
// compatible with either sign; 0 against 0 is a perfect match.
func SlotAccuracy(output, label float64) float64 {
	if output*label < 0 {
		return 0
	}
	a, b := math.Abs(output), math.Abs(label)
	hi := math.Max(a, b)
	if hi == 0 {
		return 1
	}
	return math.Min(a, b) / hi
}

// ExampleAccuracy is the mean slot accuracy over the label window.
func ExampleAccuracy(output, label []float64) float64 {
	if len(output) == 0 {
		return 0
	}
	var sum float64
	for i := range output {
		sum += SlotAccuracy(output[i], label[i])
	}
	return sum / float64(len(output))
}

// DirectionalAccuracy is the mean example accuracy over a batch.
func DirectionalAccuracy(outputs, labels [][]float64) float64 {
	if len(outputs) == 0 {
		return 0
	}
	var sum float64
	for i := range outputs {
		sum += ExampleAccuracy(outputs[i], labels[i])
	}
	return sum / float64(len(outputs))
}
