package model

import "fmt"

// MSE is the mean squared error over every element of the batch, plus its
// gradient with respect to pred.
func MSE(pred, target [][]float64) (float64, [][]float64, error) {
	if len(pred) != len(target) || len(pred) == 0 {
		return 0, nil, fmt.Errorf("%w: %d predictions for %d targets", ErrShapeMismatch, len(pred), len(target))
	}
	n := 0
	for i := range pred {
		if len(pred[i]) != len(target[i]) {
			return 0, nil, fmt.Errorf("%w: row %d has %d outputs for %d labels", ErrShapeMismatch, i, len(pred[i]), len(target[i]))
		}
		n += len(pred[i])
	}
	if n == 0 {
		return 0, nil, fmt.Errorf("%w: zero-width rows", ErrShapeMismatch)
	}

	var sum float64
	grad := make([][]float64, len(pred))
	scale := 2 / float64(n)
	for i := range pred {
		grad[i] = make([]float64, len(pred[i]))
		for j := range pred[i] {
			d := pred[i][j] - target[i][j]
			sum += d * d
			grad[i][j] = scale * d
		}
	}
	return sum / float64(n), grad, nil
}

// SGD is plain stochastic gradient descent without momentum or weight decay.
type SGD struct {
	params []*Parameter
	lr     float64
}

func NewSGD(params []*Parameter, lr float64) *SGD {
	return &SGD{params: params, lr: lr}
}

func (o *SGD) LearningRate() float64 { return o.lr }

func (o *SGD) ZeroGrad() {
	for _, p := range o.params {
		for i := range p.Grad {
			p.Grad[i] = 0
		}
	}
}

func (o *SGD) Step() {
	for _, p := range o.params {
		for i, g := range p.Grad {
			p.Value[i] -= o.lr * g
		}
	}
}
