package model

import (
	"math"
	"math/rand"
)

// dense is y = W·x + b with W stored row-major as [out][in].
type dense struct {
	in, out int
	w, b    *Parameter
}

func newDense(name string, in, out int, rng *rand.Rand) *dense {
	d := &dense{in: in, out: out, w: newParameter(name+".weight", in*out), b: newParameter(name+".bias", out)}
	bound := 1 / math.Sqrt(float64(in))
	for i := range d.w.Value {
		d.w.Value[i] = (rng.Float64()*2 - 1) * bound
	}
	for i := range d.b.Value {
		d.b.Value[i] = (rng.Float64()*2 - 1) * bound
	}
	return d
}

func (d *dense) apply(x []float64) []float64 {
	y := make([]float64, d.out)
	for o := 0; o < d.out; o++ {
		sum := d.b.Value[o]
		row := d.w.Value[o*d.in : (o+1)*d.in]
		for i, v := range x {
			sum += row[i] * v
		}
		y[o] = sum
	}
	return y
}

// accumulate adds dL/dW and dL/db for one row and returns dL/dx.
func (d *dense) accumulate(x, gy []float64) []float64 {
	gx := make([]float64, d.in)
	for o := 0; o < d.out; o++ {
		g := gy[o]
		if g == 0 {
			continue
		}
		d.b.Grad[o] += g
		base := o * d.in
		for i, v := range x {
			d.w.Grad[base+i] += g * v
			gx[i] += g * d.w.Value[base+i]
		}
	}
	return gx
}
