package filter

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Centering subtracts a single reference statistic (median, mean, or
// minimum of the whole input) from every element. An empty input yields a
// nil result, which downstream stages must tolerate.
type Centering struct {
	name  string
	ref   func([]float64) float64
	input []float64
}

// NewMedianCentering centers the data on their median.
func NewMedianCentering() *Centering {
	return &Centering{name: KindMedianCentering, ref: median}
}

// NewMeanCentering centers the data on their mean.
func NewMeanCentering() *Centering {
	return &Centering{name: KindMeanCentering, ref: func(xs []float64) float64 {
		return stat.Mean(xs, nil)
	}}
}

// NewMinCentering centers the data on their minimum value.
func NewMinCentering() *Centering {
	return &Centering{name: KindMinCentering, ref: floats.Min}
}

func (f *Centering) Name() string { return f.name }

// Params declares the user-adjustable parameters; centering has none.
func (f *Centering) Params() map[string]ParamType {
	return map[string]ParamType{}
}

// Set is a silent no-op: centering filters declare no parameters.
func (f *Centering) Set(string, any) error { return nil }

// SetInput assigns the vector the next Apply call consumes.
func (f *Centering) SetInput(in []float64) { f.input = in }

// Apply subtracts the reference statistic elementwise.
func (f *Centering) Apply() []float64 {
	if len(f.input) == 0 {
		return nil
	}
	ref := f.ref(f.input)
	out := make([]float64, len(f.input))
	for i, v := range f.input {
		out[i] = v - ref
	}
	return out
}
