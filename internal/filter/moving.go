package filter

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Defaults for the windowed smoothers.
const (
	DefaultWidth            = 21
	DefaultEliminationRatio = 1.0
)

// MovingMedian is a trimmed-mean-over-sorted-window smoother.
//
// For each window of `width` consecutive samples, the window is sorted and
// `cutExtrema = floor(width*ratio/2)` samples are dropped from each end
// before averaging; ratio 1 degenerates to the plain window median and
// ratio 0 to the arithmetic mean. Inputs shorter than the window pass
// through unchanged. For longer inputs the output holds exactly
// len(input)-width samples: the slide stops one window short of the end, so
// the trailing window never anchors an output sample. Consumers size their
// axes around that length.
type MovingMedian struct {
	input      []float64
	width      int
	ratio      float64
	cutExtrema int
}

// NewMovingMedian builds a MovingMedian with default width and ratio.
func NewMovingMedian() *MovingMedian {
	f := &MovingMedian{width: DefaultWidth, ratio: DefaultEliminationRatio}
	f.recalc()
	return f
}

func (f *MovingMedian) Name() string { return KindMovingMedian }

// Params declares the user-adjustable parameters.
func (f *MovingMedian) Params() map[string]ParamType {
	return map[string]ParamType{
		"width": IntParam,
		"ratio": FloatParam,
	}
}

// Set updates a declared parameter. Unknown names are silently ignored.
func (f *MovingMedian) Set(name string, value any) error {
	switch name {
	case "width":
		w, err := asInt(value)
		if err != nil {
			return err
		}
		if w < 1 {
			return fmt.Errorf("%w: width %d must be >= 1", ErrParamOutOfRange, w)
		}
		f.width = w
	case "ratio":
		r, err := asFloat(value)
		if err != nil {
			return err
		}
		if r < 0 || r > 1 {
			return fmt.Errorf("%w: ratio %v must be in [0,1]", ErrParamOutOfRange, r)
		}
		f.ratio = r
	default:
		return nil
	}
	f.recalc()
	return nil
}

// SetInput assigns the vector the next Apply call consumes.
func (f *MovingMedian) SetInput(in []float64) { f.input = in }

// Apply runs the smoother over the assigned input.
func (f *MovingMedian) Apply() []float64 {
	in := f.input
	if len(in) < f.width {
		return in
	}
	out := make([]float64, 0, len(in)-f.width)
	if f.ratio == 1 {
		for i := 0; i < len(in)-f.width; i++ {
			out = append(out, median(in[i:i+f.width]))
		}
		return out
	}

	window := make([]float64, f.width)
	for i := 0; i < len(in)-f.width; i++ {
		copy(window, in[i:i+f.width])
		sort.Float64s(window)
		trimmed := window
		if f.cutExtrema > 0 {
			trimmed = window[f.cutExtrema : len(window)-f.cutExtrema]
		}
		out = append(out, stat.Mean(trimmed, nil))
	}
	return out
}

func (f *MovingMedian) recalc() {
	f.cutExtrema = int(float64(f.width) * f.ratio / 2)
}

// MovingAverage is MovingMedian with the elimination ratio pinned to zero,
// i.e. a plain arithmetic mean over each window. Only the width is
// user-adjustable.
type MovingAverage struct {
	MovingMedian
}

// NewMovingAverage builds a MovingAverage with the default width.
func NewMovingAverage() *MovingAverage {
	f := &MovingAverage{}
	f.width = DefaultWidth
	f.ratio = 0
	f.recalc()
	return f
}

func (f *MovingAverage) Name() string { return KindMovingAverage }

// Params declares the user-adjustable parameters.
func (f *MovingAverage) Params() map[string]ParamType {
	return map[string]ParamType{"width": IntParam}
}

// Set updates a declared parameter. The ratio stays pinned; unknown names
// are silently ignored.
func (f *MovingAverage) Set(name string, value any) error {
	if name != "width" {
		return nil
	}
	return f.MovingMedian.Set(name, value)
}

// median returns the numpy-style median of xs: the middle element of the
// sorted sequence, or the mean of the two middle elements for even lengths.
func median(xs []float64) float64 {
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
