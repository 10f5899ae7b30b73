// Package filter implements the smoothing transforms applied to topic
// series before rendering, and their runtime composition into chains.
//
// Every filter is a vector-to-vector transform over float64 samples with a
// declared set of user-adjustable parameters. The variant set is closed:
// MovingMedian, MovingAverage, MedianCentering, MeanCentering, MinCentering.
package filter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Filter kinds, as exposed to the presentation layer.
const (
	KindMovingMedian    = "MovingMedian"
	KindMovingAverage   = "MovingAverage"
	KindMedianCentering = "MedianCentering"
	KindMeanCentering   = "MeanCentering"
	KindMinCentering    = "MinCentering"
)

// Filter errors.
var (
	// ErrUnknownKind indicates a kind name outside the closed variant set.
	ErrUnknownKind = errors.New("unknown filter kind")

	// ErrBadParamValue indicates a parameter value that cannot be converted
	// to the parameter's declared type.
	ErrBadParamValue = errors.New("parameter value cannot be converted")

	// ErrParamOutOfRange indicates a converted value outside the valid range.
	ErrParamOutOfRange = errors.New("parameter value out of range")
)

// ParamType declares the primitive type of a user-adjustable parameter.
type ParamType int

const (
	IntParam ParamType = iota
	FloatParam
)

func (p ParamType) String() string {
	switch p {
	case IntParam:
		return "int"
	case FloatParam:
		return "float"
	default:
		return "unknown"
	}
}

// Filter is a parameterized numeric transform. The owning chain assigns the
// input before invoking Apply; Apply with no assigned input returns nil.
//
// Set on a name that is not a declared parameter is a silent no-op, so a
// generic parameter editor can push every field without caring which
// filter is selected.
type Filter interface {
	Name() string
	Params() map[string]ParamType
	Set(name string, value any) error
	SetInput(in []float64)
	Apply() []float64
}

// Kinds returns the names of all available filter kinds in stable order.
func Kinds() []string {
	return []string{
		KindMovingMedian,
		KindMovingAverage,
		KindMedianCentering,
		KindMeanCentering,
		KindMinCentering,
	}
}

// New constructs a fresh filter of the given kind with default parameters.
func New(kind string) (Filter, error) {
	switch kind {
	case KindMovingMedian:
		return NewMovingMedian(), nil
	case KindMovingAverage:
		return NewMovingAverage(), nil
	case KindMedianCentering:
		return NewMedianCentering(), nil
	case KindMeanCentering:
		return NewMeanCentering(), nil
	case KindMinCentering:
		return NewMinCentering(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// asInt converts a parameter value to int. Floats truncate, numeric strings
// parse; anything else fails.
func asInt(v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		return int(x), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, fmt.Errorf("%w: %q to int", ErrBadParamValue, x)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: %T to int", ErrBadParamValue, v)
	}
}

// asFloat converts a parameter value to float64.
func asFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q to float", ErrBadParamValue, x)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: %T to float", ErrBadParamValue, v)
	}
}
