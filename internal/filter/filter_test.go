package filter

import (
	"errors"
	"reflect"
	"testing"
)

func TestKindsEnumeratesClosedSet(t *testing.T) {
	want := []string{
		"MovingMedian",
		"MovingAverage",
		"MedianCentering",
		"MeanCentering",
		"MinCentering",
	}
	if got := Kinds(); !reflect.DeepEqual(got, want) {
		t.Errorf("Kinds() = %v, want %v", got, want)
	}
}

func TestNewBuildsEveryKind(t *testing.T) {
	for _, kind := range Kinds() {
		f, err := New(kind)
		if err != nil {
			t.Fatalf("New(%q): %v", kind, err)
		}
		if f.Name() != kind {
			t.Errorf("New(%q).Name() = %q", kind, f.Name())
		}
	}
}

func TestNewUnknownKind(t *testing.T) {
	if _, err := New("LowPass"); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestNewReturnsFreshInstances(t *testing.T) {
	a, _ := New(KindMovingMedian)
	b, _ := New(KindMovingMedian)
	if a == b {
		t.Fatal("New must return distinct instances")
	}
	if err := a.Set("width", 5); err != nil {
		t.Fatal(err)
	}
	b.SetInput([]float64{1, 2, 3, 4})
	// b keeps the default width of 21, so a 4-sample input passes through
	if got := b.Apply(); len(got) != 4 {
		t.Fatalf("parameter change on a leaked into b: %v", got)
	}
}

func TestDeclaredParams(t *testing.T) {
	med, _ := New(KindMovingMedian)
	want := map[string]ParamType{"width": IntParam, "ratio": FloatParam}
	if got := med.Params(); !reflect.DeepEqual(got, want) {
		t.Errorf("MovingMedian.Params() = %v, want %v", got, want)
	}

	avg, _ := New(KindMovingAverage)
	if got := avg.Params(); !reflect.DeepEqual(got, map[string]ParamType{"width": IntParam}) {
		t.Errorf("MovingAverage.Params() = %v", got)
	}
}

func TestSetUndeclaredParamIsSilentNoOp(t *testing.T) {
	for _, kind := range Kinds() {
		f, _ := New(kind)
		if err := f.Set("no_such_param", 42); err != nil {
			t.Errorf("%s.Set(undeclared) = %v, want nil", kind, err)
		}
	}
}
