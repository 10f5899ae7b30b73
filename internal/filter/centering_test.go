package filter

import "testing"

func TestMeanCentering(t *testing.T) {
	f := NewMeanCentering()
	f.SetInput([]float64{1, 2, 3, 4, 5})
	got := f.Apply()
	want := []float64{-2, -1, 0, 1, 2}
	if !almostEqual(got, want) {
		t.Errorf("Apply() = %v, want %v", got, want)
	}
}

func TestMedianCentering(t *testing.T) {
	cases := []struct {
		in, want []float64
	}{
		{[]float64{1, 2, 3, 4, 5}, []float64{-2, -1, 0, 1, 2}},
		{[]float64{1, 1, 2, 8}, []float64{-0.5, -0.5, 0.5, 6.5}},
	}
	f := NewMedianCentering()
	for _, tc := range cases {
		f.SetInput(tc.in)
		if got := f.Apply(); !almostEqual(got, tc.want) {
			t.Errorf("Apply(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestMinCentering(t *testing.T) {
	f := NewMinCentering()
	f.SetInput([]float64{5, 3, 9, 3})
	got := f.Apply()
	want := []float64{2, 0, 6, 0}
	if !almostEqual(got, want) {
		t.Errorf("Apply() = %v, want %v", got, want)
	}
}

func TestCenteringEmptyInput(t *testing.T) {
	for _, f := range []Filter{NewMeanCentering(), NewMedianCentering(), NewMinCentering()} {
		f.SetInput(nil)
		if got := f.Apply(); got != nil {
			t.Errorf("%s.Apply() on empty input = %v, want nil", f.Name(), got)
		}
		f.SetInput([]float64{})
		if got := f.Apply(); got != nil {
			t.Errorf("%s.Apply() on empty slice = %v, want nil", f.Name(), got)
		}
	}
}

func TestCenteringDeclaresNoParams(t *testing.T) {
	f := NewMeanCentering()
	if n := len(f.Params()); n != 0 {
		t.Fatalf("centering declares %d params, want 0", n)
	}
	if err := f.Set("width", 5); err != nil {
		t.Fatalf("undeclared parameter must be a silent no-op, got %v", err)
	}
}
