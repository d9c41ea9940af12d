package curve

import "testing"

func sliceEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestChop(t *testing.T) {
	c := New(
		[]float64{0, 20, 40, 60, 80, 70, 50, 30, 10},
		[]float64{3, 1, 4, 1, 5, 9, 2, 6, 5},
	)

	got := c.Chop(25, 65)

	wantTemps := []float64{40, 60, 50, 30}
	wantValues := []float64{4, 1, 2, 6}
	if !sliceEqual(got.Temps, wantTemps) {
		t.Errorf("Chop temps = %v, want %v", got.Temps, wantTemps)
	}
	if !sliceEqual(got.Values, wantValues) {
		t.Errorf("Chop values = %v, want %v", got.Values, wantValues)
	}
}

func TestChopEmptyRange(t *testing.T) {
	c := New([]float64{10, 20}, []float64{1, 2})

	if got := c.Chop(30, 40); got.Len() != 0 {
		t.Errorf("expected empty result, got %d points", got.Len())
	}
}

func TestExtend(t *testing.T) {
	c := New([]float64{30, 40, 50, 60}, []float64{21, 22, 23, 24})

	got := c.Extend()

	wantTemps := []float64{10, 20, 30, 40, 50, 60, 70, 80}
	wantValues := []float64{21, 21, 21, 22, 23, 24, 24, 24}
	if !sliceEqual(got.Temps, wantTemps) {
		t.Errorf("Extend temps = %v, want %v", got.Temps, wantTemps)
	}
	if !sliceEqual(got.Values, wantValues) {
		t.Errorf("Extend values = %v, want %v", got.Values, wantValues)
	}
}

func TestExtendRoundTrip(t *testing.T) {
	c := New([]float64{100, 150, 200}, []float64{5, 6, 7})

	ext := c.Extend()
	trimmed := Curve{
		Temps:  ext.Temps[2 : ext.Len()-2],
		Values: ext.Values[2 : ext.Len()-2],
	}

	if !sliceEqual(trimmed.Temps, c.Temps) || !sliceEqual(trimmed.Values, c.Values) {
		t.Errorf("trimming padded curve did not restore original: %v %v", trimmed.Temps, trimmed.Values)
	}
}

func TestScaleAndShift(t *testing.T) {
	c := New([]float64{10, 20}, []float64{2, -4})

	scaled := c.Scale(10)
	if !sliceEqual(scaled.Values, []float64{20, -40}) {
		t.Errorf("Scale values = %v, want [20 -40]", scaled.Values)
	}

	shifted := c.Shift(2)
	if !sliceEqual(shifted.Values, []float64{4, -2}) {
		t.Errorf("Shift values = %v, want [4 -2]", shifted.Values)
	}

	// Originals must be untouched
	if !sliceEqual(c.Values, []float64{2, -4}) {
		t.Errorf("source curve mutated: %v", c.Values)
	}
}

func TestShuntUp(t *testing.T) {
	got := ShuntUp([]float64{0, -0.5, 1.0})
	if !sliceEqual(got, []float64{0.5, 0, 1.5}) {
		t.Errorf("ShuntUp = %v, want [0.5 0 1.5]", got)
	}
}

func TestShuntUpEmpty(t *testing.T) {
	if got := ShuntUp(nil); len(got) != 0 {
		t.Errorf("ShuntUp(nil) = %v, want empty", got)
	}
}

func TestShuntUpNonNegative(t *testing.T) {
	in := []float64{1, 2, 3}
	got := ShuntUp(in)
	if !sliceEqual(got, []float64{1, 2, 3}) {
		t.Errorf("ShuntUp = %v, want unchanged", got)
	}
}
