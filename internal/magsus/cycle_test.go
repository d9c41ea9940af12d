package magsus

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/geomagtools/thermomag/internal/curve"
	"github.com/geomagtools/thermomag/internal/spline"
)

// paramagnetic builds susceptibility following the Curie-Weiss law with the
// given Curie temperature: 1/χ linear in T, zero intercept at curieTemp.
func paramagnetic(curieTemp float64) func(t float64) float64 {
	return func(t float64) float64 { return 100 / (t - curieTemp) }
}

func TestNewMeasurementCycleVolume(t *testing.T) {
	dir := t.TempDir()

	heatTemps, heatValues := ramp(0, 300, 50, func(float64) float64 { return 2 })
	coolTemps, coolValues := ramp(250, 0, -50, func(float64) float64 { return 3 })
	path := writeCUR(t, dir, "300.CUR", heatTemps, heatValues, coolTemps, coolValues)

	// nominal/real = 10/0.25 = 40
	cycle, err := NewMeasurementCycle(path, nil, 300, 0.25, 10)
	if err != nil {
		t.Fatalf("NewMeasurementCycle: %v", err)
	}

	for i, v := range cycle.Heating.Values {
		if math.Abs(v-80) > 1e-12 {
			t.Errorf("heating value[%d] = %g, want 80", i, v)
		}
	}
	for i, v := range cycle.Cooling.Values {
		if math.Abs(v-120) > 1e-12 {
			t.Errorf("cooling value[%d] = %g, want 120", i, v)
		}
	}
	if cycle.TargetTemp != 300 {
		t.Errorf("TargetTemp = %d, want 300", cycle.TargetTemp)
	}
}

func TestNewMeasurementCycleBadVolume(t *testing.T) {
	if _, err := NewMeasurementCycle("ignored.CUR", nil, 100, 0, 10); err == nil {
		t.Error("expected error for zero real volume")
	}
	if _, err := NewMeasurementCycle("ignored.CUR", nil, 100, 0.25, -1); err == nil {
		t.Error("expected error for negative nominal volume")
	}
}

func TestCurieParamagnetic(t *testing.T) {
	dir := t.TempDir()

	heatTemps, heatValues := ramp(585, 655, 5, paramagnetic(580))
	coolTemps, coolValues := ramp(650, 585, -5, paramagnetic(580))
	path := writeCUR(t, dir, "650.CUR", heatTemps, heatValues, coolTemps, coolValues)

	cycle, err := NewMeasurementCycle(path, nil, 650, 1, 1)
	if err != nil {
		t.Fatalf("NewMeasurementCycle: %v", err)
	}

	curie, fit, err := cycle.CurieParamagnetic(585, 655)
	if err != nil {
		t.Fatalf("CurieParamagnetic: %v", err)
	}

	if math.Abs(curie-580) > 1e-6 {
		t.Errorf("curie = %g, want 580", curie)
	}
	if math.Abs(fit.RSquared-1) > 1e-9 {
		t.Errorf("R² = %g, want 1", fit.RSquared)
	}
	if math.IsNaN(fit.RSquared) {
		t.Error("R² is NaN")
	}
}

func TestCurieParamagneticErrors(t *testing.T) {
	cycle := &MeasurementCycle{
		Heating: curve.New([]float64{100, 200, 300, 400}, []float64{1, 0, 3, 4}),
	}

	var fitErr *FitError

	// Too few points in range
	if _, _, err := cycle.CurieParamagnetic(500, 600); !errors.As(err, &fitErr) {
		t.Errorf("empty range: got %v, want FitError", err)
	}

	// Zero susceptibility in range
	if _, _, err := cycle.CurieParamagnetic(100, 400); !errors.As(err, &fitErr) {
		t.Errorf("zero value: got %v, want FitError", err)
	}

	// Constant reciprocals: no variance, R² undefined
	flat := &MeasurementCycle{
		Heating: curve.New([]float64{100, 200, 300, 400}, []float64{2, 2, 2, 2}),
	}
	if _, _, err := flat.CurieParamagnetic(100, 400); !errors.As(err, &fitErr) {
		t.Errorf("constant data: got %v, want FitError", err)
	}
}

func TestCurieParamagneticNeverNaN(t *testing.T) {
	cycles := []*MeasurementCycle{
		{Heating: curve.New([]float64{100, 150, 200, 250}, []float64{4, 3, 2, 1})},
		{Heating: curve.New([]float64{100, 150, 200, 250}, []float64{1, -1, 1, -1})},
		{Heating: curve.New([]float64{100, 150}, []float64{5, 4})},
	}

	for i, cycle := range cycles {
		curie, fit, err := cycle.CurieParamagnetic(0, 1000)
		if err != nil {
			continue // a FitError is an acceptable outcome
		}
		if math.IsNaN(curie) || math.IsNaN(fit.RSquared) {
			t.Errorf("cycle %d: NaN result without error (curie %g, R² %g)", i, curie, fit.RSquared)
		}
		if fit.RSquared > 1 {
			t.Errorf("cycle %d: R² = %g > 1", i, fit.RSquared)
		}
	}
}

func TestCurieInflection(t *testing.T) {
	dir := t.TempDir()

	// Falling sigmoid with inflection at 500 °C.
	sigmoid := func(temp float64) float64 {
		return 100 / (1 + math.Exp((temp-500)/20))
	}
	heatTemps, heatValues := ramp(300, 700, 10, sigmoid)
	coolTemps, coolValues := ramp(690, 300, -10, sigmoid)
	path := writeCUR(t, dir, "700.CUR", heatTemps, heatValues, coolTemps, coolValues)

	cycle, err := NewMeasurementCycle(path, nil, 700, 1, 1)
	if err != nil {
		t.Fatalf("NewMeasurementCycle: %v", err)
	}

	curie, full, err := cycle.CurieInflection(400, 600)
	if err != nil {
		t.Fatalf("CurieInflection: %v", err)
	}
	if math.Abs(curie-500) > 15 {
		t.Errorf("curie = %g, want ~500", curie)
	}
	if full == nil {
		t.Fatal("returned spline is nil")
	}
	if got := full.Evaluate(500); math.Abs(got-sigmoid(500)) > 5 {
		t.Errorf("spline at 500 = %g, want ~%g", got, sigmoid(500))
	}
}

func TestCurieInflectionNoRoot(t *testing.T) {
	dir := t.TempDir()

	// Strictly convex curve: curvature never crosses zero.
	convex := func(temp float64) float64 { return temp * temp / 10000 }
	heatTemps, heatValues := ramp(300, 700, 10, convex)
	coolTemps, coolValues := ramp(690, 300, -10, convex)
	path := writeCUR(t, dir, "700.CUR", heatTemps, heatValues, coolTemps, coolValues)

	cycle, err := NewMeasurementCycle(path, nil, 700, 1, 1)
	if err != nil {
		t.Fatalf("NewMeasurementCycle: %v", err)
	}

	if _, _, err := cycle.CurieInflection(350, 650); !errors.Is(err, ErrNoInflection) {
		t.Errorf("got %v, want ErrNoInflection", err)
	}
}

func TestCurieInflectionNonMonotonicHeating(t *testing.T) {
	// A temperature dip smaller than the parser's cooling threshold stays
	// in the heating curve. Such a curve cannot be spline-fitted, and the
	// failure must read as insufficient data so callers treat it like any
	// other per-cycle estimation error instead of aborting.
	heatTemps, heatValues := ramp(100, 300, 10, func(float64) float64 { return 5 })
	heatTemps[10] = heatTemps[9] - 0.2

	cycle := &MeasurementCycle{
		TargetTemp: 300,
		Heating:    curve.New(heatTemps, heatValues),
		Cooling:    curve.New([]float64{100, 200}, []float64{5, 5}),
	}

	if _, _, err := cycle.CurieInflection(0, 700); !errors.Is(err, spline.ErrInsufficientData) {
		t.Errorf("got %v, want ErrInsufficientData", err)
	}
}

func TestAlterationIndex(t *testing.T) {
	cycle := &MeasurementCycle{
		Heating: curve.New([]float64{30, 100}, []float64{10, 20}),
		Cooling: curve.New([]float64{30, 100}, []float64{12, 22}),
	}
	if got := cycle.AlterationIndex(); got != 2 {
		t.Errorf("AlterationIndex = %g, want 2", got)
	}

	empty := &MeasurementCycle{}
	if got := empty.AlterationIndex(); !math.IsNaN(got) {
		t.Errorf("AlterationIndex of empty cycle = %g, want NaN", got)
	}
}

func TestWriteCSV(t *testing.T) {
	cycle := &MeasurementCycle{
		Heating: curve.New([]float64{100, 200}, []float64{1.25, 2.5}),
		Cooling: curve.New([]float64{50, 150}, []float64{3.5, 4.75}),
	}

	path := filepath.Join(t.TempDir(), "out.csv")
	if err := cycle.WriteCSV(path); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}

	want := "100.00,1.25\n" +
		"200.00,2.50\n" +
		"150.00,4.75\n" +
		"50.00,3.50\n"
	if string(data) != want {
		t.Errorf("CSV content:\n%s\nwant:\n%s", data, want)
	}
}

func TestEstimationDoesNotMutateCurves(t *testing.T) {
	dir := t.TempDir()

	heatTemps, heatValues := ramp(585, 655, 5, paramagnetic(580))
	coolTemps, coolValues := ramp(650, 585, -5, paramagnetic(580))
	path := writeCUR(t, dir, "650.CUR", heatTemps, heatValues, coolTemps, coolValues)

	cycle, err := NewMeasurementCycle(path, nil, 650, 1, 1)
	if err != nil {
		t.Fatalf("NewMeasurementCycle: %v", err)
	}

	before := cycle.Heating.Clone()
	_, _, _ = cycle.CurieParamagnetic(585, 655)
	_, _, _ = cycle.CurieInflection(585, 655)

	for i := range before.Values {
		if cycle.Heating.Values[i] != before.Values[i] || cycle.Heating.Temps[i] != before.Temps[i] {
			t.Fatalf("heating curve mutated at index %d", i)
		}
	}
}
