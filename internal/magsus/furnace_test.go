package magsus

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/geomagtools/thermomag/internal/curve"
)

// writeCUR writes a .CUR file holding the given recorded points: heating in
// increasing temperature order, then cooling in decreasing (recorded) order.
func writeCUR(t *testing.T, dir, name string, heatTemps, heatValues, coolTemps, coolValues []float64) string {
	t.Helper()

	var sb strings.Builder
	sb.WriteString("KAPPABRIDGE TEST DATA\n")
	for i := range heatTemps {
		fmt.Fprintf(&sb, " %g  %g\n", heatTemps[i], heatValues[i])
	}
	for i := range coolTemps {
		fmt.Fprintf(&sb, " %g  %g\n", coolTemps[i], coolValues[i])
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

// ramp returns temperatures from first to last in the given step together
// with values produced by f.
func ramp(first, last, step float64, f func(t float64) float64) (temps, values []float64) {
	if step > 0 {
		for t := first; t <= last; t += step {
			temps = append(temps, t)
			values = append(values, f(t))
		}
	} else {
		for t := first; t >= last; t += step {
			temps = append(temps, t)
			values = append(values, f(t))
		}
	}
	return temps, values
}

func TestCorrectWithSpline(t *testing.T) {
	baseline := map[float64]float64{30: 5, 40: 4, 50: 3, 60: 2}
	eval := func(temp float64) float64 { return baseline[temp] }

	in := curve.New([]float64{30, 40, 50, 60}, []float64{21, 22, 23, 24})
	got := correctWithSpline(in, eval)

	wantValues := []float64{16, 18, 20, 22}
	for i := range wantValues {
		if got.Values[i] != wantValues[i] {
			t.Errorf("value[%d] = %g, want %g", i, got.Values[i], wantValues[i])
		}
		if got.Temps[i] != in.Temps[i] {
			t.Errorf("temp[%d] changed: %g", i, got.Temps[i])
		}
	}

	// Correction must not mutate the input curve.
	if in.Values[0] != 21 {
		t.Errorf("input curve mutated: %v", in.Values)
	}
}

func TestFurnaceCorrectFlatBaseline(t *testing.T) {
	dir := t.TempDir()

	flat := func(float64) float64 { return 5 }
	heatTemps, heatValues := ramp(0, 700, 50, flat)
	coolTemps, coolValues := ramp(650, 0, -50, flat)
	path := writeCUR(t, dir, "furnace.CUR", heatTemps, heatValues, coolTemps, coolValues)

	furnace, err := NewFurnace(path, DefaultFurnaceSmoothing)
	if err != nil {
		t.Fatalf("NewFurnace: %v", err)
	}

	heating := curve.New([]float64{100, 200, 300}, []float64{15, 25, 35})
	cooling := curve.New([]float64{150, 250, 350}, []float64{8, 9, 10})
	gotHeat, gotCool := furnace.Correct(heating, cooling)

	wantHeat := []float64{10, 20, 30}
	wantCool := []float64{3, 4, 5}
	for i := range wantHeat {
		if math.Abs(gotHeat.Values[i]-wantHeat[i]) > 1e-6 {
			t.Errorf("heating value[%d] = %g, want %g", i, gotHeat.Values[i], wantHeat[i])
		}
		if math.Abs(gotCool.Values[i]-wantCool[i]) > 1e-6 {
			t.Errorf("cooling value[%d] = %g, want %g", i, gotCool.Values[i], wantCool[i])
		}
	}
}

func TestFurnaceSplineData(t *testing.T) {
	dir := t.TempDir()

	flat := func(float64) float64 { return 2 }
	heatTemps, heatValues := ramp(0, 700, 50, flat)
	coolTemps, coolValues := ramp(650, 0, -50, flat)
	path := writeCUR(t, dir, "furnace.CUR", heatTemps, heatValues, coolTemps, coolValues)

	furnace, err := NewFurnace(path, DefaultFurnaceSmoothing)
	if err != nil {
		t.Fatalf("NewFurnace: %v", err)
	}

	heatData, heatFit, coolData, coolFit := furnace.SplineData()

	// 20..700 inclusive at 1 °C steps.
	if heatFit.Len() != 681 || coolFit.Len() != 681 {
		t.Fatalf("fit lengths = %d, %d, want 681", heatFit.Len(), coolFit.Len())
	}
	if heatFit.Temps[0] != 20 || heatFit.Temps[680] != 700 {
		t.Errorf("fit range = [%g, %g], want [20, 700]", heatFit.Temps[0], heatFit.Temps[680])
	}
	for i := 0; i < heatFit.Len(); i += 100 {
		if math.Abs(heatFit.Values[i]-2) > 1e-6 {
			t.Errorf("heating fit at %g °C = %g, want 2", heatFit.Temps[i], heatFit.Values[i])
		}
		if math.Abs(coolFit.Values[i]-2) > 1e-6 {
			t.Errorf("cooling fit at %g °C = %g, want 2", coolFit.Temps[i], coolFit.Values[i])
		}
	}

	// Padded data: two synthetic flat points at each end.
	if heatData.Len() != 18 { // 15 parsed points minus first, plus 4 pads
		t.Errorf("padded heating data has %d points, want 18", heatData.Len())
	}
	if coolData.Temps[0] != coolData.Temps[2]-20 {
		t.Errorf("cooling pad offset wrong: %v", coolData.Temps[:3])
	}
}

func TestNewFurnaceEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "furnace.CUR")
	if err := os.WriteFile(path, []byte("no data\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFurnace(path, DefaultFurnaceSmoothing); err == nil {
		t.Error("expected error for furnace file without data lines")
	}
}
