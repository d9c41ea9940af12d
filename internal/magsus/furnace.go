// Package magsus processes temperature-dependent magnetic susceptibility
// measurements: furnace baseline removal, volume normalisation, and Curie
// temperature estimation over heating-cooling cycles read from kappabridge
// .CUR files.
package magsus

import (
	"fmt"

	"github.com/geomagtools/thermomag/internal/curve"
	"github.com/geomagtools/thermomag/internal/kappabridge"
	"github.com/geomagtools/thermomag/internal/spline"
)

// DefaultFurnaceSmoothing is the spline smoothing factor used for furnace
// baseline fits unless the caller overrides it.
const DefaultFurnaceSmoothing = 100

// Furnace holds the empty-apparatus baseline measurement: the padded
// heating and cooling curves of a furnace-only run and a smoothing spline
// fitted to each. It is immutable after construction and may be shared
// read-only across any number of measurement cycles.
type Furnace struct {
	heatData curve.Curve // Padded heating curve
	coolData curve.Curve // Padded cooling curve

	heatSpline *spline.Spline
	coolSpline *spline.Spline
}

// NewFurnace reads a furnace-only .CUR file and fits a smoothing spline to
// each of its curves. Both curves are end-padded with flat synthetic tails
// before fitting so that evaluation near the true endpoints stays stable.
func NewFurnace(path string, smoothing float64) (*Furnace, error) {
	heating, cooling, err := kappabridge.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if heating.Len() == 0 || cooling.Len() == 0 {
		return nil, fmt.Errorf("magsus: furnace file %s holds no usable cycle data", path)
	}

	f := &Furnace{
		heatData: heating.Extend(),
		coolData: cooling.Extend(),
	}

	if f.heatSpline, err = spline.Fit(f.heatData.Temps, f.heatData.Values, smoothing); err != nil {
		return nil, fmt.Errorf("magsus: fitting heating baseline: %w", err)
	}
	if f.coolSpline, err = spline.Fit(f.coolData.Temps, f.coolData.Values, smoothing); err != nil {
		return nil, fmt.Errorf("magsus: fitting cooling baseline: %w", err)
	}
	return f, nil
}

// Correct subtracts the fitted furnace baselines from a cycle's curves,
// heating spline from the heating curve and cooling spline from the cooling
// curve. The returned curves share temperatures with the inputs and carry
// baseline-removed susceptibility values.
func (f *Furnace) Correct(heating, cooling curve.Curve) (curve.Curve, curve.Curve) {
	return correctWithSpline(heating, f.heatSpline.Evaluate),
		correctWithSpline(cooling, f.coolSpline.Evaluate)
}

// SplineData returns the padded furnace curves together with each fitted
// spline sampled at 1 °C steps over 20-700 °C, for checking how well the
// splines track the measured baseline.
func (f *Furnace) SplineData() (heatData, heatFit, coolData, coolFit curve.Curve) {
	const lo, hi = 20, 700

	temps := make([]float64, 0, hi-lo+1)
	heatValues := make([]float64, 0, hi-lo+1)
	coolValues := make([]float64, 0, hi-lo+1)
	for t := float64(lo); t <= hi; t++ {
		temps = append(temps, t)
		heatValues = append(heatValues, f.heatSpline.Evaluate(t))
		coolValues = append(coolValues, f.coolSpline.Evaluate(t))
	}

	return f.heatData.Clone(), curve.New(temps, heatValues),
		f.coolData.Clone(), curve.New(append([]float64(nil), temps...), coolValues)
}

// correctWithSpline subtracts eval(T) from the susceptibility at every
// point of the curve.
func correctWithSpline(c curve.Curve, eval func(float64) float64) curve.Curve {
	out := c.Clone()
	for i, t := range out.Temps {
		out.Values[i] -= eval(t)
	}
	return out
}
