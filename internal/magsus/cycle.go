package magsus

import (
	"bufio"
	"fmt"
	"math"
	"os"

	"github.com/geomagtools/thermomag/internal/curve"
	"github.com/geomagtools/thermomag/internal/kappabridge"
	"github.com/geomagtools/thermomag/internal/spline"
)

const (
	// inflectionFitSmoothing is applied to the spline fitted through the
	// full heating curve for inflection-point detection.
	inflectionFitSmoothing = 0.1

	// derivativeFitSmoothing is applied to the spline fitted through the
	// sampled second-derivative values.
	derivativeFitSmoothing = 3
)

// LinearFit is a first-degree least-squares fit y = Slope*x + Intercept.
type LinearFit struct {
	Slope     float64
	Intercept float64
	RSquared  float64 // Coefficient of determination against the sample mean
}

// Eval returns the fitted value at x.
func (f LinearFit) Eval(x float64) float64 {
	return f.Slope*x + f.Intercept
}

// MeasurementCycle is one heating-cooling run of a sample at one target
// temperature. Its curves are furnace-corrected (when a baseline was
// supplied) and normalised to the nominal sample volume. The curves are
// replaced only through set-level rescale and shift operations; estimation
// never mutates them.
type MeasurementCycle struct {
	TargetTemp int         // Nominal peak temperature of the run, in °C
	Heating    curve.Curve // Corrected heating curve, increasing temperature
	Cooling    curve.Curve // Corrected cooling curve, increasing temperature
}

// NewMeasurementCycle reads a sample .CUR file and prepares its curves.
// If furnace is non-nil its baseline is subtracted from both curves; the
// furnace is only read and may be shared across cycles. Susceptibilities
// are then scaled by nomVol/realVol to normalise the true sample volume to
// the nominal reference volume. Both volumes must be positive.
func NewMeasurementCycle(path string, furnace *Furnace, targetTemp int, realVol, nomVol float64) (*MeasurementCycle, error) {
	if realVol <= 0 || nomVol <= 0 {
		return nil, fmt.Errorf("magsus: volumes must be positive (real %g, nominal %g)", realVol, nomVol)
	}

	heating, cooling, err := kappabridge.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if furnace != nil {
		heating, cooling = furnace.Correct(heating, cooling)
	}

	scale := nomVol / realVol
	return &MeasurementCycle{
		TargetTemp: targetTemp,
		Heating:    heating.Scale(scale),
		Cooling:    cooling.Scale(scale),
	}, nil
}

// CurieParamagnetic estimates the Curie temperature from the heating curve
// restricted to [minTemp, maxTemp], exploiting Curie-Weiss behaviour: above
// the Curie point the reciprocal susceptibility is linear in temperature,
// so the fitted line's x-intercept estimates the Curie temperature.
//
// Returns a FitError when the range holds fewer than two points, contains a
// zero susceptibility, or has no variance for the fit to explain.
func (c *MeasurementCycle) CurieParamagnetic(minTemp, maxTemp float64) (float64, LinearFit, error) {
	chopped := c.Heating.Chop(minTemp, maxTemp)
	if chopped.Len() < 2 {
		return 0, LinearFit{}, &FitError{Reason: fmt.Sprintf("%d points in [%g, %g]", chopped.Len(), minTemp, maxTemp)}
	}

	recip := make([]float64, chopped.Len())
	for i, v := range chopped.Values {
		if v == 0 {
			return 0, LinearFit{}, &FitError{Reason: fmt.Sprintf("zero susceptibility at %g °C", chopped.Temps[i])}
		}
		recip[i] = 1 / v
	}

	fit, err := linearFit(chopped.Temps, recip)
	if err != nil {
		return 0, LinearFit{}, err
	}
	if fit.Slope == 0 {
		return 0, LinearFit{}, &FitError{Reason: "zero slope, no x-intercept"}
	}

	return -fit.Intercept / fit.Slope, fit, nil
}

// CurieInflection estimates the Curie temperature as the inflection point
// of the heating curve past the Hopkinson peak. A smoothing spline is
// fitted to the full heating curve (full-range data keeps the fit accurate
// at the edges of the selected range); its second derivative is sampled at
// the curve's temperature steps within [minTemp, maxTemp] and a second
// smoothing spline is fitted to those samples. The first root of the second
// spline, where curvature crosses zero, is the estimate.
//
// The returned spline is the full-curve fit. Returns ErrNoInflection when
// the curvature never crosses zero in range.
func (c *MeasurementCycle) CurieInflection(minTemp, maxTemp float64) (float64, *spline.Spline, error) {
	full, err := spline.Fit(c.Heating.Temps, c.Heating.Values, inflectionFitSmoothing)
	if err != nil {
		return 0, nil, fmt.Errorf("magsus: fitting heating curve: %w", err)
	}

	chopped := c.Heating.Chop(minTemp, maxTemp)
	derivs := make([]float64, chopped.Len())
	for i, t := range chopped.Temps {
		derivs[i] = full.SecondDerivative(t)
	}

	derivSpline, err := spline.Fit(chopped.Temps, derivs, derivativeFitSmoothing)
	if err != nil {
		return 0, nil, fmt.Errorf("magsus: fitting curvature: %w", err)
	}

	roots := derivSpline.Roots()
	if len(roots) == 0 {
		return 0, nil, ErrNoInflection
	}
	return roots[0], full, nil
}

// AlterationIndex is the difference between the first stored cooling and
// heating susceptibilities, both at the cycle's starting temperature. A
// non-zero index indicates the sample was chemically altered by heating.
// NaN when either curve is empty.
func (c *MeasurementCycle) AlterationIndex() float64 {
	if c.Heating.Len() == 0 || c.Cooling.Len() == 0 {
		return math.NaN()
	}
	return c.Cooling.Values[0] - c.Heating.Values[0]
}

// PointCount returns the total number of stored points across both curves.
func (c *MeasurementCycle) PointCount() int {
	return c.Heating.Len() + c.Cooling.Len()
}

// WriteCSV writes the corrected curves as temperature,susceptibility rows
// at two decimal places: heating points in increasing temperature order,
// then cooling points in decreasing order, preserving the instrument's
// heating-peak-cooling progression. No header row is written.
func (c *MeasurementCycle) WriteCSV(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("magsus: creating %s: %w", path, err)
	}
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	w := bufio.NewWriter(f)
	for i := range c.Heating.Temps {
		fmt.Fprintf(w, "%.2f,%.2f\n", c.Heating.Temps[i], c.Heating.Values[i])
	}
	for i := c.Cooling.Len() - 1; i >= 0; i-- {
		fmt.Fprintf(w, "%.2f,%.2f\n", c.Cooling.Temps[i], c.Cooling.Values[i])
	}
	if err = w.Flush(); err != nil {
		return fmt.Errorf("magsus: writing %s: %w", path, err)
	}
	return nil
}

// scaleValues replaces both curves with copies scaled by factor. Used by
// set-level rescaling.
func (c *MeasurementCycle) scaleValues(factor float64) {
	c.Heating = c.Heating.Scale(factor)
	c.Cooling = c.Cooling.Scale(factor)
}

// shiftValues replaces both curves with copies shifted by offset. Used by
// set-level shifting.
func (c *MeasurementCycle) shiftValues(offset float64) {
	c.Heating = c.Heating.Shift(offset)
	c.Cooling = c.Cooling.Shift(offset)
}

// linearFit computes a first-degree least-squares fit and its coefficient
// of determination. Fails with a FitError when the y values are constant
// (zero total variance leaves R² undefined).
func linearFit(xs, ys []float64) (LinearFit, error) {
	n := float64(len(xs))

	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var sxx, sxy float64
	for i := range xs {
		dx := xs[i] - meanX
		sxx += dx * dx
		sxy += dx * (ys[i] - meanY)
	}
	if sxx == 0 {
		return LinearFit{}, &FitError{Reason: "degenerate x range"}
	}

	fit := LinearFit{Slope: sxy / sxx}
	fit.Intercept = meanY - fit.Slope*meanX

	var ssRes, ssTot float64
	for i := range xs {
		r := ys[i] - fit.Eval(xs[i])
		ssRes += r * r
		d := ys[i] - meanY
		ssTot += d * d
	}
	if ssTot == 0 {
		return LinearFit{}, &FitError{Reason: "constant data, R² undefined"}
	}
	fit.RSquared = 1 - ssRes/ssTot

	return fit, nil
}
