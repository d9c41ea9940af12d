package curve

// Curve is an ordered sequence of (temperature, susceptibility) points,
// stored as two parallel slices of equal length. Heating curves are stored
// in recorded (increasing temperature) order; cooling curves are stored
// reordered to increasing temperature.
type Curve struct {
	Temps  []float64 // Temperatures in °C
	Values []float64 // Magnetic susceptibility in instrument units
}

// New creates a Curve from parallel temperature and susceptibility slices.
// Both slices are retained, not copied.
func New(temps, values []float64) Curve {
	return Curve{Temps: temps, Values: values}
}

// Len returns the number of points in the curve.
func (c Curve) Len() int {
	return len(c.Temps)
}

// Clone returns a deep copy of the curve.
func (c Curve) Clone() Curve {
	temps := make([]float64, len(c.Temps))
	values := make([]float64, len(c.Values))
	copy(temps, c.Temps)
	copy(values, c.Values)
	return Curve{Temps: temps, Values: values}
}

// Chop returns the points whose temperature lies within [minTemp, maxTemp]
// inclusive, preserving stored order.
func (c Curve) Chop(minTemp, maxTemp float64) Curve {
	var out Curve
	for i, t := range c.Temps {
		if minTemp <= t && t <= maxTemp {
			out.Temps = append(out.Temps, t)
			out.Values = append(out.Values, c.Values[i])
		}
	}
	return out
}

// Scale returns a copy of the curve with every susceptibility value
// multiplied by factor. Temperatures are unchanged.
func (c Curve) Scale(factor float64) Curve {
	out := c.Clone()
	for i := range out.Values {
		out.Values[i] *= factor
	}
	return out
}

// Shift returns a copy of the curve with offset added to every
// susceptibility value. Temperatures are unchanged.
func (c Curve) Shift(offset float64) Curve {
	out := c.Clone()
	for i := range out.Values {
		out.Values[i] += offset
	}
	return out
}

// Extend returns a copy of the curve padded with two synthetic points at
// each end: at T-20 and T-10 before the first point and at T+10 and T+20
// after the last, each carrying the adjacent endpoint's susceptibility.
// The flat tails anchor a smoothing-spline fit near the true endpoints,
// where it is otherwise poorly constrained.
func (c Curve) Extend() Curve {
	n := len(c.Temps)
	temps := make([]float64, 0, n+4)
	values := make([]float64, 0, n+4)

	temps = append(temps, c.Temps[0]-20, c.Temps[0]-10)
	temps = append(temps, c.Temps...)
	temps = append(temps, c.Temps[n-1]+10, c.Temps[n-1]+20)

	values = append(values, c.Values[0], c.Values[0])
	values = append(values, c.Values...)
	values = append(values, c.Values[n-1], c.Values[n-1])

	return Curve{Temps: temps, Values: values}
}

// ShuntUp shifts values so that the minimum becomes zero, if any value is
// negative. Otherwise the input is returned unchanged.
func ShuntUp(values []float64) []float64 {
	if len(values) == 0 {
		return values
	}

	minimum := values[0]
	for _, v := range values[1:] {
		if v < minimum {
			minimum = v
		}
	}
	if minimum >= 0 {
		return values
	}

	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v - minimum
	}
	return out
}
