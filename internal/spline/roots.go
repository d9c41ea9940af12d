package spline

import "math"

// rootTol is the absolute tolerance, in x units, used when accepting a
// segment root near a knot and when collapsing duplicate roots.
const rootTol = 1e-9

// cubicRoots returns the real roots of a + b*h + c*h^2 + d*h^3, handling
// degenerate leading coefficients by falling back to the lower-degree
// equation.
func cubicRoots(a, b, c, d float64) []float64 {
	scale := math.Max(math.Max(math.Abs(a), math.Abs(b)), math.Max(math.Abs(c), math.Abs(d)))
	if scale == 0 {
		return nil // identically zero on the segment; no isolated roots
	}
	eps := scale * 1e-14

	if math.Abs(d) <= eps {
		return quadraticRoots(a, b, c, eps)
	}

	// Depressed cubic t^3 + p*t + q via h = t - A/3.
	A := c / d
	B := b / d
	C := a / d
	p := B - A*A/3
	q := 2*A*A*A/27 - A*B/3 + C

	shift := -A / 3
	disc := q*q/4 + p*p*p/27

	switch {
	case disc > 0:
		s := math.Sqrt(disc)
		t := math.Cbrt(-q/2+s) + math.Cbrt(-q/2-s)
		return []float64{t + shift}

	case p == 0:
		// disc <= 0 with p == 0 forces q == 0: a triple root.
		return []float64{shift}

	default:
		// Three real roots by the trigonometric method.
		r := math.Sqrt(-p / 3)
		arg := 3 * q / (2 * p * r)
		if arg > 1 {
			arg = 1
		} else if arg < -1 {
			arg = -1
		}
		phi := math.Acos(arg)
		roots := make([]float64, 0, 3)
		for k := 0; k < 3; k++ {
			t := 2 * r * math.Cos(phi/3-2*math.Pi*float64(k)/3)
			roots = append(roots, t+shift)
		}
		return roots
	}
}

// quadraticRoots returns the real roots of a + b*h + c*h^2.
func quadraticRoots(a, b, c, eps float64) []float64 {
	if math.Abs(c) <= eps {
		if math.Abs(b) <= eps {
			return nil
		}
		return []float64{-a / b}
	}

	disc := b*b - 4*a*c
	if disc < 0 {
		return nil
	}
	if disc == 0 {
		return []float64{-b / (2 * c)}
	}

	// Citardauq form for the smaller-magnitude root to avoid cancellation.
	s := math.Sqrt(disc)
	var q float64
	if b >= 0 {
		q = -(b + s) / 2
	} else {
		q = -(b - s) / 2
	}
	return []float64{q / c, a / q}
}
