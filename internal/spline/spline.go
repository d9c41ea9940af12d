// Package spline implements a smoothing natural cubic spline after Reinsch.
//
// The fit minimises the integrated squared second derivative subject to the
// sum of squared residuals not exceeding a caller-supplied smoothing bound.
// A bound of zero yields an exact interpolating spline; larger bounds trade
// fidelity for noise rejection.
package spline

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrInsufficientData is returned when the samples supplied to Fit cannot
// support a cubic fit: fewer than MinPoints of them, or temperatures that
// are not strictly increasing.
var ErrInsufficientData = errors.New("spline: insufficient data for a cubic fit")

// MinPoints is the minimum number of samples for a cubic fit.
const MinPoints = 4

const (
	// residualTol is the relative tolerance on matching the smoothing bound.
	residualTol = 1e-9

	// maxBisect bounds the bisection search for the penalty parameter.
	maxBisect = 200
)

// Spline is a fitted piecewise-cubic curve. On the interval starting at
// knot i the curve is a[i] + b[i]*h + c[i]*h^2 + d[i]*h^3 with h = x - x[i].
// The end segments extend beyond the data range, so evaluation outside it
// is defined but of limited accuracy.
type Spline struct {
	x []float64
	a []float64
	b []float64
	c []float64
	d []float64
}

// Fit fits a smoothing cubic spline to the samples (xs[i], ys[i]). The xs
// must be strictly increasing and at least MinPoints long; violations fail
// with an error wrapping ErrInsufficientData. The smoothing parameter
// bounds the sum of squared residuals of the fit; zero demands exact
// interpolation.
func Fit(xs, ys []float64, smoothing float64) (*Spline, error) {
	n := len(xs)
	if n < MinPoints || len(ys) != n {
		return nil, fmt.Errorf("%w: need at least %d points, got %d", ErrInsufficientData, MinPoints, n)
	}
	for i := 1; i < n; i++ {
		if xs[i] <= xs[i-1] {
			return nil, fmt.Errorf("%w: x values not strictly increasing at index %d (%g after %g)", ErrInsufficientData, i, xs[i], xs[i-1])
		}
	}

	fitted, m2 := solve(xs, ys, smoothing)
	return build(xs, fitted, m2), nil
}

// Evaluate returns the spline value at x. Outside the fitted range the end
// segment's cubic is extrapolated.
func (s *Spline) Evaluate(x float64) float64 {
	i := s.segment(x)
	h := x - s.x[i]
	return s.a[i] + h*(s.b[i]+h*(s.c[i]+h*s.d[i]))
}

// SecondDerivative returns the spline's second derivative at x.
func (s *Spline) SecondDerivative(x float64) float64 {
	i := s.segment(x)
	h := x - s.x[i]
	return 2*s.c[i] + 6*s.d[i]*h
}

// Roots returns the x values within the fitted range at which the spline
// crosses zero, in increasing order. The slice is empty when the spline has
// no root in its domain.
func (s *Spline) Roots() []float64 {
	var roots []float64
	n := len(s.x)
	for i := 0; i < n-1; i++ {
		width := s.x[i+1] - s.x[i]
		for _, h := range cubicRoots(s.a[i], s.b[i], s.c[i], s.d[i]) {
			if h < -rootTol || h > width+rootTol {
				continue
			}
			root := s.x[i] + math.Min(math.Max(h, 0), width)
			if len(roots) > 0 && math.Abs(root-roots[len(roots)-1]) <= rootTol*(1+math.Abs(root)) {
				continue // same root straddling a knot
			}
			roots = append(roots, root)
		}
	}
	sort.Float64s(roots)
	return roots
}

// segment returns the index of the cubic piece covering x, clamped to the
// end pieces outside the fitted range.
func (s *Spline) segment(x float64) int {
	n := len(s.x)
	if x <= s.x[0] {
		return 0
	}
	if x >= s.x[n-1] {
		return n - 2
	}
	i := sort.SearchFloat64s(s.x, x)
	if i > 0 && s.x[i] != x {
		i--
	}
	if i > n-2 {
		i = n - 2
	}
	return i
}

// solve computes the fitted knot values and knot second derivatives for the
// given smoothing bound. It is the Reinsch formulation: for a penalty p the
// interior second derivatives g satisfy (p*QtQ + T) g = Qt y and the fitted
// values are y - p*Q g, where Q is the second-difference operator and T the
// natural-spline Gram matrix. The residual grows monotonically with p, so p
// is located by doubling and bisection until the residual meets the bound.
func solve(xs, ys []float64, smoothing float64) (fitted, m2 []float64) {
	if smoothing <= 0 {
		return ys, naturalSecondDerivs(xs, ys)
	}

	// Bracket the penalty. If even a very stiff fit stays under the bound,
	// the stiff fit is accepted as-is.
	lo, hi := 0.0, 1.0
	r := residual(xs, ys, hi)
	for iter := 0; r < smoothing && iter < maxBisect; iter++ {
		lo, hi = hi, hi*16
		r = residual(xs, ys, hi)
	}
	if r < smoothing {
		f, g := smoothAt(xs, ys, hi)
		return f, expand(g, len(xs))
	}

	for iter := 0; iter < maxBisect && (hi-lo) > residualTol*hi; iter++ {
		mid := (lo + hi) / 2
		if residual(xs, ys, mid) < smoothing {
			lo = mid
		} else {
			hi = mid
		}
	}

	f, g := smoothAt(xs, ys, lo)
	return f, expand(g, len(xs))
}

// residual returns the sum of squared residuals of the smoothing fit with
// penalty p.
func residual(xs, ys []float64, p float64) float64 {
	f, _ := smoothAt(xs, ys, p)
	var sum float64
	for i := range ys {
		r := ys[i] - f[i]
		sum += r * r
	}
	return sum
}

// smoothAt solves the penalised system for one penalty value, returning the
// fitted knot values and the interior second derivatives.
func smoothAt(xs, ys []float64, p float64) (fitted, interior []float64) {
	n := len(xs)
	m := n - 2 // interior knots

	h := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		h[i] = xs[i+1] - xs[i]
	}

	// Right-hand side: second differences of y.
	rhs := make([]float64, m)
	for i := 0; i < m; i++ {
		rhs[i] = (ys[i+2]-ys[i+1])/h[i+1] - (ys[i+1]-ys[i])/h[i]
	}

	// Pentadiagonal symmetric matrix p*QtQ + T, stored by diagonal.
	d0 := make([]float64, m) // main
	d1 := make([]float64, m) // first super
	d2 := make([]float64, m) // second super
	for i := 0; i < m; i++ {
		hl, hr := h[i], h[i+1]
		q := 1/hl + 1/hr
		d0[i] = p*(1/(hl*hl)+q*q+1/(hr*hr)) + (hl+hr)/3
		if i+1 < m {
			hrr := h[i+2]
			d1[i] = p*(-q/hr-(1/hr)*(1/hr+1/hrr)) + hr/6
		}
		if i+2 < m {
			d2[i] = p / (hr * h[i+2])
		}
	}

	g := solvePenta(d0, d1, d2, rhs)

	// fitted = y - p * Q g, with g extended by zeros at the boundaries.
	ge := expand(g, n)
	fitted = make([]float64, n)
	for i := 0; i < n; i++ {
		var qg float64
		if i > 0 {
			qg += (ge[i-1] - ge[i]) / h[i-1]
		}
		if i < n-1 {
			qg += (ge[i+1] - ge[i]) / h[i]
		}
		fitted[i] = ys[i] - p*qg
	}
	return fitted, g
}

// expand places interior second derivatives into a full-length slice with
// the natural boundary condition (zero curvature at the ends).
func expand(interior []float64, n int) []float64 {
	out := make([]float64, n)
	copy(out[1:], interior)
	return out
}

// solvePenta solves a symmetric positive-definite pentadiagonal system by
// banded Cholesky-style elimination. d0 is the main diagonal, d1 and d2 the
// first and second superdiagonals. Inputs are not preserved.
func solvePenta(d0, d1, d2, rhs []float64) []float64 {
	m := len(d0)

	// LDLt factorisation with bandwidth 2.
	l1 := make([]float64, m) // subdiagonal 1 of L
	l2 := make([]float64, m) // subdiagonal 2 of L
	dd := make([]float64, m) // diagonal of D
	for i := 0; i < m; i++ {
		v := d0[i]
		if i >= 1 {
			v -= l1[i] * l1[i] * dd[i-1]
		}
		if i >= 2 {
			v -= l2[i] * l2[i] * dd[i-2]
		}
		dd[i] = v
		if i+1 < m {
			w := d1[i]
			if i >= 1 {
				w -= l1[i] * l2[i+1] * dd[i-1]
			}
			l1[i+1] = w / dd[i]
		}
		if i+2 < m {
			l2[i+2] = d2[i] / dd[i]
		}
	}

	// Forward substitution L z = rhs.
	z := make([]float64, m)
	for i := 0; i < m; i++ {
		v := rhs[i]
		if i >= 1 {
			v -= l1[i] * z[i-1]
		}
		if i >= 2 {
			v -= l2[i] * z[i-2]
		}
		z[i] = v
	}

	// Diagonal scaling and back substitution Lt g = z / d.
	g := make([]float64, m)
	for i := m - 1; i >= 0; i-- {
		v := z[i] / dd[i]
		if i+1 < m {
			v -= l1[i+1] * g[i+1]
		}
		if i+2 < m {
			v -= l2[i+2] * g[i+2]
		}
		g[i] = v
	}
	return g
}

// naturalSecondDerivs computes the knot second derivatives of the natural
// cubic spline interpolating (xs, ys), by the standard tridiagonal solve.
func naturalSecondDerivs(xs, ys []float64) []float64 {
	n := len(xs)
	m := n - 2

	h := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		h[i] = xs[i+1] - xs[i]
	}

	diag := make([]float64, m)
	upper := make([]float64, m)
	rhs := make([]float64, m)
	for i := 0; i < m; i++ {
		diag[i] = (h[i] + h[i+1]) / 3
		if i+1 < m {
			upper[i] = h[i+1] / 6
		}
		rhs[i] = (ys[i+2]-ys[i+1])/h[i+1] - (ys[i+1]-ys[i])/h[i]
	}

	// Thomas algorithm; the matrix is symmetric so upper doubles as lower.
	for i := 1; i < m; i++ {
		f := upper[i-1] / diag[i-1]
		diag[i] -= f * upper[i-1]
		rhs[i] -= f * rhs[i-1]
	}
	g := make([]float64, m)
	if m > 0 {
		g[m-1] = rhs[m-1] / diag[m-1]
		for i := m - 2; i >= 0; i-- {
			g[i] = (rhs[i] - upper[i]*g[i+1]) / diag[i]
		}
	}
	return expand(g, n)
}

// build assembles per-segment cubic coefficients from fitted knot values
// and knot second derivatives.
func build(xs, fitted, m2 []float64) *Spline {
	n := len(xs)
	s := &Spline{
		x: append([]float64(nil), xs...),
		a: append([]float64(nil), fitted...),
		b: make([]float64, n-1),
		c: make([]float64, n-1),
		d: make([]float64, n-1),
	}
	for i := 0; i < n-1; i++ {
		h := xs[i+1] - xs[i]
		s.b[i] = (fitted[i+1]-fitted[i])/h - h*(2*m2[i]+m2[i+1])/6
		s.c[i] = m2[i] / 2
		s.d[i] = (m2[i+1] - m2[i]) / (6 * h)
	}
	return s
}
