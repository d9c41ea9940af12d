package magsus

import "errors"

var (
	// ErrNoInflection is returned when the second-derivative spline has no
	// root within the requested temperature range.
	ErrNoInflection = errors.New("magsus: no inflection point in range")

	// ErrMissingCycle is returned when a set operation needs a cycle at a
	// specific target temperature that the set does not contain.
	ErrMissingCycle = errors.New("magsus: no cycle at required temperature")
)

// FitError reports a degenerate paramagnetic fit: too few points in range,
// a zero susceptibility value (undefined reciprocal), or constant data with
// no variance to explain.
type FitError struct {
	Reason string
}

func (e *FitError) Error() string {
	return "magsus: unusable fit range: " + e.Reason
}
