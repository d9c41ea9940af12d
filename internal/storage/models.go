package storage

import "time"

// Estimation methods recorded alongside Curie temperature estimates.
const (
	MethodParamagnetic = "paramagnetic"
	MethodInflection   = "inflection"
)

// Session describes one stored analysis of a sample directory.
type Session struct {
	ID               int64     // Unique identifier for the session
	CreatedAt        time.Time // When the analysis was stored
	SampleName       string    // Sample directory leaf name
	RealVolume       float64   // True sample volume in cm³
	NominalVolume    float64   // Reference volume values are normalised to
	OrderOfMagnitude float64   // Decimal exponent of the stored values
	Config           *string   // Optional run configuration in JSON format
}

// Estimate is one Curie temperature estimate for a stored cycle.
type Estimate struct {
	ID         int64    // Unique identifier for the estimate
	CycleID    int64    // Cycle the estimate was computed from
	TargetTemp int      // Target temperature of that cycle in °C
	Method     string   // MethodParamagnetic or MethodInflection
	CurieTemp  float64  // Estimated Curie temperature in °C
	RSquared   *float64 // Fit quality, paramagnetic method only
	MinTemp    float64  // Lower bound of the fit range in °C
	MaxTemp    float64  // Upper bound of the fit range in °C
}
