package magsus

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/geomagtools/thermomag/internal/kappabridge"
)

// DefaultOrderOfMagnitude is the decimal exponent the instrument's raw
// susceptibility values are expressed in.
const DefaultOrderOfMagnitude = -6

// zeroTailPoints is how many of the hottest cooling points feed the
// zero-point offset estimate near 700 °C.
const zeroTailPoints = 5

// MeasurementSet aggregates the measurement cycles of one physical sample,
// keyed by target temperature.
type MeasurementSet struct {
	Name   string                    // Sample name, taken from the directory leaf
	Cycles map[int]*MeasurementCycle // Cycles keyed by target temperature in °C

	oom float64 // Current order-of-magnitude scale factor
}

// NewMeasurementSet scans dir for files named <temperature>[A|B].CUR and
// builds a cycle for each, sharing the optional furnace baseline and the
// volume parameters across all of them. Files not following the naming
// convention are skipped; when repeated runs share a nominal temperature
// the later-scanned file wins.
func NewMeasurementSet(furnace *Furnace, dir string, realVol, nomVol float64) (*MeasurementSet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("magsus: scanning %s: %w", dir, err)
	}

	set := &MeasurementSet{
		Name:   filepath.Base(dir),
		Cycles: make(map[int]*MeasurementCycle),
		oom:    DefaultOrderOfMagnitude,
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		temp, ok := kappabridge.FilenameTemperature(entry.Name())
		if !ok {
			continue
		}

		cycle, err := NewMeasurementCycle(filepath.Join(dir, entry.Name()), furnace, temp, realVol, nomVol)
		if err != nil {
			return nil, fmt.Errorf("magsus: reading cycle %s: %w", entry.Name(), err)
		}
		set.Cycles[temp] = cycle
	}

	return set, nil
}

// OrderOfMagnitude returns the decimal exponent the set's values are
// currently expressed in.
func (s *MeasurementSet) OrderOfMagnitude() float64 {
	return s.oom
}

// Rescale re-expresses every susceptibility value in the set at a new
// order of magnitude, multiplying by 10^(current-new). Rescaling to the
// current order of magnitude is a no-op.
func (s *MeasurementSet) Rescale(newOOM float64) {
	factor := math.Pow(10, s.oom-newOOM)
	for _, cycle := range s.Cycles {
		cycle.scaleValues(factor)
	}
	s.oom = newOOM
}

// Shift adds a constant offset to every susceptibility value in the set.
func (s *MeasurementSet) Shift(offset float64) {
	for _, cycle := range s.Cycles {
		cycle.shiftValues(offset)
	}
}

// ZeroAt700 shifts every value in the set so that the susceptibility
// approaches zero at full thermal decomposition. The offset is the negated
// minimum of the 700 °C cycle's hottest cooling values, where the sample's
// remaining susceptibility is the true zero baseline. Returns
// ErrMissingCycle when the set has no 700 °C cycle.
func (s *MeasurementSet) ZeroAt700() error {
	cycle, ok := s.Cycles[700]
	if !ok {
		return fmt.Errorf("%w: 700 °C (sample %s)", ErrMissingCycle, s.Name)
	}

	values := cycle.Cooling.Values
	if len(values) > zeroTailPoints {
		values = values[len(values)-zeroTailPoints:]
	}
	if len(values) == 0 {
		return fmt.Errorf("magsus: 700 °C cycle of sample %s has no cooling data", s.Name)
	}

	minimum := values[0]
	for _, v := range values[1:] {
		if v < minimum {
			minimum = v
		}
	}

	s.Shift(-minimum)
	return nil
}

// Temperatures returns the set's target temperatures in increasing order.
func (s *MeasurementSet) Temperatures() []int {
	temps := make([]int, 0, len(s.Cycles))
	for t := range s.Cycles {
		temps = append(temps, t)
	}
	sort.Ints(temps)
	return temps
}
