// Package kappabridge reads the .CUR data files produced by AGICO
// kappabridge instruments. A file records magnetic susceptibility against
// temperature over one heating-then-cooling cycle; the parser splits the
// two phases and returns them as curves ordered by increasing temperature.
package kappabridge

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/geomagtools/thermomag/internal/curve"
)

const (
	// coolingThreshold is the temperature drop, in °C, below the previous
	// reading that marks the switch from heating to cooling. The margin
	// guards against noise and flat segments near the peak temperature.
	coolingThreshold = 0.5

	// initialTemp sits below any plausible reading so the first data line
	// can never trigger the cooling transition.
	initialTemp = -300
)

// ParseError reports a malformed data line in a .CUR file.
type ParseError struct {
	Line int    // 1-based line number within the file
	Text string // Offending line content
	Err  error  // Underlying decode failure
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("kappabridge: bad data line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// isDataLine reports whether a line carries a measurement: one or more
// leading spaces followed by a digit. Header and footer lines never match.
func isDataLine(line string) bool {
	if len(line) == 0 || line[0] != ' ' {
		return false
	}
	rest := strings.TrimLeft(line, " ")
	return len(rest) > 0 && rest[0] >= '0' && rest[0] <= '9'
}

// parseDataLine decodes the first two space-separated fields of a data line
// as temperature and susceptibility. Any further fields are ignored.
func parseDataLine(line string) (temp, ms float64, err error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0, 0, fmt.Errorf("expected at least 2 fields, got %d", len(fields))
	}

	if temp, err = strconv.ParseFloat(fields[0], 64); err != nil {
		return 0, 0, fmt.Errorf("invalid temperature: %w", err)
	}
	if ms, err = strconv.ParseFloat(fields[1], 64); err != nil {
		return 0, 0, fmt.Errorf("invalid susceptibility: %w", err)
	}
	return temp, ms, nil
}

// ReadFile reads a .CUR file and returns its heating and cooling curves.
//
// Data lines are appended to the heating curve until the first reading more
// than 0.5 °C below its predecessor, after which all remaining lines belong
// to the cooling curve; the transition fires at most once per file. The
// cooling curve, recorded in decreasing-temperature order, is reversed so
// both returned curves increase in temperature. The first recorded point of
// each phase is discarded as an instrument artifact (for cooling, the first
// point in recorded order, before reversal).
//
// A file with no matching data lines yields two empty curves and no error.
func ReadFile(path string) (heating, cooling curve.Curve, err error) {
	f, err := os.Open(path)
	if err != nil {
		return curve.Curve{}, curve.Curve{}, fmt.Errorf("kappabridge: opening %s: %w", path, err)
	}
	defer f.Close()

	var heatTemps, heatValues, coolTemps, coolValues []float64
	inCooling := false
	prevTemp := float64(initialTemp)
	lineNo := 0

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if !isDataLine(line) {
			continue
		}

		temp, ms, perr := parseDataLine(line)
		if perr != nil {
			return curve.Curve{}, curve.Curve{}, &ParseError{Line: lineNo, Text: line, Err: perr}
		}

		if !inCooling && temp < prevTemp-coolingThreshold {
			inCooling = true
		}
		if inCooling {
			coolTemps = append(coolTemps, temp)
			coolValues = append(coolValues, ms)
		} else {
			heatTemps = append(heatTemps, temp)
			heatValues = append(heatValues, ms)
		}
		prevTemp = temp
	}
	if err := scanner.Err(); err != nil {
		return curve.Curve{}, curve.Curve{}, fmt.Errorf("kappabridge: reading %s: %w", path, err)
	}

	heating = dropFirst(curve.New(heatTemps, heatValues))
	cooling = reverse(dropFirst(curve.New(coolTemps, coolValues)))
	return heating, cooling, nil
}

func dropFirst(c curve.Curve) curve.Curve {
	if c.Len() == 0 {
		return c
	}
	return curve.New(c.Temps[1:], c.Values[1:])
}

func reverse(c curve.Curve) curve.Curve {
	n := c.Len()
	temps := make([]float64, n)
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		temps[i] = c.Temps[n-1-i]
		values[i] = c.Values[n-1-i]
	}
	return curve.New(temps, values)
}
