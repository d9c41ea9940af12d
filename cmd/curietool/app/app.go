package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/geomagtools/thermomag/internal/magsus"
	"github.com/geomagtools/thermomag/internal/spline"
	"github.com/geomagtools/thermomag/internal/storage"
)

// Run analyses every configured sample directory: furnace correction,
// optional rescaling and zero-point correction, both Curie estimators per
// cycle, CSV export, and result storage. Estimation failures are logged per
// cycle and do not stop the run.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	var furnace *magsus.Furnace
	if config.Furnace.File != "" {
		var err error
		if furnace, err = magsus.NewFurnace(config.Furnace.File, config.Furnace.Smoothing); err != nil {
			return fmt.Errorf("loading furnace baseline: %w", err)
		}
		logger.Info("furnace baseline loaded", slog.String("file", config.Furnace.File))
	} else {
		logger.Warn("no furnace file configured, skipping baseline correction")
	}

	var store *storage.Store
	if config.Output.Database != "" {
		store = storage.New(config.Output.Database)
		defer store.Close()
	}

	if config.Output.CSVDirectory != "" {
		if err := os.MkdirAll(config.Output.CSVDirectory, 0o755); err != nil {
			return fmt.Errorf("creating CSV directory: %w", err)
		}
	}

	for _, sample := range config.Samples {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := analyzeSample(ctx, config, sample, furnace, store, logger); err != nil {
			return fmt.Errorf("analyzing %s: %w", sample.Directory, err)
		}
	}
	return nil
}

func analyzeSample(ctx context.Context, config *Config, sample SampleConfig, furnace *magsus.Furnace, store *storage.Store, logger *slog.Logger) error {
	set, err := magsus.NewMeasurementSet(furnace, sample.Directory, sample.RealVolume, sample.NominalVolume)
	if err != nil {
		return err
	}

	logger = logger.With(slog.String("sample", set.Name))
	if len(set.Cycles) == 0 {
		logger.Warn("no measurement files found")
		return nil
	}

	if config.OrderOfMagnitude != nil {
		set.Rescale(*config.OrderOfMagnitude)
	}
	if config.ZeroAt700 {
		if err := set.ZeroAt700(); err != nil {
			// The rest of the analysis is still valid without the shift.
			logger.Warn("zero-point correction skipped", slog.Any("error", err))
		}
	}

	var sessionID int64
	if store != nil {
		if sessionID, err = store.CreateSession(ctx, set.Name, sample.RealVolume, sample.NominalVolume, set.OrderOfMagnitude(), config); err != nil {
			return fmt.Errorf("creating session: %w", err)
		}
	}

	for _, temp := range set.Temperatures() {
		cycle := set.Cycles[temp]
		if err := analyzeCycle(ctx, config, set, cycle, sessionID, store, logger); err != nil {
			return err
		}
	}

	logger.Info("sample done", slog.Int("cycles", len(set.Cycles)))
	return nil
}

func analyzeCycle(ctx context.Context, config *Config, set *magsus.MeasurementSet, cycle *magsus.MeasurementCycle, sessionID int64, store *storage.Store, logger *slog.Logger) error {
	logger = logger.With(slog.Int("targetTemp", cycle.TargetTemp))

	var cycleID int64
	if store != nil {
		var err error
		if cycleID, err = store.StoreCycle(ctx, sessionID, cycle); err != nil {
			return fmt.Errorf("storing cycle: %w", err)
		}
	}

	attrs := []any{
		slog.String("points", humanize.Comma(int64(cycle.PointCount()))),
		slog.String("alteration", formatSusceptibility(cycle.AlterationIndex(), set.OrderOfMagnitude())),
	}

	curie, fit, err := cycle.CurieParamagnetic(config.Curie.MinTemp, config.Curie.MaxTemp)
	switch {
	case err == nil:
		attrs = append(attrs,
			slog.Float64("curieParamagnetic", round2(curie)),
			slog.Float64("rSquared", fit.RSquared))
		if store != nil {
			rsq := fit.RSquared
			if err := store.StoreEstimate(ctx, cycleID, storage.MethodParamagnetic, curie, &rsq, config.Curie.MinTemp, config.Curie.MaxTemp); err != nil {
				return fmt.Errorf("storing estimate: %w", err)
			}
		}

	case isEstimationError(err):
		logger.Warn("paramagnetic estimate failed", slog.Any("error", err))

	default:
		return err
	}

	curie, _, err = cycle.CurieInflection(config.Curie.MinTemp, config.Curie.MaxTemp)
	switch {
	case err == nil:
		attrs = append(attrs, slog.Float64("curieInflection", round2(curie)))
		if store != nil {
			if err := store.StoreEstimate(ctx, cycleID, storage.MethodInflection, curie, nil, config.Curie.MinTemp, config.Curie.MaxTemp); err != nil {
				return fmt.Errorf("storing estimate: %w", err)
			}
		}

	case isEstimationError(err):
		logger.Warn("inflection estimate failed", slog.Any("error", err))

	default:
		return err
	}

	if config.Output.CSVDirectory != "" {
		name := fmt.Sprintf("%s_%d.csv", set.Name, cycle.TargetTemp)
		if err := cycle.WriteCSV(filepath.Join(config.Output.CSVDirectory, name)); err != nil {
			return err
		}
	}

	logger.Info("cycle analyzed", attrs...)
	return nil
}

// isEstimationError reports whether an error is local to one estimation
// call, in which case the remaining cycles are still worth processing.
func isEstimationError(err error) bool {
	var fitErr *magsus.FitError
	return errors.As(err, &fitErr) ||
		errors.Is(err, magsus.ErrNoInflection) ||
		errors.Is(err, spline.ErrInsufficientData)
}

// formatSusceptibility renders a susceptibility value in SI notation,
// applying the set's order-of-magnitude exponent.
func formatSusceptibility(value, oom float64) string {
	if math.IsNaN(value) {
		return "n/a"
	}
	return humanize.SIWithDigits(value*math.Pow(10, oom), 2, "")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
