package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/geomagtools/thermomag/internal/magsus"
)

// Config represents the main application configuration
type Config struct {
	Settings Settings       `yaml:"settings"`
	Furnace  FurnaceConfig  `yaml:"furnace"`
	Samples  []SampleConfig `yaml:"samples"`
	Curie    CurieConfig    `yaml:"curie"`
	Output   OutputConfig   `yaml:"output"`

	// OrderOfMagnitude, when set, rescales every set to this decimal
	// exponent before analysis. Values are read at 10^-6.
	OrderOfMagnitude *float64 `yaml:"orderOfMagnitude"`

	// ZeroAt700 shifts each set so susceptibility approaches zero at the
	// 700 °C cooling tail. Requires a 700 °C cycle per sample.
	ZeroAt700 bool `yaml:"zeroAt700"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel string `yaml:"logLevel"`
}

// FurnaceConfig locates the empty-furnace run used for baseline removal.
// When File is empty no baseline correction is applied.
type FurnaceConfig struct {
	File      string  `yaml:"file"`
	Smoothing float64 `yaml:"smoothing"`
}

// SampleConfig describes one sample directory of .CUR files.
type SampleConfig struct {
	Directory     string  `yaml:"directory"`
	RealVolume    float64 `yaml:"realVolume"`
	NominalVolume float64 `yaml:"nominalVolume"`
}

// CurieConfig is the temperature range handed to both Curie estimators.
type CurieConfig struct {
	MinTemp float64 `yaml:"minTemp"`
	MaxTemp float64 `yaml:"maxTemp"`
}

// OutputConfig represents result output settings. Empty fields disable the
// corresponding output.
type OutputConfig struct {
	CSVDirectory string `yaml:"csvDirectory"`
	Database     string `yaml:"database"`
}

// LoadConfig reads and validates a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}

	config := Config{
		Furnace: FurnaceConfig{Smoothing: magsus.DefaultFurnaceSmoothing},
	}
	if err = yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if len(config.Samples) == 0 {
		return nil, errors.New("no sample directories specified")
	}
	for i, sample := range config.Samples {
		if sample.Directory == "" {
			return nil, fmt.Errorf("sample %d: directory is required", i)
		}
		if sample.RealVolume <= 0 || sample.NominalVolume <= 0 {
			return nil, fmt.Errorf("sample %d: volumes must be positive", i)
		}
	}
	if config.Curie.MaxTemp <= config.Curie.MinTemp {
		return nil, fmt.Errorf("invalid Curie fit range [%g, %g]", config.Curie.MinTemp, config.Curie.MaxTemp)
	}
	if config.Furnace.File != "" && config.Furnace.Smoothing < 0 {
		return nil, errors.New("furnace smoothing must not be negative")
	}

	return &config, nil
}

// LogLevel parses the configured log level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Settings.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
