package app

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rfsentinel/drone-detector/internal/radio"
	"github.com/rfsentinel/drone-detector/internal/radio/sim"
	"github.com/rfsentinel/drone-detector/internal/radio/sx1262"
)

const (
	DriverSim    DriverType = "sim"
	DriverSX1262 DriverType = "sx1262"
)

type DriverType string

var validDrivers = map[DriverType]struct{}{
	DriverSim:    {},
	DriverSX1262: {},
}

// LogLevel is a slog.Level that unmarshals from the usual YAML spellings:
// debug, info, warn, error.
type LogLevel slog.Level

func (l *LogLevel) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}

	*l = LogLevel(level)
	return nil
}

// Level returns the wrapped slog.Level.
func (l LogLevel) Level() slog.Level { return slog.Level(l) }

// Config represents the main application configuration
type Config struct {
	Settings Settings      `yaml:"settings"`
	Radio    RadioConfig   `yaml:"radio"`
	Scan     ScanConfig    `yaml:"scan"`
	Display  DisplayConfig `yaml:"display"`
	Stats    StatsConfig   `yaml:"stats"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel LogLevel `yaml:"logLevel"`
}

// RadioConfig selects and parameterizes the receiver driver.
type RadioConfig struct {
	Driver              DriverType       `yaml:"driver"`
	Band                radio.Band       `yaml:"band"`
	NominalFrequencyMHz float64          `yaml:"nominalFrequencyMHz"`
	Modes               radio.ModeParams `yaml:"modes"`
	BringUpRetries      uint64           `yaml:"bringUpRetries"`
	SX1262              *sx1262.Config   `yaml:"sx1262"`
	Sim                 *sim.Config      `yaml:"sim"`
}

// ScanConfig drives the scheduler: how long to dwell per modulation and,
// when enabled, how to sweep the band.
type ScanConfig struct {
	ModulationInterval radio.TimeDuration `yaml:"modulationInterval"`
	SweepEnabled       bool               `yaml:"sweepEnabled"`
	SweepInterval      radio.TimeDuration `yaml:"sweepInterval"`
	SweepStepKHz       float64            `yaml:"sweepStepKHz"`
}

// DisplayConfig selects the output surfaces.
type DisplayConfig struct {
	RefreshInterval radio.TimeDuration `yaml:"refreshInterval"`
	Console         ConsoleConfig      `yaml:"console"`
	Panel           PanelConfig        `yaml:"panel"`
}

// ConsoleConfig represents the console renderer settings
type ConsoleConfig struct {
	Enabled bool `yaml:"enabled"`
	Color   bool `yaml:"color"`
}

// PanelConfig represents the PNG panel renderer settings
type PanelConfig struct {
	Enabled  bool    `yaml:"enabled"`
	Output   string  `yaml:"output"`
	Font     string  `yaml:"font"`
	FontSize float64 `yaml:"fontSize"`
}

// StatsConfig represents session statistics settings
type StatsConfig struct {
	SummaryInterval radio.TimeDuration `yaml:"summaryInterval"`
	WindowSize      int                `yaml:"windowSize"`
}

// NewConfig returns the configuration a bench setup starts from: simulated
// radio, console output, modulation rotation on, band sweep off.
func NewConfig() *Config {
	return &Config{
		Settings: Settings{
			LogLevel: LogLevel(slog.LevelInfo),
		},
		Radio: RadioConfig{
			Driver:              DriverSim,
			Band:                radio.Band900,
			NominalFrequencyMHz: 915.0,
			Modes:               radio.DefaultModeParams(),
			BringUpRetries:      3,
			Sim:                 sim.DefaultConfig(),
		},
		Scan: ScanConfig{
			ModulationInterval: radio.TimeDuration(10 * time.Second),
			SweepInterval:      radio.TimeDuration(time.Second),
			SweepStepKHz:       500,
		},
		Display: DisplayConfig{
			RefreshInterval: radio.TimeDuration(3 * time.Second),
			Console: ConsoleConfig{
				Enabled: true,
				Color:   true,
			},
			Panel: PanelConfig{
				FontSize: 12,
			},
		},
		Stats: StatsConfig{
			SummaryInterval: radio.TimeDuration(time.Minute),
			WindowSize:      256,
		},
	}
}

// LoadConfig reads, parses and validates a YAML configuration file. Omitted
// fields keep their NewConfig defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration file: %w", err)
	}

	config := NewConfig()
	if err = yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing configuration file: %w", err)
	}
	if err = config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	if _, ok := validDrivers[c.Radio.Driver]; !ok {
		return fmt.Errorf("unknown radio driver '%s'", c.Radio.Driver)
	}
	if err := c.Radio.Band.Validate(); err != nil {
		return err
	}
	if c.Radio.NominalFrequencyMHz <= 0 {
		return fmt.Errorf("nominal frequency must be positive: %g MHz", c.Radio.NominalFrequencyMHz)
	}
	if err := c.Radio.Modes.Validate(); err != nil {
		return err
	}

	switch c.Radio.Driver {
	case DriverSX1262:
		if c.Radio.SX1262 == nil {
			return fmt.Errorf("radio driver '%s' requires an sx1262 section", c.Radio.Driver)
		}
		if err := c.Radio.SX1262.Validate(); err != nil {
			return err
		}

	case DriverSim:
		if c.Radio.Sim != nil {
			if err := c.Radio.Sim.Validate(); err != nil {
				return err
			}
		}
	}

	if c.Scan.ModulationInterval <= 0 {
		return fmt.Errorf("modulation interval must be positive: %s", c.Scan.ModulationInterval)
	}
	if c.Scan.SweepEnabled {
		if c.Scan.SweepInterval <= 0 {
			return fmt.Errorf("sweep interval must be positive: %s", c.Scan.SweepInterval)
		}
		if c.Scan.SweepStepKHz <= 0 {
			return fmt.Errorf("sweep step must be positive: %g kHz", c.Scan.SweepStepKHz)
		}
	}

	if c.Display.RefreshInterval <= 0 {
		return fmt.Errorf("display refresh interval must be positive: %s", c.Display.RefreshInterval)
	}
	if c.Display.Panel.Enabled && c.Display.Panel.Output == "" {
		return fmt.Errorf("panel display requires an output path")
	}

	if c.Stats.SummaryInterval <= 0 {
		return fmt.Errorf("stats summary interval must be positive: %s", c.Stats.SummaryInterval)
	}
	if c.Stats.WindowSize <= 0 {
		return fmt.Errorf("stats window size must be positive: %d", c.Stats.WindowSize)
	}
	return nil
}
