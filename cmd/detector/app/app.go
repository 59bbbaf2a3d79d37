package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/rfsentinel/drone-detector/internal/detect"
	"github.com/rfsentinel/drone-detector/internal/display"
	"github.com/rfsentinel/drone-detector/internal/radio"
	"github.com/rfsentinel/drone-detector/internal/radio/sim"
	"github.com/rfsentinel/drone-detector/internal/radio/sx1262"
	"github.com/rfsentinel/drone-detector/internal/scan"
	"github.com/rfsentinel/drone-detector/internal/stats"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	disp, cleanup, err := createDisplay(&config.Display)
	if err != nil {
		return fmt.Errorf("creating displays: %w", err)
	}
	defer cleanup()

	if err = disp.Splash(); err != nil {
		logger.Warn(fmt.Sprintf("rendering splash screen: %s", err))
	}
	disp.Status("Initializing radio...")

	port, err := createPort(config, logger)
	if err != nil {
		disp.Error("Radio init failed!")
		return fmt.Errorf("creating radio port: %w", err)
	}
	defer port.Close()

	sched, err := scan.NewScheduler(port,
		scan.WithLogger(logger),
		scan.WithBand(config.Radio.Band),
		scan.WithNominalFrequency(config.Radio.NominalFrequencyMHz),
		scan.WithSweepStep(config.Scan.SweepStepKHz))
	if err != nil {
		return fmt.Errorf("creating scan scheduler: %w", err)
	}

	if err = bringUp(ctx, port, sched, config.Radio.BringUpRetries, logger); err != nil {
		disp.Error("Radio init failed!")
		return err
	}

	logger.Info("radio ready",
		slog.String("driver", string(config.Radio.Driver)),
		slog.String("modulation", sched.Modulation().String()),
		slog.Float64("frequencyMHz", sched.NominalFrequency()))

	m := &monitor{
		port:    port,
		engine:  detect.NewEngine(detect.WithNominalFrequency(config.Radio.NominalFrequencyMHz), detect.WithLogger(logger)),
		sched:   sched,
		tracker: stats.NewTracker(config.Stats.WindowSize),
		disp:    disp,
		logger:  logger,

		modulationInterval: config.Scan.ModulationInterval.Duration(),
		sweepEnabled:       config.Scan.SweepEnabled,
		sweepInterval:      config.Scan.SweepInterval.Duration(),
		refreshInterval:    config.Display.RefreshInterval.Duration(),
		summaryInterval:    config.Stats.SummaryInterval.Duration(),
	}
	return m.run(ctx)
}

// bringUp performs the initial tune-and-arm sequence, retrying with
// exponential backoff to ride out a receiver that is still booting.
func bringUp(ctx context.Context, port radio.Port, sched *scan.Scheduler, retries uint64, logger *slog.Logger) error {
	tune := func() error {
		if err := port.Configure(sched.Modulation(), sched.NominalFrequency()); err != nil {
			return err
		}
		return port.StartReceive()
	}
	notify := func(err error, next time.Duration) {
		logger.Warn(fmt.Sprintf("radio bring-up failed, retrying in %s: %s", next.Round(time.Millisecond), err))
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), retries), ctx)
	if err := backoff.RetryNotify(tune, policy, notify); err != nil {
		return fmt.Errorf("radio bring-up failed: %w", err)
	}
	return nil
}

func createPort(config *Config, logger *slog.Logger) (radio.Port, error) {
	switch config.Radio.Driver {
	case DriverSim:
		return sim.New(config.Radio.Sim, sim.WithLogger(logger))

	case DriverSX1262:
		return sx1262.New(config.Radio.SX1262, config.Radio.Modes, sx1262.WithLogger(logger))

	default:
		return nil, fmt.Errorf("unknown radio driver '%s'", config.Radio.Driver)
	}
}

func createDisplay(config *DisplayConfig) (display.Multi, func(), error) {
	var screens display.Multi
	cleanup := func() {}

	if config.Console.Enabled {
		screens = append(screens, display.NewConsole(os.Stdout, display.WithColor(config.Console.Color)))
	}
	if config.Panel.Enabled {
		var opts []func(*display.Panel)
		if config.Panel.Font != "" {
			opts = append(opts, display.WithFont(config.Panel.Font, config.Panel.FontSize))
		}

		panel, err := display.NewPanel(config.Panel.Output, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("creating panel display: %w", err)
		}
		screens = append(screens, panel)
		cleanup = func() { panel.Close() }
	}

	return screens, cleanup, nil
}
