package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rfsentinel/drone-detector/internal/detect"
	"github.com/rfsentinel/drone-detector/internal/display"
	"github.com/rfsentinel/drone-detector/internal/radio"
	"github.com/rfsentinel/drone-detector/internal/scan"
	"github.com/rfsentinel/drone-detector/internal/stats"
)

// monitor is the detector's main loop: it consumes bursts from the radio,
// classifies and records them, rotates the receiver through the scan plan
// and keeps the displays current. Everything runs on one goroutine, so the
// scheduler and tracker need no locking.
type monitor struct {
	port    radio.Port
	engine  *detect.Engine
	sched   *scan.Scheduler
	tracker *stats.Tracker
	disp    display.Renderer
	logger  *slog.Logger

	modulationInterval time.Duration
	sweepEnabled       bool
	sweepInterval      time.Duration
	refreshInterval    time.Duration
	summaryInterval    time.Duration

	lastRender time.Time
}

func (m *monitor) run(ctx context.Context) error {
	modTick := time.NewTicker(m.modulationInterval)
	defer modTick.Stop()

	refreshTick := time.NewTicker(m.refreshInterval)
	defer refreshTick.Stop()

	summaryTick := time.NewTicker(m.summaryInterval)
	defer summaryTick.Stop()

	// A nil channel keeps the sweep case dormant when sweeping is off.
	var sweepC <-chan time.Time
	if m.sweepEnabled {
		sweepTick := time.NewTicker(m.sweepInterval)
		defer sweepTick.Stop()
		sweepC = sweepTick.C
	}

	var done <-chan error
	if d, ok := m.port.(interface{ Done() <-chan error }); ok {
		done = d.Done()
	}

	m.renderScanning()

	for {
		select {
		case <-ctx.Done():
			m.logSummary()
			return nil

		case err := <-done:
			return fmt.Errorf("radio failed: %w", err)

		case burst, ok := <-m.port.Bursts():
			if !ok {
				select {
				case err := <-done:
					return fmt.Errorf("radio failed: %w", err)
				default:
				}
				return errors.New("radio stopped delivering bursts")
			}
			m.handleBurst(burst)

		case <-modTick.C:
			m.advanceModulation()

		case <-sweepC:
			m.advanceSweep()

		case <-refreshTick.C:
			if time.Since(m.lastRender) >= m.refreshInterval {
				m.renderScanning()
			}

		case <-summaryTick.C:
			m.logSummary()
		}
	}
}

// handleBurst classifies one burst, records it and re-arms the receiver.
func (m *monitor) handleBurst(b radio.Burst) {
	res := m.engine.ClassifyAt(b.Frequency, b.RSSI, b.SNR, b.FrequencyError, b.Modulation)
	m.tracker.Record(b.RSSI, res.Match)

	m.logger.Info("burst received",
		slog.Group("signal",
			slog.Float64("frequencyMHz", b.Frequency),
			slog.Float64("rssi", b.RSSI),
			slog.Float64("snr", b.SNR),
			slog.Float64("freqErrorHz", b.FrequencyError),
			slog.String("modulation", b.Modulation.String()),
			slog.Int("payloadBytes", len(b.Payload)),
		),
		slog.Bool("match", res.Match),
		slog.Int("confidence", int(res.Confidence)))

	if err := m.disp.Detection(display.Detection{Result: res, Total: m.tracker.Bursts()}); err != nil {
		m.logger.Warn(fmt.Sprintf("rendering detection screen: %s", err))
	}
	m.lastRender = time.Now()

	if err := m.port.StartReceive(); err != nil {
		m.logger.Error(fmt.Sprintf("restarting receive: %s", err))
	}
}

// advanceModulation rotates the receiver to the next mode. A failed retune
// is logged and the receiver re-armed on its previous settings.
func (m *monitor) advanceModulation() {
	mod, err := m.sched.AdvanceModulation()
	if err != nil {
		m.logger.Error(err.Error())
	} else {
		m.logger.Info("switched modulation", slog.String("modulation", mod.String()))
	}

	if err = m.port.StartReceive(); err != nil {
		m.logger.Error(fmt.Sprintf("restarting receive: %s", err))
	}
	m.renderScanning()
}

// advanceSweep steps the sweep cursor. Retune failures are non-fatal; the
// receiver is re-armed regardless so listening never stalls.
func (m *monitor) advanceSweep() {
	freq, err := m.sched.AdvanceSweep()
	if err != nil {
		m.logger.Warn(err.Error())
	} else {
		m.logger.Debug("sweep step", slog.Float64("frequencyMHz", freq))
	}

	if err = m.port.StartReceive(); err != nil {
		m.logger.Error(fmt.Sprintf("restarting receive: %s", err))
	}
}

func (m *monitor) renderScanning() {
	freq := m.sched.NominalFrequency()
	if m.sweepEnabled {
		freq = m.sched.SweepFrequency()
	}

	view := display.Scanning{
		Frequency:  freq,
		Modulation: m.sched.Modulation(),
		Total:      m.tracker.Bursts(),
	}
	if err := m.disp.Scanning(view); err != nil {
		m.logger.Warn(fmt.Sprintf("rendering scanning screen: %s", err))
	}
	m.lastRender = time.Now()
}

func (m *monitor) logSummary() {
	s := m.tracker.Summary()
	m.logger.Info("session summary",
		slog.Group("session",
			slog.Uint64("bursts", s.Bursts),
			slog.Uint64("matches", s.Matches),
			slog.String("uptime", s.Uptime.Round(time.Second).String()),
		),
		slog.Group("rssi",
			slog.Float64("mean", s.MeanRSSI),
			slog.Float64("stddev", s.StdDevRSSI),
			slog.Float64("noiseFloor", s.NoiseFloor),
			slog.Int("window", s.Window),
		))
}
