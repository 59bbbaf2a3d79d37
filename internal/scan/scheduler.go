// Package scan decides what the receiver listens to next: it rotates the
// demodulation mode so every protocol family gets airtime, and optionally
// steps the carrier across the band to catch frequency-hopping links.
package scan

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/rfsentinel/drone-detector/internal/radio"
)

// ErrNoPort is returned by NewScheduler when no radio port is supplied.
var ErrNoPort = errors.New("scan: radio port is required")

const defaultSweepStepKHz = 500.0

// Scheduler owns the receiver's tuning plan: the current modulation, the
// nominal listening carrier and the sweep cursor. It is driven from a single
// goroutine and is not safe for concurrent use.
type Scheduler struct {
	port    radio.Port
	band    radio.Band
	nominal float64 // MHz
	step    float64 // MHz
	logger  *slog.Logger

	modulation    radio.Modulation
	sweepFreq     float64 // MHz
	sweepComplete bool
}

// NewScheduler returns a Scheduler listening on LoRa at the nominal carrier,
// with the sweep cursor parked at the low edge of the band. The port must be
// non-nil; configuring it is left to the caller's bring-up sequence.
func NewScheduler(port radio.Port, opts ...func(*Scheduler)) (*Scheduler, error) {
	if port == nil {
		return nil, ErrNoPort
	}

	s := &Scheduler{
		port:       port,
		band:       radio.Band900,
		step:       defaultSweepStepKHz / 1000.0,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		modulation: radio.ModulationLoRa,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.band.Validate(); err != nil {
		return nil, err
	}
	if s.step <= 0 {
		return nil, fmt.Errorf("scan: sweep step must be positive: %v MHz", s.step)
	}
	if s.nominal == 0 {
		s.nominal = s.band.Center()
	}
	s.sweepFreq = s.band.Min

	return s, nil
}

// WithLogger sets the instance logger.
func WithLogger(logger *slog.Logger) func(*Scheduler) {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithBand sets the band the sweep covers.
func WithBand(b radio.Band) func(*Scheduler) {
	return func(s *Scheduler) {
		s.band = b
	}
}

// WithNominalFrequency sets the carrier, in MHz, used for modulation dwell.
func WithNominalFrequency(mhz float64) func(*Scheduler) {
	return func(s *Scheduler) {
		s.nominal = mhz
	}
}

// WithSweepStep sets the sweep step in kHz.
func WithSweepStep(khz float64) func(*Scheduler) {
	return func(s *Scheduler) {
		s.step = khz / 1000.0
	}
}

// Modulation returns the mode the receiver is currently committed to.
func (s *Scheduler) Modulation() radio.Modulation {
	return s.modulation
}

// NominalFrequency returns the dwell carrier in MHz.
func (s *Scheduler) NominalFrequency() float64 {
	return s.nominal
}

// SweepFrequency returns the sweep cursor position in MHz.
func (s *Scheduler) SweepFrequency() float64 {
	return s.sweepFreq
}

// SweepComplete reports whether the sweep cursor has wrapped around the band
// since the last ResetSweep.
func (s *Scheduler) SweepComplete() bool {
	return s.sweepComplete
}

// AdvanceModulation retunes the receiver to the next mode in the
// LoRa -> FSK -> OOK -> LoRa rotation at the nominal carrier. If the port
// refuses the new configuration the scheduler keeps the current mode, so a
// flaky receiver degrades to a single-mode scanner instead of losing its
// settings. Returns the mode in effect afterwards.
func (s *Scheduler) AdvanceModulation() (radio.Modulation, error) {
	next := nextModulation(s.modulation)

	if err := s.configure(next, s.nominal); err != nil {
		return s.modulation, fmt.Errorf("scan: switching to %s: %w", next, err)
	}

	s.modulation = next
	return s.modulation, nil
}

// AdvanceSweep steps the sweep cursor and retunes the receiver to it in the
// current mode. Past the top of the band the cursor wraps to the bottom and
// the sweep is marked complete. Unlike AdvanceModulation the cursor is
// committed even when retuning fails, so the sweep keeps moving and the next
// step gets a fresh chance. Returns the new cursor position.
func (s *Scheduler) AdvanceSweep() (float64, error) {
	s.sweepFreq += s.step

	if s.sweepFreq > s.band.Max {
		s.sweepFreq = s.band.Min
		s.sweepComplete = true
		s.logger.Info("sweep complete, wrapping to band start",
			slog.Float64("frequencyMHz", s.sweepFreq))
	}

	if err := s.configure(s.modulation, s.sweepFreq); err != nil {
		return s.sweepFreq, fmt.Errorf("scan: sweeping to %.3f MHz: %w", s.sweepFreq, err)
	}

	return s.sweepFreq, nil
}

// ResetSweep parks the sweep cursor at the low edge of the band and clears
// the completion flag. The receiver is not retuned until the next advance.
func (s *Scheduler) ResetSweep() {
	s.sweepFreq = s.band.Min
	s.sweepComplete = false
	s.logger.Debug("sweep reset to band start",
		slog.Float64("frequencyMHz", s.sweepFreq))
}

func (s *Scheduler) configure(mod radio.Modulation, freq float64) error {
	if !s.band.Contains(freq) {
		s.logger.Warn(fmt.Sprintf("frequency %.3f MHz is outside the %v-%v MHz band", freq, s.band.Min, s.band.Max))
	}
	return s.port.Configure(mod, freq)
}

func nextModulation(m radio.Modulation) radio.Modulation {
	switch m {
	case radio.ModulationLoRa:
		return radio.ModulationFSK
	case radio.ModulationFSK:
		return radio.ModulationOOK
	default:
		return radio.ModulationLoRa
	}
}
