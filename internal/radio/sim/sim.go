// Package sim provides a software stand-in for the receiver hardware. It
// synthesizes bursts with configurable signal statistics so the detection
// pipeline can run end to end without a radio attached.
package sim

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rfsentinel/drone-detector/internal/radio"
)

// ErrTuneFailed is the injected Configure failure.
var ErrTuneFailed = errors.New("sim: simulated tune failure")

const burstBacklog = 4

// Sim implements radio.Port. Synthetic bursts go on the air at exponential
// intervals; one is captured per StartReceive, matching the one-shot receive
// behavior of the real hardware.
type Sim struct {
	cfg    *Config
	logger *slog.Logger

	// Timer spacing and signal readings draw from separate sources so a
	// fixed seed yields the same burst values regardless of how many
	// unarmed timer fires pass by.
	intervals *rand.Rand

	rngMu   sync.Mutex
	signals *rand.Rand

	bursts chan radio.Burst
	stop   chan struct{}
	closed atomic.Bool
	wg     sync.WaitGroup

	stateMu   sync.Mutex
	mod       radio.Modulation
	freq      float64 // MHz
	receiving bool
}

// New validates the config and starts the burst generator. The simulator
// emits nothing until it is configured and armed.
func New(cfg *Config, opts ...func(*Sim)) (*Sim, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := &Sim{
		cfg:       cfg,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		intervals: rand.New(rand.NewSource(seed)),
		signals:   rand.New(rand.NewSource(seed + 1)),
		bursts:    make(chan radio.Burst, burstBacklog),
		stop:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.wg.Add(1)
	go s.run()
	return s, nil
}

// WithLogger sets the instance logger.
func WithLogger(logger *slog.Logger) func(*Sim) {
	return func(s *Sim) {
		s.logger = logger.With(slog.String("driver", "sim"))
	}
}

// Configure retunes the simulated receiver. Injected failures leave the
// previous settings in place, like a failed tune on real hardware.
func (s *Sim) Configure(mod radio.Modulation, freqMHz float64) error {
	if s.closed.Load() {
		return radio.ErrPortClosed
	}
	if !mod.Valid() {
		return fmt.Errorf("sim: cannot configure modulation %s", mod)
	}

	if s.cfg.ConfigureFailureRate > 0 {
		s.rngMu.Lock()
		failed := s.signals.Float64() < s.cfg.ConfigureFailureRate
		s.rngMu.Unlock()
		if failed {
			return ErrTuneFailed
		}
	}

	s.stateMu.Lock()
	s.mod, s.freq = mod, freqMHz
	s.stateMu.Unlock()

	s.logger.Debug("simulator configured",
		slog.String("modulation", mod.String()),
		slog.Float64("frequencyMHz", freqMHz))
	return nil
}

// StartReceive arms the simulator to capture the next on-air burst.
func (s *Sim) StartReceive() error {
	if s.closed.Load() {
		return radio.ErrPortClosed
	}

	s.stateMu.Lock()
	s.receiving = true
	s.stateMu.Unlock()
	return nil
}

// Bursts returns the burst delivery channel. It is closed on Close.
func (s *Sim) Bursts() <-chan radio.Burst {
	return s.bursts
}

// Close stops the generator and closes the burst channel. Safe to call more
// than once.
func (s *Sim) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(s.stop)
	s.wg.Wait()
	close(s.bursts)
	return nil
}

func (s *Sim) run() {
	defer s.wg.Done()

	timer := time.NewTimer(s.nextInterval())
	defer timer.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-timer.C:
			s.emit()
			timer.Reset(s.nextInterval())
		}
	}
}

// nextInterval is called only from the generator goroutine.
func (s *Sim) nextInterval() time.Duration {
	return time.Duration(s.intervals.ExpFloat64() * float64(s.cfg.MeanBurstInterval.Duration()))
}

// emit captures one burst if the receiver is armed. The burst carries the
// modulation and carrier from the last successful Configure.
func (s *Sim) emit() {
	s.stateMu.Lock()
	if !s.receiving || !s.mod.Valid() {
		s.stateMu.Unlock()
		return
	}
	s.receiving = false
	mod, freq := s.mod, s.freq
	s.stateMu.Unlock()

	s.rngMu.Lock()
	burst := radio.Burst{
		Timestamp:      time.Now(),
		Frequency:      freq,
		RSSI:           s.cfg.RSSIMean + s.signals.NormFloat64()*s.cfg.RSSISigma,
		SNR:            s.cfg.SNRMean + s.signals.NormFloat64()*s.cfg.SNRSigma,
		FrequencyError: s.signals.NormFloat64() * s.cfg.FreqErrorSigma,
		Modulation:     mod,
		Payload:        s.payload(),
	}
	s.rngMu.Unlock()

	select {
	case s.bursts <- burst:
	default:
		s.logger.Warn("burst backlog full, dropping burst")
	}
}

// payload synthesizes 4 to 16 bytes of junk. Callers must hold rngMu.
func (s *Sim) payload() []byte {
	p := make([]byte, 4+s.signals.Intn(13))
	s.signals.Read(p)
	return p
}
