// Package stats accumulates per-session signal statistics: burst and match
// counters plus a sliding window of RSSI readings that yields an estimate of
// the local noise conditions.
package stats

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

const defaultWindowSize = 256

// Tracker accumulates burst observations. It is driven from the monitoring
// loop and is not safe for concurrent use.
type Tracker struct {
	window  []float64 // RSSI ring buffer, dBm
	next    int
	filled  bool
	bursts  uint64
	matches uint64
	started time.Time
}

// NewTracker returns a Tracker keeping the most recent windowSize RSSI
// readings; a non-positive size selects the default of 256.
func NewTracker(windowSize int) *Tracker {
	if windowSize <= 0 {
		windowSize = defaultWindowSize
	}
	return &Tracker{
		window:  make([]float64, windowSize),
		started: time.Now(),
	}
}

// Record adds one burst observation.
func (t *Tracker) Record(rssi float64, matched bool) {
	t.window[t.next] = rssi
	t.next++
	if t.next == len(t.window) {
		t.next = 0
		t.filled = true
	}

	t.bursts++
	if matched {
		t.matches++
	}
}

// Bursts returns the number of bursts recorded this session.
func (t *Tracker) Bursts() uint64 {
	return t.bursts
}

// Matches returns the number of bursts that matched a catalog signature.
func (t *Tracker) Matches() uint64 {
	return t.matches
}

// Summary condenses a session: counters over its whole lifetime, RSSI
// statistics over the window.
type Summary struct {
	Bursts     uint64
	Matches    uint64
	MeanRSSI   float64 // dBm
	StdDevRSSI float64 // dB
	NoiseFloor float64 // dBm, 5th percentile of the window
	Window     int     // readings backing the RSSI figures
	Uptime     time.Duration
}

// Summary computes the session summary. RSSI figures are zero until at
// least one burst has been recorded.
func (t *Tracker) Summary() Summary {
	s := Summary{
		Bursts:  t.bursts,
		Matches: t.matches,
		Uptime:  time.Since(t.started),
	}

	window := t.window[:t.next]
	if t.filled {
		window = t.window
	}
	s.Window = len(window)
	if len(window) == 0 {
		return s
	}

	s.MeanRSSI = stat.Mean(window, nil)
	if len(window) > 1 {
		s.StdDevRSSI = stat.StdDev(window, nil)
	}

	sorted := make([]float64, len(window))
	copy(sorted, window)
	sort.Float64s(sorted)
	s.NoiseFloor = stat.Quantile(0.05, stat.Empirical, sorted, nil)

	return s
}
