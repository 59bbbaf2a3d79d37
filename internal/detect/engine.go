package detect

import (
	"io"
	"log/slog"

	"github.com/rfsentinel/drone-detector/internal/radio"
)

// A catalog hit adds a flat bonus on top of the metric score.
const matchBonus = 20

// Result is the classification of a single burst.
type Result struct {
	Frequency      float64          `json:"frequency"` // MHz used for matching
	RSSI           float64          `json:"rssi"`
	SNR            float64          `json:"snr"`
	FrequencyError float64          `json:"frequencyError"`
	Modulation     radio.Modulation `json:"modulation"`
	Match          bool             `json:"match"`
	Confidence     uint8            `json:"confidence"` // 0..100
	Protocol       string           `json:"protocol,omitempty"`
}

// Engine classifies bursts against a signature catalog. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	catalog   Catalog
	frequency float64 // nominal carrier for matching, MHz
	logger    *slog.Logger
}

// NewEngine returns an Engine using the built-in catalog and the 900 MHz
// band center unless options override them.
func NewEngine(opts ...func(*Engine)) *Engine {
	e := &Engine{
		catalog:   BuiltIn(),
		frequency: radio.Band900.Center(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithCatalog replaces the built-in signature catalog.
func WithCatalog(c Catalog) func(*Engine) {
	return func(e *Engine) {
		e.catalog = c
	}
}

// WithNominalFrequency sets the carrier frequency, in MHz, attributed to
// bursts during matching.
func WithNominalFrequency(mhz float64) func(*Engine) {
	return func(e *Engine) {
		e.frequency = mhz
	}
}

// WithLogger sets the instance logger.
func WithLogger(logger *slog.Logger) func(*Engine) {
	return func(e *Engine) {
		e.logger = logger
	}
}

// Classify scores a burst's metrics and matches it against the catalog at
// the engine's nominal carrier. A catalog hit marks the result as a drone
// match, names the protocol and lifts the confidence by a flat bonus,
// capped at 100.
func (e *Engine) Classify(rssi, snr, freqError float64, mod radio.Modulation) Result {
	return e.ClassifyAt(e.frequency, rssi, snr, freqError, mod)
}

// ClassifyAt is Classify with an explicit carrier, for bursts captured away
// from the nominal frequency, such as mid-sweep.
func (e *Engine) ClassifyAt(freqMHz, rssi, snr, freqError float64, mod radio.Modulation) Result {
	res := Result{
		Frequency:      freqMHz,
		RSSI:           rssi,
		SNR:            snr,
		FrequencyError: freqError,
		Modulation:     mod,
		Confidence:     Score(rssi, snr, freqError),
	}

	idx, ok := e.catalog.Match(Sample{
		Frequency:      freqMHz,
		RSSI:           rssi,
		SNR:            snr,
		FrequencyError: freqError,
		Modulation:     mod,
	})
	if ok {
		res.Match = true
		res.Protocol = e.catalog[idx].Name
		res.Confidence = uint8(min(int(res.Confidence)+matchBonus, 100))

		e.logger.Info("matched signature", slog.String("protocol", res.Protocol))
	}

	e.logger.Debug("signal analysis",
		slog.String("modulation", mod.String()),
		slog.Int("confidence", int(res.Confidence)),
		slog.Bool("match", res.Match))

	return res
}
