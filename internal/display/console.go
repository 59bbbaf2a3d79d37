package display

import (
	"fmt"
	"io"
	"sync"

	"github.com/dustin/go-humanize"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiCyan   = "\x1b[36m"
)

// Console renders detector state as colored lines on a terminal stream.
type Console struct {
	mu    sync.Mutex
	w     io.Writer
	color bool
}

// NewConsole returns a Console writing to w with ANSI colors enabled.
func NewConsole(w io.Writer, opts ...func(*Console)) *Console {
	c := &Console{w: w, color: true}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithColor enables or disables ANSI color output.
func WithColor(enabled bool) func(*Console) {
	return func(c *Console) {
		c.color = enabled
	}
}

func (c *Console) Splash() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := fmt.Fprintf(c.w, "==============================\n%s\n SX1262 sub-GHz signal monitor\n==============================\n",
		c.paint(ansiCyan, " Drone Detector"))
	return err
}

func (c *Console) Scanning(v Scanning) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := fmt.Fprintf(c.w, "%s  mode: %s  freq: %s  detections: %s\n",
		c.paint(ansiCyan, "SCANNING"),
		v.Modulation,
		formatFrequency(v.Frequency),
		humanize.Comma(int64(v.Total)))
	return err
}

func (c *Console) Detection(v Detection) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := v.Result

	rssiColor := ansiYellow
	if res.RSSI > -70 {
		rssiColor = ansiGreen
	}
	snrColor := ansiYellow
	if res.SNR > 0 {
		snrColor = ansiGreen
	}

	match := fmt.Sprintf("no (%d%% confidence)", res.Confidence)
	if res.Match {
		match = c.paint(ansiCyan, fmt.Sprintf("%s (%d%% confidence)", res.Protocol, res.Confidence))
	}

	_, err := fmt.Fprintf(c.w, "%s  mode: %s  rssi: %s  snr: %s  freq err: %.0f Hz\n  drone match: %s  total: %s\n",
		c.paint(ansiRed, "RF DETECTED"),
		res.Modulation,
		c.paint(rssiColor, fmt.Sprintf("%.1f dBm", res.RSSI)),
		c.paint(snrColor, fmt.Sprintf("%.1f dB", res.SNR)),
		res.FrequencyError,
		match,
		humanize.Comma(int64(v.Total)))
	return err
}

func (c *Console) Error(message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := fmt.Fprintf(c.w, "%s: %s\n", c.paint(ansiRed, "ERROR"), message)
	return err
}

func (c *Console) Status(message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := fmt.Fprintf(c.w, ">> %s\n", message)
	return err
}

func (c *Console) paint(color, s string) string {
	if !c.color {
		return s
	}
	return color + s + ansiReset
}

// formatFrequency renders a MHz value with an SI-scaled unit, so 915.0
// prints as "915.0 MHz" and 0.4339 as "433.9 kHz".
func formatFrequency(mhz float64) string {
	value, prefix := humanize.ComputeSI(mhz * 1e6)
	return fmt.Sprintf("%.1f %sHz", value, prefix)
}
