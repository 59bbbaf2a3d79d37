package sim

import (
	"fmt"
	"time"

	"github.com/rfsentinel/drone-detector/internal/radio"
)

// Config shapes the synthetic burst stream. Means and sigmas describe the
// normal distributions the signal readings are drawn from.
type Config struct {
	// Seed fixes the random sequence; zero seeds from the clock.
	Seed int64 `yaml:"seed" json:"seed"`

	// MeanBurstInterval is the average spacing between on-air bursts.
	// Actual spacing is exponentially distributed around it.
	MeanBurstInterval radio.TimeDuration `yaml:"meanBurstInterval" json:"meanBurstInterval"`

	RSSIMean       float64 `yaml:"rssiMean" json:"rssiMean"`             // dBm
	RSSISigma      float64 `yaml:"rssiSigma" json:"rssiSigma"`           // dB
	SNRMean        float64 `yaml:"snrMean" json:"snrMean"`               // dB
	SNRSigma       float64 `yaml:"snrSigma" json:"snrSigma"`             // dB
	FreqErrorSigma float64 `yaml:"freqErrorSigma" json:"freqErrorSigma"` // Hz

	// ConfigureFailureRate injects tune failures with the given
	// probability, for exercising recovery paths. 1 fails every call.
	ConfigureFailureRate float64 `yaml:"configureFailureRate" json:"configureFailureRate"`
}

// DefaultConfig returns settings that resemble a moderately busy 900 MHz
// band: mostly weak traffic with the occasional strong burst.
func DefaultConfig() *Config {
	return &Config{
		MeanBurstInterval: radio.TimeDuration(2 * time.Second),
		RSSIMean:          -95,
		RSSISigma:         12,
		SNRMean:           2,
		SNRSigma:          5,
		FreqErrorSigma:    3000,
	}
}

func (c *Config) Validate() error {
	if c.MeanBurstInterval <= 0 {
		return fmt.Errorf("sim.Config: mean burst interval must be positive: %s", c.MeanBurstInterval)
	}
	if c.RSSISigma < 0 || c.SNRSigma < 0 || c.FreqErrorSigma < 0 {
		return fmt.Errorf("sim.Config: sigmas must not be negative")
	}
	if c.ConfigureFailureRate < 0 || c.ConfigureFailureRate > 1 {
		return fmt.Errorf("sim.Config: configure failure rate must be in [0, 1]: %g", c.ConfigureFailureRate)
	}
	return nil
}
