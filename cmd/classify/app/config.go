package app

import (
	"errors"
	"flag"

	"github.com/rfsentinel/drone-detector/internal/radio"
)

// Config holds one burst's readings to classify.
type Config struct {
	RSSI           float64 // dBm
	SNR            float64 // dB
	FrequencyError float64 // Hz
	Modulation     radio.Modulation
	Frequency      float64 // MHz
	JSON           bool
}

func NewConfig() *Config {
	return &Config{
		Frequency: 915.0,
	}
}

func NewConfigFromCLI() (*Config, error) {
	c := NewConfig()

	var modulation string
	flag.Float64Var(&c.RSSI, "rssi", 0, "Burst RSSI in dBm (required)")
	flag.Float64Var(&c.SNR, "snr", 0, "Burst SNR in dB")
	flag.Float64Var(&c.FrequencyError, "freq-error", 0, "Burst frequency error in Hz")
	flag.StringVar(&modulation, "m", "", "Burst modulation. [lora, fsk, ook]")
	flag.Float64Var(&c.Frequency, "f", c.Frequency, "Carrier frequency in MHz")
	flag.BoolVar(&c.JSON, "json", false, "Emit the classification as JSON")
	flag.Parse()

	var rssiSet bool
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "rssi" {
			rssiSet = true
		}
	})

	var err error
	switch {
	case !rssiSet:
		err = errors.New("rssi is required")
	case modulation == "":
		err = errors.New("modulation is required")
	default:
		c.Modulation, err = radio.ParseModulation(modulation)
	}

	if err != nil {
		flag.Usage()
		return nil, err
	}
	return c, nil
}
