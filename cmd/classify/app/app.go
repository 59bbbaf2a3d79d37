// Package app classifies a single burst reading against the built-in
// signature catalog, for checking captures by hand without a receiver.
package app

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rfsentinel/drone-detector/internal/detect"
)

func Run(config *Config, w io.Writer) error {
	engine := detect.NewEngine(detect.WithNominalFrequency(config.Frequency))
	res := engine.Classify(config.RSSI, config.SNR, config.FrequencyError, config.Modulation)

	if config.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Fprintf(w, "Frequency:       %.1f MHz\n", res.Frequency)
	fmt.Fprintf(w, "Modulation:      %s\n", res.Modulation)
	fmt.Fprintf(w, "RSSI:            %.1f dBm\n", res.RSSI)
	fmt.Fprintf(w, "SNR:             %.1f dB\n", res.SNR)
	fmt.Fprintf(w, "Frequency error: %.0f Hz\n", res.FrequencyError)
	fmt.Fprintf(w, "Confidence:      %d%%\n", res.Confidence)

	if res.Match {
		fmt.Fprintf(w, "Match:           %s\n", res.Protocol)
	} else {
		fmt.Fprintf(w, "Match:           none\n")
	}
	return nil
}
