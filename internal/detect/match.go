package detect

import "github.com/rfsentinel/drone-detector/internal/radio"

// Sample is one observed burst reduced to the measurements matching cares
// about.
type Sample struct {
	Frequency      float64 // MHz the receiver was tuned to
	RSSI           float64 // dBm
	SNR            float64 // dB
	FrequencyError float64 // Hz
	Modulation     radio.Modulation
}

// Match scans the catalog front to back and returns the index of the first
// signature the sample satisfies. A signature matches when the modulation is
// identical, the frequency lies inside the signature's range and the RSSI is
// at or above the signature's floor. Returns false when nothing matches.
func (c Catalog) Match(s Sample) (int, bool) {
	for i, sig := range c {
		if s.Modulation != sig.Modulation {
			continue
		}
		if s.Frequency < sig.FrequencyMin || s.Frequency > sig.FrequencyMax {
			continue
		}
		if s.RSSI < sig.MinRSSI {
			continue
		}
		return i, true
	}
	return 0, false
}
