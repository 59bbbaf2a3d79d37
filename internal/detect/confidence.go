package detect

import "math"

// Score converts raw link metrics into a 0-100 confidence figure, built from
// three independent terms:
//
//	RSSI:            -120 dBm = 0 up to 50 at -30 dBm and above
//	SNR:             0 dB = 0 up to 30 at 20 dB and above
//	frequency error: 20 at 0 Hz falling to 0 at 10 kHz and beyond
//
// Each term is truncated to a whole point before it is added, and metrics
// outside their useful range (including NaN) contribute nothing.
func Score(rssi, snr, freqError float64) uint8 {
	var confidence uint8

	if rssi > -120 {
		confidence += uint8(min((rssi+120)/90*50, 50))
	}

	if snr > 0 {
		confidence += uint8(min(snr/20*30, 30))
	}

	if abs := math.Abs(freqError); abs < 10000 {
		confidence += uint8(max((10000-abs)/10000*20, 0))
	}

	return min(confidence, 100)
}
