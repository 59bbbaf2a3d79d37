package radio

import "fmt"

// SX126x-class receivers only accept a fixed set of LoRa channel bandwidths.
var validLoRaBandwidths = map[float64]struct{}{
	7.8: {}, 10.4: {}, 15.6: {}, 20.8: {}, 31.25: {},
	41.7: {}, 62.5: {}, 125.0: {}, 250.0: {}, 500.0: {},
}

// LoRaParams carries the LoRa demodulator settings applied when a port is
// switched into LoRa mode.
type LoRaParams struct {
	Bandwidth       float64 `yaml:"bandwidth" json:"bandwidth"`             // kHz
	SpreadingFactor int     `yaml:"spreadingFactor" json:"spreadingFactor"` // SF5..SF12
	CodingRate      int     `yaml:"codingRate" json:"codingRate"`           // denominator of 4/x
}

func (p LoRaParams) Validate() error {
	if _, ok := validLoRaBandwidths[p.Bandwidth]; !ok {
		return fmt.Errorf("radio.LoRaParams: invalid bandwidth: %v kHz", p.Bandwidth)
	}
	if p.SpreadingFactor < 5 || p.SpreadingFactor > 12 {
		return fmt.Errorf("radio.LoRaParams: spreading factor must be 5..12: %d", p.SpreadingFactor)
	}
	if p.CodingRate < 5 || p.CodingRate > 8 {
		return fmt.Errorf("radio.LoRaParams: coding rate denominator must be 5..8: %d", p.CodingRate)
	}
	return nil
}

// FSKParams carries the FSK demodulator settings.
type FSKParams struct {
	BitRate            float64 `yaml:"bitRate" json:"bitRate"`                       // kbps
	FrequencyDeviation float64 `yaml:"frequencyDeviation" json:"frequencyDeviation"` // kHz
	RxBandwidth        float64 `yaml:"rxBandwidth" json:"rxBandwidth"`               // kHz
	PreambleLength     int     `yaml:"preambleLength" json:"preambleLength"`         // bits
}

func (p FSKParams) Validate() error {
	if p.BitRate < 0.6 || p.BitRate > 300 {
		return fmt.Errorf("radio.FSKParams: bit rate must be 0.6..300 kbps: %v", p.BitRate)
	}
	if p.FrequencyDeviation <= 0 || p.FrequencyDeviation > 200 {
		return fmt.Errorf("radio.FSKParams: frequency deviation must be 0..200 kHz: %v", p.FrequencyDeviation)
	}
	if p.RxBandwidth < 4.8 || p.RxBandwidth > 467 {
		return fmt.Errorf("radio.FSKParams: rx bandwidth must be 4.8..467 kHz: %v", p.RxBandwidth)
	}
	if p.PreambleLength < 8 || p.PreambleLength > 65535 {
		return fmt.Errorf("radio.FSKParams: preamble length must be 8..65535 bits: %d", p.PreambleLength)
	}
	return nil
}

// OOKParams carries the OOK demodulator settings. On SX126x hardware OOK is
// FSK with zero frequency deviation, so only rate and bandwidth apply.
type OOKParams struct {
	BitRate     float64 `yaml:"bitRate" json:"bitRate"`         // kbps
	RxBandwidth float64 `yaml:"rxBandwidth" json:"rxBandwidth"` // kHz
}

func (p OOKParams) Validate() error {
	if p.BitRate < 0.6 || p.BitRate > 300 {
		return fmt.Errorf("radio.OOKParams: bit rate must be 0.6..300 kbps: %v", p.BitRate)
	}
	if p.RxBandwidth < 4.8 || p.RxBandwidth > 467 {
		return fmt.Errorf("radio.OOKParams: rx bandwidth must be 4.8..467 kHz: %v", p.RxBandwidth)
	}
	return nil
}

// ModeParams groups the per-modulation receiver settings. A driver holds one
// ModeParams and applies the set matching the modulation it is asked to
// configure.
type ModeParams struct {
	LoRa LoRaParams `yaml:"lora" json:"lora"`
	FSK  FSKParams  `yaml:"fsk" json:"fsk"`
	OOK  OOKParams  `yaml:"ook" json:"ook"`
}

// DefaultModeParams returns the settings tuned for long-range drone control
// links: SF9 LoRa over 125 kHz, 100 kbps telemetry FSK and 4.8 kbps remote
// OOK.
func DefaultModeParams() ModeParams {
	return ModeParams{
		LoRa: LoRaParams{
			Bandwidth:       125.0,
			SpreadingFactor: 9,
			CodingRate:      7,
		},
		FSK: FSKParams{
			BitRate:            100.0,
			FrequencyDeviation: 50.0,
			RxBandwidth:        156.2,
			PreambleLength:     16,
		},
		OOK: OOKParams{
			BitRate:     4.8,
			RxBandwidth: 58.0,
		},
	}
}

func (p ModeParams) Validate() error {
	if err := p.LoRa.Validate(); err != nil {
		return err
	}
	if err := p.FSK.Validate(); err != nil {
		return err
	}
	return p.OOK.Validate()
}
