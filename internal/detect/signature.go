// Package detect classifies received sub-GHz bursts against a catalog of
// known drone control and telemetry link signatures.
package detect

import (
	"fmt"

	"github.com/rfsentinel/drone-detector/internal/radio"
)

// Signature describes the RF footprint of one known remote-control or
// telemetry protocol: the band it occupies, the modulation it uses and the
// weakest level at which it is still worth reporting.
type Signature struct {
	Name         string
	FrequencyMin float64 // MHz, inclusive
	FrequencyMax float64 // MHz, inclusive
	Modulation   radio.Modulation
	Bandwidth    float64 // kHz, descriptive only
	MinRSSI      float64 // dBm
}

// Catalog is an ordered list of signatures. Order matters: matching scans
// front to back and stops at the first hit, so broader entries placed early
// shadow narrower ones behind them.
type Catalog []Signature

func (c Catalog) Validate() error {
	for i, sig := range c {
		if sig.Name == "" {
			return fmt.Errorf("detect.Catalog: entry %d has no name", i)
		}
		if !sig.Modulation.Valid() {
			return fmt.Errorf("detect.Catalog: %s: invalid modulation", sig.Name)
		}
		if sig.FrequencyMin > sig.FrequencyMax {
			return fmt.Errorf("detect.Catalog: %s: inverted frequency range [%v, %v]",
				sig.Name, sig.FrequencyMin, sig.FrequencyMax)
		}
	}
	return nil
}

// The long-range 900 MHz control and telemetry links seen on UAVs. All hop
// across the full US ISM band, so the entries differ by modulation, channel
// bandwidth and sensitivity rather than by sub-range. ExpressLRS wide mode
// sits first and shadows the narrow entry for any LoRa burst at or above
// -120 dBm.
var builtin = [...]Signature{
	{
		Name:         "ExpressLRS 900",
		FrequencyMin: 902.0,
		FrequencyMax: 928.0,
		Modulation:   radio.ModulationLoRa,
		Bandwidth:    500.0,
		MinRSSI:      -120.0,
	},
	{
		Name:         "ELRS 900 Narrow",
		FrequencyMin: 902.0,
		FrequencyMax: 928.0,
		Modulation:   radio.ModulationLoRa,
		Bandwidth:    100.0,
		MinRSSI:      -115.0,
	},
	{
		Name:         "TBS Crossfire",
		FrequencyMin: 902.0,
		FrequencyMax: 928.0,
		Modulation:   radio.ModulationFSK,
		Bandwidth:    10000.0,
		MinRSSI:      -130.0,
	},
	{
		Name:         "RFD900/SiK",
		FrequencyMin: 902.0,
		FrequencyMax: 928.0,
		Modulation:   radio.ModulationFSK,
		Bandwidth:    26000.0,
		MinRSSI:      -121.0,
	},
	{
		Name:         "FrSky R9",
		FrequencyMin: 902.0,
		FrequencyMax: 928.0,
		Modulation:   radio.ModulationLoRa,
		Bandwidth:    200.0,
		MinRSSI:      -120.0,
	},
	{
		Name:         "FSK Telemetry",
		FrequencyMin: 902.0,
		FrequencyMax: 928.0,
		Modulation:   radio.ModulationFSK,
		Bandwidth:    156.0,
		MinRSSI:      -110.0,
	},
	{
		Name:         "OOK Remote",
		FrequencyMin: 902.0,
		FrequencyMax: 928.0,
		Modulation:   radio.ModulationOOK,
		Bandwidth:    58.0,
		MinRSSI:      -100.0,
	},
}

// BuiltIn returns a fresh copy of the built-in signature catalog. Callers
// may reorder or extend the copy without affecting other users.
func BuiltIn() Catalog {
	c := make(Catalog, len(builtin))
	copy(c, builtin[:])
	return c
}
