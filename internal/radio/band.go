package radio

import "fmt"

// Band is an inclusive frequency range in MHz.
type Band struct {
	Min float64 `yaml:"minMHz" json:"minMHz"`
	Max float64 `yaml:"maxMHz" json:"maxMHz"`
}

// Band900 is the US 902-928 MHz ISM band, home of the long-range control
// links this project watches.
var Band900 = Band{Min: 902.0, Max: 928.0}

// Contains reports whether freqMHz falls inside the band, bounds included.
func (b Band) Contains(freqMHz float64) bool {
	return freqMHz >= b.Min && freqMHz <= b.Max
}

// Center returns the band midpoint in MHz.
func (b Band) Center() float64 {
	return (b.Min + b.Max) / 2
}

// Width returns the band width in MHz.
func (b Band) Width() float64 {
	return b.Max - b.Min
}

func (b Band) Validate() error {
	if b.Min <= 0 || b.Max <= 0 {
		return fmt.Errorf("radio.Band: bounds must be positive: [%v, %v]", b.Min, b.Max)
	}
	if b.Min >= b.Max {
		return fmt.Errorf("radio.Band: min must be below max: [%v, %v]", b.Min, b.Max)
	}
	return nil
}
