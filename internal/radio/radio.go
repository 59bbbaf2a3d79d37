// Package radio defines the receiver abstraction shared by the concrete
// sub-GHz drivers and the scanning layers built on top of them.
//
// A Port models a single half-duplex receiver: it is configured for one
// modulation and carrier frequency at a time, armed with StartReceive, and
// delivers at most one burst per arming before it must be re-armed. This
// mirrors how packet radios such as the SX1262 behave and keeps the
// burst-handling loop explicit.
package radio

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrPortClosed is returned by Port operations after Close, or once the
// underlying device is gone.
var ErrPortClosed = errors.New("radio: port is closed")

// Modulation identifies the demodulation scheme a Port is configured for.
// The zero value is ModulationUnknown, which is never a valid target for
// Configure; it marks bursts whose capture mode was not recorded.
type Modulation uint8

const (
	ModulationUnknown Modulation = iota
	ModulationLoRa
	ModulationFSK
	ModulationOOK
)

var modulationNames = map[Modulation]string{
	ModulationUnknown: "Unknown",
	ModulationLoRa:    "LoRa",
	ModulationFSK:     "FSK",
	ModulationOOK:     "OOK",
}

// Valid reports whether m is a modulation a receiver can be configured for.
func (m Modulation) Valid() bool {
	return m == ModulationLoRa || m == ModulationFSK || m == ModulationOOK
}

func (m Modulation) String() string {
	if s, ok := modulationNames[m]; ok {
		return s
	}
	return "Unknown"
}

// MarshalText implements encoding.TextMarshaler so Modulation renders as its
// name in JSON output.
func (m Modulation) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Modulation) UnmarshalText(text []byte) error {
	mod, err := ParseModulation(string(text))
	if err != nil {
		return err
	}
	*m = mod
	return nil
}

// ParseModulation converts a case-insensitive modulation name into its
// Modulation value. "Unknown" is not accepted: it is a sentinel, not a mode.
func ParseModulation(s string) (Modulation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lora":
		return ModulationLoRa, nil
	case "fsk":
		return ModulationFSK, nil
	case "ook":
		return ModulationOOK, nil
	}
	return ModulationUnknown, fmt.Errorf("radio: unknown modulation %q", s)
}

// Burst is one received transmission together with the link metrics the
// receiver measured while demodulating it. Payload bytes are carried opaque
// and never decoded.
type Burst struct {
	Timestamp      time.Time
	Frequency      float64 // carrier the receiver was tuned to, MHz
	RSSI           float64 // dBm
	SNR            float64 // dB, meaningful for LoRa captures
	FrequencyError float64 // Hz, receiver vs transmitter carrier offset
	Modulation     Modulation
	Payload        []byte
}

// Port is a tunable sub-GHz receiver.
//
// Configure retunes the receiver; on error the device keeps its previous
// settings. StartReceive arms reception for a single burst. Bursts returns
// the delivery channel; it is closed when the port shuts down.
type Port interface {
	Configure(mod Modulation, frequencyMHz float64) error
	StartReceive() error
	Bursts() <-chan Burst
	Close() error
}
