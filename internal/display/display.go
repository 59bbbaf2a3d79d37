// Package display renders detector state to one or more output surfaces: a
// colored console stream and a PNG panel sized like the 240x135 TFT found on
// handheld scanner builds.
package display

import (
	"errors"

	"github.com/rfsentinel/drone-detector/internal/detect"
	"github.com/rfsentinel/drone-detector/internal/radio"
)

// Scanning is the idle screen state: what the receiver is listening to and
// how much it has heard so far.
type Scanning struct {
	Frequency  float64 // MHz
	Modulation radio.Modulation
	Total      uint64 // bursts rendered this session
}

// Detection is the alert screen state for one classified burst.
type Detection struct {
	Result detect.Result
	Total  uint64 // bursts rendered this session, including this one
}

// Renderer is one output surface. Implementations are safe for use from a
// single rendering goroutine.
type Renderer interface {
	// Splash shows the startup screen.
	Splash() error

	// Scanning shows the idle listening screen.
	Scanning(v Scanning) error

	// Detection shows the burst alert screen.
	Detection(v Detection) error

	// Error shows a fatal error screen.
	Error(message string) error

	// Status updates the transient status line without replacing the
	// current screen.
	Status(message string) error
}

// Multi fans every call out to all renderers and joins their errors, so one
// failing surface does not blank the others.
type Multi []Renderer

func (m Multi) Splash() error {
	errs := make([]error, len(m))
	for i, r := range m {
		errs[i] = r.Splash()
	}
	return errors.Join(errs...)
}

func (m Multi) Scanning(v Scanning) error {
	errs := make([]error, len(m))
	for i, r := range m {
		errs[i] = r.Scanning(v)
	}
	return errors.Join(errs...)
}

func (m Multi) Detection(v Detection) error {
	errs := make([]error, len(m))
	for i, r := range m {
		errs[i] = r.Detection(v)
	}
	return errors.Join(errs...)
}

func (m Multi) Error(message string) error {
	errs := make([]error, len(m))
	for i, r := range m {
		errs[i] = r.Error(message)
	}
	return errors.Join(errs...)
}

func (m Multi) Status(message string) error {
	errs := make([]error, len(m))
	for i, r := range m {
		errs[i] = r.Status(message)
	}
	return errors.Join(errs...)
}
