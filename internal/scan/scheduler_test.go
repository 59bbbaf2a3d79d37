package scan

import (
	"errors"
	"testing"

	"github.com/rfsentinel/drone-detector/internal/radio"
)

var errRefused = errors.New("configure refused")

type configureCall struct {
	mod  radio.Modulation
	freq float64
}

// fakePort records Configure calls and can be scripted to refuse a number
// of them.
type fakePort struct {
	calls    []configureCall
	failNext int
}

func (f *fakePort) Configure(mod radio.Modulation, freq float64) error {
	f.calls = append(f.calls, configureCall{mod, freq})
	if f.failNext > 0 {
		f.failNext--
		return errRefused
	}
	return nil
}

func (f *fakePort) StartReceive() error        { return nil }
func (f *fakePort) Bursts() <-chan radio.Burst { return nil }
func (f *fakePort) Close() error               { return nil }

func TestNewSchedulerRequiresPort(t *testing.T) {
	if _, err := NewScheduler(nil); !errors.Is(err, ErrNoPort) {
		t.Fatalf("Expected ErrNoPort, got %v", err)
	}
}

func TestNewSchedulerDefaults(t *testing.T) {
	s, err := NewScheduler(&fakePort{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if got := s.Modulation(); got != radio.ModulationLoRa {
		t.Errorf("Expected LoRa, got %s", got)
	}
	if got := s.NominalFrequency(); got != 915.0 {
		t.Errorf("Expected nominal 915.0, got %v", got)
	}
	if got := s.SweepFrequency(); got != 902.0 {
		t.Errorf("Expected sweep cursor at 902.0, got %v", got)
	}
	if s.SweepComplete() {
		t.Error("Expected sweep not complete")
	}
}

func TestNewSchedulerValidation(t *testing.T) {
	if _, err := NewScheduler(&fakePort{}, WithBand(radio.Band{Min: 928, Max: 902})); err == nil {
		t.Error("Expected error for inverted band, got none")
	}
	if _, err := NewScheduler(&fakePort{}, WithSweepStep(0)); err == nil {
		t.Error("Expected error for zero sweep step, got none")
	}
}

func TestAdvanceModulationCycle(t *testing.T) {
	port := &fakePort{}
	s, err := NewScheduler(port)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := []radio.Modulation{radio.ModulationFSK, radio.ModulationOOK, radio.ModulationLoRa}
	for _, wantMod := range want {
		got, err := s.AdvanceModulation()
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if got != wantMod {
			t.Fatalf("Expected %s, got %s", wantMod, got)
		}
	}

	for i, call := range port.calls {
		if call.mod != want[i] {
			t.Errorf("Expected configure %d for %s, got %s", i, want[i], call.mod)
		}
		if call.freq != 915.0 {
			t.Errorf("Expected configure %d at 915.0, got %v", i, call.freq)
		}
	}
}

func TestAdvanceModulationKeepsModeOnFailure(t *testing.T) {
	port := &fakePort{failNext: 1}
	s, err := NewScheduler(port)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	got, err := s.AdvanceModulation()
	if !errors.Is(err, errRefused) {
		t.Fatalf("Expected errRefused, got %v", err)
	}
	if got != radio.ModulationLoRa {
		t.Errorf("Expected to stay on LoRa, got %s", got)
	}
	if s.Modulation() != radio.ModulationLoRa {
		t.Errorf("Expected scheduler to stay on LoRa, got %s", s.Modulation())
	}

	// The retry targets the same transition.
	got, err = s.AdvanceModulation()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != radio.ModulationFSK {
		t.Errorf("Expected FSK after retry, got %s", got)
	}
}

func TestAdvanceSweepSteps(t *testing.T) {
	port := &fakePort{}
	s, err := NewScheduler(port)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	freq, err := s.AdvanceSweep()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if freq != 902.5 {
		t.Errorf("Expected 902.5, got %v", freq)
	}

	if len(port.calls) != 1 {
		t.Fatalf("Expected 1 configure call, got %d", len(port.calls))
	}
	if port.calls[0].mod != radio.ModulationLoRa || port.calls[0].freq != 902.5 {
		t.Errorf("Expected configure LoRa at 902.5, got %s at %v", port.calls[0].mod, port.calls[0].freq)
	}
}

func TestAdvanceSweepUsesCurrentModulation(t *testing.T) {
	port := &fakePort{}
	s, err := NewScheduler(port)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if _, err := s.AdvanceModulation(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := s.AdvanceSweep(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	last := port.calls[len(port.calls)-1]
	if last.mod != radio.ModulationFSK {
		t.Errorf("Expected sweep to retune in FSK, got %s", last.mod)
	}
}

func TestAdvanceSweepWraps(t *testing.T) {
	port := &fakePort{}
	s, err := NewScheduler(port, WithBand(radio.Band{Min: 902, Max: 903}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for _, want := range []float64{902.5, 903.0} {
		freq, err := s.AdvanceSweep()
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if freq != want {
			t.Fatalf("Expected %v, got %v", want, freq)
		}
		if s.SweepComplete() {
			t.Fatal("Expected sweep not complete yet")
		}
	}

	freq, err := s.AdvanceSweep()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if freq != 902.0 {
		t.Errorf("Expected wrap to 902.0, got %v", freq)
	}
	if !s.SweepComplete() {
		t.Error("Expected sweep complete after wrap")
	}

	// The flag latches until reset.
	if _, err := s.AdvanceSweep(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !s.SweepComplete() {
		t.Error("Expected sweep complete to persist")
	}

	s.ResetSweep()
	if s.SweepComplete() {
		t.Error("Expected sweep complete cleared after reset")
	}
	if s.SweepFrequency() != 902.0 {
		t.Errorf("Expected cursor at 902.0 after reset, got %v", s.SweepFrequency())
	}
}

// A refused retune keeps the modulation where it was, but the sweep cursor
// still moves: the two advances deliberately fail in different directions.
func TestAdvanceSweepCommitsCursorOnFailure(t *testing.T) {
	port := &fakePort{failNext: 1}
	s, err := NewScheduler(port)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	freq, err := s.AdvanceSweep()
	if !errors.Is(err, errRefused) {
		t.Fatalf("Expected errRefused, got %v", err)
	}
	if freq != 902.5 {
		t.Errorf("Expected cursor at 902.5, got %v", freq)
	}
	if s.SweepFrequency() != 902.5 {
		t.Errorf("Expected committed cursor 902.5, got %v", s.SweepFrequency())
	}

	freq, err = s.AdvanceSweep()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if freq != 903.0 {
		t.Errorf("Expected 903.0, got %v", freq)
	}
}

func TestSchedulerOptions(t *testing.T) {
	port := &fakePort{}
	s, err := NewScheduler(port,
		WithBand(radio.Band{Min: 433, Max: 435}),
		WithNominalFrequency(433.92),
		WithSweepStep(250))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if got := s.NominalFrequency(); got != 433.92 {
		t.Errorf("Expected nominal 433.92, got %v", got)
	}
	if got := s.SweepFrequency(); got != 433.0 {
		t.Errorf("Expected cursor at 433.0, got %v", got)
	}

	freq, err := s.AdvanceSweep()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if freq != 433.25 {
		t.Errorf("Expected 433.25, got %v", freq)
	}
}
