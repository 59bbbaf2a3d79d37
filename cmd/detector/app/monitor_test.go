package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rfsentinel/drone-detector/internal/detect"
	"github.com/rfsentinel/drone-detector/internal/display"
	"github.com/rfsentinel/drone-detector/internal/radio"
	"github.com/rfsentinel/drone-detector/internal/scan"
	"github.com/rfsentinel/drone-detector/internal/stats"
)

type configureCall struct {
	mod  radio.Modulation
	freq float64
}

type fakePort struct {
	mu           sync.Mutex
	configures   []configureCall
	receives     int
	configureErr error

	bursts chan radio.Burst
	done   chan error
}

func newFakePort() *fakePort {
	return &fakePort{
		bursts: make(chan radio.Burst, 4),
		done:   make(chan error, 1),
	}
}

func (p *fakePort) Configure(mod radio.Modulation, freq float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.configureErr != nil {
		return p.configureErr
	}
	p.configures = append(p.configures, configureCall{mod, freq})
	return nil
}

func (p *fakePort) StartReceive() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.receives++
	return nil
}

func (p *fakePort) Bursts() <-chan radio.Burst { return p.bursts }
func (p *fakePort) Done() <-chan error         { return p.done }
func (p *fakePort) Close() error               { return nil }

func (p *fakePort) configured() []configureCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	calls := make([]configureCall, len(p.configures))
	copy(calls, p.configures)
	return calls
}

func (p *fakePort) receiveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.receives
}

type recordingDisplay struct {
	mu         sync.Mutex
	scannings  int
	detections chan display.Detection
}

func newRecordingDisplay() *recordingDisplay {
	return &recordingDisplay{detections: make(chan display.Detection, 16)}
}

func (d *recordingDisplay) Splash() error { return nil }

func (d *recordingDisplay) Scanning(display.Scanning) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scannings++
	return nil
}

func (d *recordingDisplay) Detection(v display.Detection) error {
	d.detections <- v
	return nil
}

func (d *recordingDisplay) Error(string) error  { return nil }
func (d *recordingDisplay) Status(string) error { return nil }

func (d *recordingDisplay) scanningCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scannings
}

// newTestMonitor builds a monitor whose periodic work is parked on one-hour
// tickers; tests shorten the interval they exercise before starting run.
func newTestMonitor(t *testing.T, port *fakePort) (*monitor, *recordingDisplay) {
	t.Helper()

	sched, err := scan.NewScheduler(port, scan.WithNominalFrequency(915.0))
	if err != nil {
		t.Fatalf("NewScheduler() error: %s", err)
	}

	disp := newRecordingDisplay()
	return &monitor{
		port:    port,
		engine:  detect.NewEngine(),
		sched:   sched,
		tracker: stats.NewTracker(16),
		disp:    disp,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),

		modulationInterval: time.Hour,
		sweepInterval:      time.Hour,
		refreshInterval:    time.Hour,
		summaryInterval:    time.Hour,
	}, disp
}

func startMonitor(m *monitor) (context.CancelFunc, <-chan error) {
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- m.run(ctx) }()
	return cancel, errc
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}

func TestMonitorClassifiesBurst(t *testing.T) {
	port := newFakePort()
	m, disp := newTestMonitor(t, port)
	cancel, errc := startMonitor(m)

	port.bursts <- radio.Burst{
		Timestamp:      time.Now(),
		Frequency:      915.0,
		RSSI:           -60,
		SNR:            10,
		FrequencyError: 500,
		Modulation:     radio.ModulationLoRa,
	}

	var det display.Detection
	select {
	case det = <-disp.detections:
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for detection render")
	}

	cancel()
	if err := <-errc; err != nil {
		t.Fatalf("run() error: %s", err)
	}

	if !det.Result.Match {
		t.Error("Expected burst to match a signature")
	}
	if det.Result.Protocol != "ExpressLRS 900" {
		t.Errorf("Expected protocol ExpressLRS 900, got %q", det.Result.Protocol)
	}
	if det.Result.Confidence != 87 {
		t.Errorf("Expected confidence 87, got %d", det.Result.Confidence)
	}
	if det.Total != 1 {
		t.Errorf("Expected total of 1 burst, got %d", det.Total)
	}
	if port.receiveCount() != 1 {
		t.Errorf("Expected receiver re-armed once, got %d", port.receiveCount())
	}
}

func TestMonitorMatchesAtBurstFrequency(t *testing.T) {
	port := newFakePort()
	m, disp := newTestMonitor(t, port)
	cancel, errc := startMonitor(m)

	// Tuned below the band mid-sweep: nothing in the catalog covers it.
	port.bursts <- radio.Burst{
		Timestamp:  time.Now(),
		Frequency:  868.0,
		RSSI:       -60,
		SNR:        10,
		Modulation: radio.ModulationLoRa,
	}

	var det display.Detection
	select {
	case det = <-disp.detections:
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for detection render")
	}

	cancel()
	<-errc

	if det.Result.Match {
		t.Error("Expected no signature match for an out-of-band burst")
	}
	if det.Result.Frequency != 868.0 {
		t.Errorf("Expected result at 868.0 MHz, got %g", det.Result.Frequency)
	}
}

func TestMonitorRotatesModulation(t *testing.T) {
	port := newFakePort()
	m, _ := newTestMonitor(t, port)
	m.modulationInterval = 20 * time.Millisecond
	cancel, errc := startMonitor(m)

	waitFor(t, func() bool { return len(port.configured()) >= 2 }, "two modulation switches")
	cancel()
	if err := <-errc; err != nil {
		t.Fatalf("run() error: %s", err)
	}

	calls := port.configured()
	want := []configureCall{
		{radio.ModulationFSK, 915.0},
		{radio.ModulationOOK, 915.0},
	}
	for i, w := range want {
		if calls[i] != w {
			t.Errorf("Expected configure call %d to be %+v, got %+v", i, w, calls[i])
		}
	}
	if port.receiveCount() < 2 {
		t.Errorf("Expected receiver re-armed after each switch, got %d", port.receiveCount())
	}
}

func TestMonitorKeepsRotatingOnConfigureFailure(t *testing.T) {
	port := newFakePort()
	port.configureErr = errors.New("tune refused")

	m, _ := newTestMonitor(t, port)
	m.modulationInterval = 20 * time.Millisecond
	cancel, errc := startMonitor(m)

	waitFor(t, func() bool { return port.receiveCount() >= 2 }, "receiver re-arms")
	cancel()
	if err := <-errc; err != nil {
		t.Fatalf("Expected configure failures to be non-fatal, got %s", err)
	}

	if m.sched.Modulation() != radio.ModulationLoRa {
		t.Errorf("Expected scheduler to hold LoRa after failed switches, got %s", m.sched.Modulation())
	}
}

func TestMonitorSweeps(t *testing.T) {
	port := newFakePort()
	m, _ := newTestMonitor(t, port)
	m.sweepEnabled = true
	m.sweepInterval = 20 * time.Millisecond
	cancel, errc := startMonitor(m)

	waitFor(t, func() bool { return len(port.configured()) >= 2 }, "two sweep steps")
	cancel()
	if err := <-errc; err != nil {
		t.Fatalf("run() error: %s", err)
	}

	calls := port.configured()
	want := []configureCall{
		{radio.ModulationLoRa, 902.5},
		{radio.ModulationLoRa, 903.0},
	}
	for i, w := range want {
		if calls[i] != w {
			t.Errorf("Expected configure call %d to be %+v, got %+v", i, w, calls[i])
		}
	}
}

func TestMonitorPortFailureIsFatal(t *testing.T) {
	port := newFakePort()
	m, _ := newTestMonitor(t, port)
	cancel, errc := startMonitor(m)
	defer cancel()

	cause := errors.New("bridge died")
	port.done <- cause

	select {
	case err := <-errc:
		if !errors.Is(err, cause) {
			t.Fatalf("Expected run() to wrap the port error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for run() to return")
	}
}

func TestMonitorStopsWhenBurstChannelCloses(t *testing.T) {
	port := newFakePort()
	m, _ := newTestMonitor(t, port)
	cancel, errc := startMonitor(m)
	defer cancel()

	close(port.bursts)

	select {
	case err := <-errc:
		if err == nil || !strings.Contains(err.Error(), "stopped delivering") {
			t.Fatalf("Expected burst channel closure to be fatal, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for run() to return")
	}
}

func TestMonitorRendersScanningOnStart(t *testing.T) {
	port := newFakePort()
	m, disp := newTestMonitor(t, port)
	cancel, errc := startMonitor(m)

	waitFor(t, func() bool { return disp.scanningCount() >= 1 }, "initial scanning render")
	cancel()
	<-errc
}
