// Package sx1262 drives an SX1262 receiver through its companion firmware
// over a serial line.
//
// The bridge speaks a newline-terminated, comma-separated text protocol:
//
//	host -> bridge:
//	    MODE,LORA,<freqMHz>,<bwKHz>,<sf>,<cr>
//	    MODE,FSK,<freqMHz>,<kbps>,<devKHz>,<rxbwKHz>,<preambleBits>
//	    MODE,OOK,<freqMHz>,<kbps>,<rxbwKHz>
//	    RX
//	bridge -> host:
//	    OK
//	    ERR,<code>
//	    BURST,<rssiDBm>,<snrDB>,<freqErrHz>[,<payloadHex>]
//	    LOG,<message>
//
// Every command is answered with OK or ERR. BURST and LOG lines arrive
// unsolicited; the bridge stops receiving after each burst until the next RX
// command.
package sx1262

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jacobsa/go-serial/serial"

	"github.com/rfsentinel/drone-detector/internal/radio"
)

var (
	// ErrCommandTimeout is returned when the bridge does not answer a
	// command within the configured timeout.
	ErrCommandTimeout = errors.New("sx1262: command timed out")

	// ErrTooManyParseErrors is reported on Done when the bridge keeps
	// sending lines the driver cannot understand.
	ErrTooManyParseErrors = errors.New("sx1262: too many consecutive parse errors")
)

// StatusError is a non-OK reply from the bridge firmware. Codes follow the
// firmware's radio library convention of negative numbers.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sx1262: bridge returned status %d", e.Code)
}

const (
	driverName           = "sx1262"
	parseErrorsThreshold = 5
	burstBacklog         = 4
)

// open is a variable so tests can substitute an in-memory port.
var open = func(cfg *Config) (io.ReadWriteCloser, error) {
	return serial.Open(serial.OpenOptions{
		PortName:        cfg.Port,
		BaudRate:        cfg.BaudRate,
		DataBits:        8,
		ParityMode:      serial.PARITY_NONE,
		StopBits:        1,
		MinimumReadSize: 1,
	})
}

type reply struct {
	ok   bool
	code int
}

// Driver implements radio.Port on top of the serial bridge.
type Driver struct {
	cfg    *Config
	params radio.ModeParams
	port   io.ReadWriteCloser
	logger *slog.Logger

	cmdMu   sync.Mutex // serializes command/reply exchanges
	replies chan reply

	bursts chan radio.Burst
	done   chan error
	closed atomic.Bool

	stateMu sync.Mutex
	mod     radio.Modulation
	freq    float64 // MHz
}

// New opens the serial port and starts the read loop. The returned Driver is
// not yet tuned; callers run their bring-up sequence of Configure and
// StartReceive.
func New(cfg *Config, params radio.ModeParams, opts ...func(*Driver)) (*Driver, error) {
	if cfg == nil {
		return nil, errors.New("sx1262: config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	if cfg.BaudRate == 0 {
		cfg.BaudRate = defaultBaudRate
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = radio.TimeDuration(defaultCommandTimeout)
	}

	d := &Driver{
		cfg:     cfg,
		params:  params,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		replies: make(chan reply, 1),
		bursts:  make(chan radio.Burst, burstBacklog),
		done:    make(chan error, 1),
	}
	for _, opt := range opts {
		opt(d)
	}

	port, err := open(cfg)
	if err != nil {
		return nil, fmt.Errorf("sx1262: opening %s: %w", cfg.Port, err)
	}
	d.port = port

	go d.readLoop()
	return d, nil
}

// WithLogger sets the instance logger.
func WithLogger(logger *slog.Logger) func(*Driver) {
	return func(d *Driver) {
		d.logger = logger.With(slog.String("driver", driverName))
	}
}

// Configure switches the bridge to the given modulation and carrier, using
// the parameter set for that mode. On failure the bridge keeps its previous
// settings.
func (d *Driver) Configure(mod radio.Modulation, freqMHz float64) error {
	var cmd string
	switch mod {
	case radio.ModulationLoRa:
		p := d.params.LoRa
		cmd = fmt.Sprintf("MODE,LORA,%.4f,%g,%d,%d", freqMHz, p.Bandwidth, p.SpreadingFactor, p.CodingRate)
	case radio.ModulationFSK:
		p := d.params.FSK
		cmd = fmt.Sprintf("MODE,FSK,%.4f,%g,%g,%g,%d", freqMHz, p.BitRate, p.FrequencyDeviation, p.RxBandwidth, p.PreambleLength)
	case radio.ModulationOOK:
		p := d.params.OOK
		cmd = fmt.Sprintf("MODE,OOK,%.4f,%g,%g", freqMHz, p.BitRate, p.RxBandwidth)
	default:
		return fmt.Errorf("sx1262: cannot configure modulation %s", mod)
	}

	if err := d.command(cmd); err != nil {
		return err
	}

	d.stateMu.Lock()
	d.mod, d.freq = mod, freqMHz
	d.stateMu.Unlock()
	return nil
}

// StartReceive arms the bridge for the next burst.
func (d *Driver) StartReceive() error {
	return d.command("RX")
}

// Bursts returns the burst delivery channel. It is closed when the read
// loop stops.
func (d *Driver) Bursts() <-chan radio.Burst {
	return d.bursts
}

// Done delivers the terminal error if the read loop dies unexpectedly. A
// clean Close delivers nothing.
func (d *Driver) Done() <-chan error {
	return d.done
}

// Close shuts the serial port down and stops the read loop. Safe to call
// more than once.
func (d *Driver) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	return d.port.Close()
}

func (d *Driver) command(cmd string) error {
	if d.closed.Load() {
		return radio.ErrPortClosed
	}

	d.cmdMu.Lock()
	defer d.cmdMu.Unlock()

	// Drop a stale reply left behind by a timed-out command.
	select {
	case <-d.replies:
	default:
	}

	if _, err := d.port.Write([]byte(cmd + "\n")); err != nil {
		if d.closed.Load() {
			return radio.ErrPortClosed
		}
		return fmt.Errorf("sx1262: writing command: %w", err)
	}

	select {
	case r := <-d.replies:
		if !r.ok {
			return &StatusError{Code: r.code}
		}
		return nil
	case <-time.After(d.cfg.CommandTimeout.Duration()):
		return ErrCommandTimeout
	}
}

func (d *Driver) readLoop() {
	var parseErrors int

	scanner := bufio.NewScanner(d.port)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "OK":
			d.deliverReply(reply{ok: true})

		case strings.HasPrefix(line, "ERR"):
			code := 0
			if _, rest, found := strings.Cut(line, ","); found {
				code, _ = strconv.Atoi(strings.TrimSpace(rest))
			}
			d.deliverReply(reply{code: code})

		case strings.HasPrefix(line, "BURST,"):
			burst, err := d.parseBurst(line)
			if err != nil {
				parseErrors++
				d.logger.Warn(fmt.Sprintf("error parsing burst: %s", err), slog.String("line", line))
				if parseErrors >= parseErrorsThreshold {
					d.fail(ErrTooManyParseErrors)
					return
				}
				continue
			}
			parseErrors = 0

			select {
			case d.bursts <- burst:
			default:
				d.logger.Warn("burst backlog full, dropping burst")
			}

		case strings.HasPrefix(line, "LOG,"):
			d.logger.Debug(strings.TrimPrefix(line, "LOG,"))

		default:
			parseErrors++
			d.logger.Warn("unrecognized line from bridge", slog.String("line", line))
			if parseErrors >= parseErrorsThreshold {
				d.fail(ErrTooManyParseErrors)
				return
			}
		}
	}

	err := scanner.Err()
	if d.closed.Load() {
		err = nil
	}
	d.fail(err)
}

// fail records the terminal error and closes the burst channel. Called only
// from the read loop goroutine.
func (d *Driver) fail(err error) {
	if err != nil {
		select {
		case d.done <- err:
		default:
		}
	}
	close(d.bursts)
}

func (d *Driver) deliverReply(r reply) {
	select {
	case d.replies <- r:
	default:
		d.logger.Debug("dropping unexpected bridge reply")
	}
}

// parseBurst decodes "BURST,<rssi>,<snr>,<freqErr>[,<payloadHex>]", stamping
// the burst with the mode and carrier of the last successful Configure.
func (d *Driver) parseBurst(line string) (radio.Burst, error) {
	fields := strings.Split(line, ",")
	if len(fields) < 4 {
		return radio.Burst{}, fmt.Errorf("sx1262: burst line has %d fields, want at least 4", len(fields))
	}

	rssi, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return radio.Burst{}, fmt.Errorf("sx1262: bad rssi: %w", err)
	}
	snr, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
	if err != nil {
		return radio.Burst{}, fmt.Errorf("sx1262: bad snr: %w", err)
	}
	freqError, err := strconv.ParseFloat(strings.TrimSpace(fields[3]), 64)
	if err != nil {
		return radio.Burst{}, fmt.Errorf("sx1262: bad frequency error: %w", err)
	}

	var payload []byte
	if len(fields) >= 5 {
		if raw := strings.TrimSpace(fields[4]); raw != "" {
			payload, err = hex.DecodeString(raw)
			if err != nil {
				return radio.Burst{}, fmt.Errorf("sx1262: bad payload: %w", err)
			}
		}
	}

	d.stateMu.Lock()
	mod, freq := d.mod, d.freq
	d.stateMu.Unlock()

	return radio.Burst{
		Timestamp:      time.Now(),
		Frequency:      freq,
		RSSI:           rssi,
		SNR:            snr,
		FrequencyError: freqError,
		Modulation:     mod,
		Payload:        payload,
	}, nil
}
