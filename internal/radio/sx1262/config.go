package sx1262

import (
	"errors"
	"time"

	"github.com/rfsentinel/drone-detector/internal/radio"
)

const (
	defaultBaudRate       = 115200
	defaultCommandTimeout = 2 * time.Second
)

// Config describes the serial link to the receiver bridge. Zero BaudRate and
// CommandTimeout select the defaults of 115200 baud and 2s.
type Config struct {
	Port           string             `yaml:"port" json:"port"`
	BaudRate       uint               `yaml:"baudRate" json:"baudRate"`
	CommandTimeout radio.TimeDuration `yaml:"commandTimeout" json:"commandTimeout"`
}

// NewConfig returns a Config for the given serial device with defaults
// filled in.
func NewConfig(port string) *Config {
	return &Config{
		Port:           port,
		BaudRate:       defaultBaudRate,
		CommandTimeout: radio.TimeDuration(defaultCommandTimeout),
	}
}

func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("sx1262.Config: serial port is required")
	}
	return nil
}
