package serial

import (
	"io"
	"time"
)

// Port is a connection to the instrument. Native ports come from Open;
// tests use in-memory pipes.
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string `yaml:"device"`

	// Baud rate. USB CDC ignores it.
	Baud int `yaml:"baud"`

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int `yaml:"read_timeout_ms"`

	// How long Open keeps retrying a device that is not there yet
	OpenTimeout time.Duration `yaml:"open_timeout"`
}

// DefaultConfig returns the settings the instrument's USB CDC port expects
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100,
		OpenTimeout: 3 * time.Second,
	}
}
