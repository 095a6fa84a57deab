package serial

import (
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff"
	tarm "github.com/tarm/serial"
)

// openPort is replaced in tests
var openPort = func(c *tarm.Config) (io.ReadWriteCloser, error) {
	return tarm.OpenPort(c)
}

// NativePort wraps the tarm/serial implementation
type NativePort struct {
	port io.ReadWriteCloser
	cfg  *Config
}

// Open opens a native serial port. A board that was just reset takes a
// moment to enumerate, so failed opens are retried with exponential
// back-off until cfg.OpenTimeout.
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	serialConfig := &tarm.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Millisecond,
	}

	var port io.ReadWriteCloser
	op := func() error {
		p, err := openPort(serialConfig)
		if err != nil {
			return err
		}
		port = p
		return nil
	}

	err := backoff.Retry(op, &backoff.ExponentialBackOff{
		InitialInterval:     25 * time.Millisecond,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         time.Second,
		MaxElapsedTime:      cfg.OpenTimeout,
		Clock:               backoff.SystemClock,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}

	return &NativePort{
		port: port,
		cfg:  cfg,
	}, nil
}

// Read reads data from the serial port
func (p *NativePort) Read(b []byte) (int, error) {
	return p.port.Read(b)
}

// Write writes data to the serial port
func (p *NativePort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

// Close closes the serial port
func (p *NativePort) Close() error {
	if p.port != nil {
		return p.port.Close()
	}
	return nil
}

// Flush is a no-op: tarm/serial writes are unbuffered
func (p *NativePort) Flush() error {
	return nil
}
