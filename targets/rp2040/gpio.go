//go:build rp2040

package main

import (
	"machine"

	"godaq/core"
)

// rpGPIO implements core.GPIODriver over machine.Pin
type rpGPIO struct {
	// Track configured pins
	configured map[core.GPIOPin]machine.Pin
}

func newRPGPIO() *rpGPIO {
	return &rpGPIO{configured: make(map[core.GPIOPin]machine.Pin)}
}

// ConfigureOutput configures a pin as a digital output
func (d *rpGPIO) ConfigureOutput(pin core.GPIOPin) error {
	if _, ok := d.configured[pin]; ok {
		return nil
	}
	// GPIO numbers map directly to machine pins
	p := machine.Pin(pin)
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	d.configured[pin] = p
	return nil
}

// SetPin sets the pin to high (true) or low (false)
func (d *rpGPIO) SetPin(pin core.GPIOPin, value bool) error {
	p, ok := d.configured[pin]
	if !ok {
		if err := d.ConfigureOutput(pin); err != nil {
			return err
		}
		p = d.configured[pin]
	}
	p.Set(value)
	return nil
}
