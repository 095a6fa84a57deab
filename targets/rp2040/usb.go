//go:build rp2040

package main

import (
	"machine"
	"runtime/interrupt"

	"godaq/protocol"
)

// InitUSB initializes USB serial communication. On RP2040 machine.Serial
// is USB CDC; the descriptors come from the TinyGo runtime.
func InitUSB() {
	_ = machine.Serial.Configure(machine.UARTConfig{})
}

// usbChannel implements core.Channel over USB CDC. Received bytes are
// queued by the reader loop; written bytes are queued for the main loop.
// Both queues are shared with interrupt handlers.
type usbChannel struct {
	in  *protocol.FifoBuffer
	out *protocol.FifoBuffer

	dropped uint32
}

func newUSBChannel() *usbChannel {
	return &usbChannel{
		in:  protocol.NewFifoBuffer(512),
		out: protocol.NewFifoBuffer(16 * 1024),
	}
}

// Available implements core.Channel
func (c *usbChannel) Available() int {
	state := interrupt.Disable()
	n := c.in.Available()
	interrupt.Restore(state)
	return n
}

// ReadByte implements core.Channel
func (c *usbChannel) ReadByte() (byte, error) {
	state := interrupt.Disable()
	b, ok := c.in.GetByte()
	interrupt.Restore(state)
	if !ok {
		return 0, errNoInput
	}
	return b, nil
}

// WriteByte implements core.Channel
func (c *usbChannel) WriteByte(b byte) error {
	state := interrupt.Disable()
	ok := c.out.PutByte(b)
	if !ok {
		c.dropped++
	}
	interrupt.Restore(state)
	if !ok {
		return errOutputFull
	}
	return nil
}

// Write implements core.Channel. It never blocks; bytes that do not fit
// are dropped.
func (c *usbChannel) Write(p []byte) (int, error) {
	state := interrupt.Disable()
	n := c.out.Write(p)
	if n < len(p) {
		c.dropped++
	}
	interrupt.Restore(state)
	if n < len(p) {
		return n, errOutputFull
	}
	return n, nil
}

// receive moves bytes from the USB endpoint into the input queue
func (c *usbChannel) receive() int {
	n := 0
	for machine.Serial.Buffered() > 0 {
		b, err := machine.Serial.ReadByte()
		if err != nil {
			break
		}
		state := interrupt.Disable()
		ok := c.in.PutByte(b)
		interrupt.Restore(state)
		if !ok {
			break
		}
		n++
	}
	return n
}

// transmit writes queued output to the USB endpoint. It returns false on
// a write error.
func (c *usbChannel) transmit() bool {
	var chunk [64]byte
	for {
		state := interrupt.Disable()
		n := c.out.Read(chunk[:])
		interrupt.Restore(state)
		if n == 0 {
			return true
		}
		written := 0
		for written < n {
			w, err := machine.Serial.Write(chunk[written:n])
			if err != nil || w == 0 {
				return false
			}
			written += w
		}
	}
}

// empty reports whether all queued output has been handed to USB
func (c *usbChannel) empty() bool {
	state := interrupt.Disable()
	e := c.out.IsEmpty()
	interrupt.Restore(state)
	return e
}

func (c *usbChannel) reset() {
	state := interrupt.Disable()
	c.in.Reset()
	c.out.Reset()
	interrupt.Restore(state)
}
