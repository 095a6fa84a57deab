//go:build rp2040

package main

import (
	"machine"

	"godaq/core"
	"godaq/targets/pio"
)

// DAC bus pins. SCK must follow CS for the streamer side-set.
const (
	dacCS   = machine.GPIO17
	dacSCK  = machine.GPIO18
	dacMOSI = machine.GPIO19
	dacMISO = machine.GPIO16 // unused by the MCP4922
)

const dacBaud = 10000000

// dacBus owns the DAC pins. They belong to SPI0 for static writes and to
// the PIO streamer while the waveform runs.
type dacBus struct {
	spi      *machine.SPI
	gpio     *rpGPIO
	static   *core.MCP4922
	streamer *pio.DACStreamer
	attached bool
}

func newDACBus(gpio *rpGPIO) (*dacBus, error) {
	b := &dacBus{spi: machine.SPI0, gpio: gpio}
	if err := b.configureSPI(); err != nil {
		return nil, err
	}
	dac, err := core.NewMCP4922(b.spi, gpio, core.GPIOPin(dacCS))
	if err != nil {
		return nil, err
	}
	b.static = dac

	b.streamer = pio.NewDACStreamerAuto()
	if b.streamer == nil {
		return nil, errNoStateMachine
	}
	if err := b.streamer.Init(dacCS, dacSCK, dacMOSI); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *dacBus) configureSPI() error {
	// MCP4922 samples on the rising edge: mode 0
	return b.spi.Configure(machine.SPIConfig{
		Frequency: dacBaud,
		SCK:       dacSCK,
		SDO:       dacMOSI,
		SDI:       dacMISO,
		Mode:      0,
	})
}

// Write implements core.DAC. While the streamer owns the pins the word
// goes through its FIFO instead.
func (b *dacBus) Write(ch uint8, code uint16) error {
	if !b.attached {
		return b.static.Write(ch, code)
	}
	if ch < 1 || ch > core.DACChannels {
		return &core.RangeError{Field: "DAC channel", Value: int64(ch), Min: 1, Max: core.DACChannels}
	}
	entry := uint32(code & core.LUTCodeMask)
	if ch == 2 {
		entry |= core.LUTChannelBit
	}
	sm := b.streamer.StateMachine()
	for sm.IsTxFIFOFull() {
	}
	sm.TxPut(entry<<16 | entry)
	return nil
}

func (b *dacBus) attach() {
	b.streamer.Attach()
	b.attached = true
}

func (b *dacBus) detach() {
	b.attached = false
	b.streamer.Detach()
	delete(b.gpio.configured, core.GPIOPin(dacCS))
	_ = b.configureSPI()
	_ = b.gpio.ConfigureOutput(core.GPIOPin(dacCS))
	_ = b.gpio.SetPin(core.GPIOPin(dacCS), true)
}

// waveTrigger implements core.TriggerTimer for the waveform: the PWM slice
// paces the transmit DMA and the DAC pins move to the streamer while it
// runs.
type waveTrigger struct {
	pwm pwmTimer
	bus *dacBus
}

// Program implements core.TriggerTimer
func (w *waveTrigger) Program(p core.TimerProgram) { w.pwm.Program(p) }

// Start implements core.TriggerTimer
func (w *waveTrigger) Start() {
	w.bus.attach()
	w.pwm.Start()
}

// Stop implements core.TriggerTimer
func (w *waveTrigger) Stop() {
	w.pwm.Stop()
	if w.bus.attached {
		w.bus.detach()
	}
}
