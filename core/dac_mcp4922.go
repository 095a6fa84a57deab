package core

import "tinygo.org/x/drivers"

// MCP4922 command word layout.
const (
	MCP4922SelectB  = 1 << 15 // write channel B
	MCP4922Buffered = 1 << 14 // buffer VREF input
	MCP4922GainOne  = 1 << 13 // 1x output gain, 2x when clear
	MCP4922Active   = 1 << 12 // output enabled, shutdown when clear
	MCP4922DataMask = 0x0FFF
)

// MCP4922Word builds the command word that loads code into DAC output ch
// (1 = A, 2 = B) at unity gain, unbuffered.
func MCP4922Word(ch uint8, code uint16) uint16 {
	w := uint16(MCP4922GainOne|MCP4922Active) | code&MCP4922DataMask
	if ch == 2 {
		w |= MCP4922SelectB
	}
	return w
}

// LUTWord converts a LUT entry (bit 12 selects output B) to a command word.
func LUTWord(entry uint16) uint16 {
	ch := uint8(1)
	if entry&LUTChannelBit != 0 {
		ch = 2
	}
	return MCP4922Word(ch, entry&LUTCodeMask)
}

// MCP4922 is the dual 12-bit SPI DAC behind the static outputs.
type MCP4922 struct {
	bus  drivers.SPI
	gpio GPIODriver
	cs   GPIOPin
	tx   [2]byte
}

// NewMCP4922 configures the chip select and leaves it deasserted.
func NewMCP4922(bus drivers.SPI, gpio GPIODriver, cs GPIOPin) (*MCP4922, error) {
	if err := gpio.ConfigureOutput(cs); err != nil {
		return nil, err
	}
	if err := gpio.SetPin(cs, true); err != nil {
		return nil, err
	}
	return &MCP4922{bus: bus, gpio: gpio, cs: cs}, nil
}

// Write loads code into output ch (1..2).
func (d *MCP4922) Write(ch uint8, code uint16) error {
	if ch < 1 || ch > DACChannels {
		return &RangeError{Field: "DAC channel", Value: int64(ch), Min: 1, Max: DACChannels}
	}
	w := MCP4922Word(ch, code)
	d.tx[0] = byte(w >> 8)
	d.tx[1] = byte(w)

	if err := d.gpio.SetPin(d.cs, false); err != nil {
		return err
	}
	err := d.bus.Tx(d.tx[:], nil)
	if cerr := d.gpio.SetPin(d.cs, true); err == nil {
		err = cerr
	}
	return err
}
