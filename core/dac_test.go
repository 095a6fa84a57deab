package core

import (
	"errors"
	"testing"
)

type fakeSPI struct {
	frames [][]byte
	csLow  []bool // chip select state at each transfer
	gpio   *fakeGPIO
	cs     GPIOPin
}

func (f *fakeSPI) Tx(w, r []byte) error {
	f.frames = append(f.frames, append([]byte(nil), w...))
	f.csLow = append(f.csLow, !f.gpio.level[f.cs])
	return nil
}

func (f *fakeSPI) Transfer(b byte) (byte, error) {
	return 0, f.Tx([]byte{b}, nil)
}

type fakeGPIO struct {
	outputs map[GPIOPin]bool
	level   map[GPIOPin]bool
}

func newFakeGPIO() *fakeGPIO {
	return &fakeGPIO{outputs: map[GPIOPin]bool{}, level: map[GPIOPin]bool{}}
}

func (f *fakeGPIO) ConfigureOutput(pin GPIOPin) error {
	f.outputs[pin] = true
	return nil
}

func (f *fakeGPIO) SetPin(pin GPIOPin, value bool) error {
	if !f.outputs[pin] {
		return errors.New("pin not configured")
	}
	f.level[pin] = value
	return nil
}

func TestMCP4922Word(t *testing.T) {
	testCases := []struct {
		ch   uint8
		code uint16
		want uint16
	}{
		{1, 0x000, 0x3000},
		{1, 0xFFF, 0x3FFF},
		{2, 0x123, 0xB123},
		{2, 0xF123, 0xB123},
	}
	for _, tc := range testCases {
		if got := MCP4922Word(tc.ch, tc.code); got != tc.want {
			t.Errorf("MCP4922Word(%d, %03X) = %04X, want %04X", tc.ch, tc.code, got, tc.want)
		}
	}

	if LUTWord(0x1ABC) != 0xBABC || LUTWord(0x0ABC) != 0x3ABC {
		t.Errorf("LUTWord: %04X %04X", LUTWord(0x1ABC), LUTWord(0x0ABC))
	}
}

func TestMCP4922Write(t *testing.T) {
	gpio := newFakeGPIO()
	bus := &fakeSPI{gpio: gpio, cs: 17}
	dac, err := NewMCP4922(bus, gpio, 17)
	if err != nil {
		t.Fatal(err)
	}
	if !gpio.level[17] {
		t.Fatal("chip select asserted after init")
	}

	if err := dac.Write(2, 0x0456); err != nil {
		t.Fatal(err)
	}
	if len(bus.frames) != 1 || bus.frames[0][0] != 0xB4 || bus.frames[0][1] != 0x56 {
		t.Errorf("frames = % X", bus.frames)
	}
	if !bus.csLow[0] {
		t.Error("transfer without chip select")
	}
	if !gpio.level[17] {
		t.Error("chip select left asserted")
	}

	if err := dac.Write(3, 0); !errors.Is(err, ErrRange) {
		t.Errorf("channel 3: err = %v, want ErrRange", err)
	}
}

func TestGainPins(t *testing.T) {
	gpio := newFakeGPIO()
	g := &GainPins{GPIO: gpio, Pins: [MaxChannels][2]GPIOPin{{2, 3}, {4, 5}, {6, 7}, {8, 9}}}
	if err := g.Configure(); err != nil {
		t.Fatal(err)
	}
	if !gpio.level[2] || gpio.level[3] {
		t.Error("channel 1 not at unity after Configure")
	}

	if err := g.Set(3, GainDouble); err != nil {
		t.Fatal(err)
	}
	if gpio.level[6] || !gpio.level[7] {
		t.Error("channel 3 lines do not encode 2x")
	}
	if err := g.Set(5, GainUnity); !errors.Is(err, ErrRange) {
		t.Errorf("channel 5: err = %v, want ErrRange", err)
	}
}
