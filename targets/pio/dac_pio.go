//go:build rp2040

package pio

// PIO DAC streamer using tinygo-org/pio package
// Clocks LUT words out to an MCP4922 without CPU involvement

import (
	"errors"
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// Input word format (one 16-bit DMA write, replicated into both halves):
//
//	Bits 0-11: DAC code
//	Bit 12:    output select (0 = A, 1 = B)
//
// The program shifts left from bit 15 of the upper half, discards three
// bits, sends bit 12 as A/B, inserts BUF=0 GA=1 SHDN=1, then the 12 code
// bits. Side-set bit 0 is CS, bit 1 is SCK. CS rises at the next pull,
// which latches the output (LDAC tied low).
func buildDACProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 2}
	return []uint16{
		// .wrap_target
		asm.Pull(false, true).Side(0b01).Encode(),            // 0: pull block     side cs
		asm.Out(rp2pio.OutDestNull, 3).Side(0b00).Encode(),   // 1: out null, 3    side 0
		asm.Out(rp2pio.OutDestPins, 1).Side(0b00).Encode(),   // 2: out pins, 1    side 0 (A/B)
		asm.Nop().Side(0b10).Encode(),                        // 3: nop            side sck
		asm.Set(rp2pio.SetDestPins, 0).Side(0b00).Encode(),   // 4: set pins, 0    side 0 (BUF)
		asm.Nop().Side(0b10).Encode(),                        // 5: nop            side sck
		asm.Set(rp2pio.SetDestPins, 1).Side(0b00).Encode(),   // 6: set pins, 1    side 0 (GA)
		asm.Nop().Side(0b10).Encode(),                        // 7: nop            side sck
		asm.Set(rp2pio.SetDestPins, 1).Side(0b00).Encode(),   // 8: set pins, 1    side 0 (SHDN)
		asm.Set(rp2pio.SetDestX, 11).Side(0b10).Encode(),     // 9: set x, 11      side sck
		// bit_loop:
		asm.Out(rp2pio.OutDestPins, 1).Side(0b00).Encode(),   // 10: out pins, 1   side 0
		asm.Jmp(10, rp2pio.JmpXNZeroDec).Side(0b10).Encode(), // 11: jmp x--, 10   side sck
		// .wrap
	}
}

const dacPIOOrigin = 0 // Load at offset 0 for correct jump addresses

// dacClkDiv gives 31.25MHz at 125MHz system clock, two PIO cycles per
// SCK period.
const dacClkDiv = 4

var errPinOrder = errors.New("SCK must be the pin after CS")

// DACStreamer feeds LUT words from its TX FIFO to the DAC. The pins belong
// to the state machine only between Attach and Detach.
type DACStreamer struct {
	pio    *rp2pio.PIO
	sm     rp2pio.StateMachine
	offset uint8
	cs     machine.Pin
	sck    machine.Pin
	mosi   machine.Pin
}

// NewDACStreamer creates a streamer on the given PIO block and state machine
func NewDACStreamer(pioNum, smNum uint8) *DACStreamer {
	var pioHW *rp2pio.PIO
	if pioNum == 0 {
		pioHW = rp2pio.PIO0
	} else {
		pioHW = rp2pio.PIO1
	}
	return &DACStreamer{
		pio: pioHW,
		sm:  pioHW.StateMachine(smNum),
	}
}

// Init loads the program and configures the state machine. The pins are
// left alone until Attach.
func (s *DACStreamer) Init(cs, sck, mosi machine.Pin) error {
	if sck != cs+1 {
		return errPinOrder
	}
	s.cs, s.sck, s.mosi = cs, sck, mosi

	s.sm.TryClaim()

	program := buildDACProgram()
	offset, err := s.pio.AddProgram(program, dacPIOOrigin)
	if err != nil {
		return err
	}
	s.offset = offset

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSidesetParams(2, false, false)
	cfg.SetSidesetPins(cs)
	cfg.SetOutPins(mosi, 1)
	cfg.SetSetPins(mosi, 1)

	// Shift left, no autopull, 32-bit threshold
	cfg.SetOutShift(false, false, 32)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)
	cfg.SetClkDivIntFrac(dacClkDiv, 0)

	s.sm.Init(offset, cfg)
	return nil
}

// StateMachine returns the state machine whose TX FIFO the DMA feeds
func (s *DACStreamer) StateMachine() rp2pio.StateMachine {
	return s.sm
}

// Attach hands the pins to the state machine and starts it
func (s *DACStreamer) Attach() {
	mode := machine.PinConfig{Mode: s.pio.PinMode()}
	s.cs.Configure(mode)
	s.sck.Configure(mode)
	s.mosi.Configure(mode)

	s.sm.SetPindirsConsecutive(s.cs, 2, true)
	s.sm.SetPindirsConsecutive(s.mosi, 1, true)
	s.sm.SetPinsConsecutive(s.cs, 1, true) // CS idle high

	s.sm.ClearFIFOs()
	s.sm.Restart()
	s.sm.SetEnabled(true)
}

// Detach stops the state machine. The caller reconfigures the pins for
// their SPI function.
func (s *DACStreamer) Detach() {
	s.sm.SetEnabled(false)
	s.sm.ClearFIFOs()
	s.sm.Restart()
}
