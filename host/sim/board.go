package sim

import (
	"sync/atomic"

	"github.com/chewxy/math32"

	"godaq/core"
	"godaq/protocol"
)

// Both triggers count microseconds on a 32-bit compare
var timerSpec = core.TimerSpec{Sources: []uint32{1000000}, Width: 32}

// Input wiring of the simulated front end: channels 1 and 2 loop back the
// DAC outputs, channel 3 sees a 100 Hz sine of 5 V amplitude, channel 4
// is grounded.
const (
	sineAmplitudeMV = 5000
	sinePeriodUs    = 10000
)

var gainFactor = [...]float32{core.GainHalf: 0.5, core.GainUnity: 1, core.GainDouble: 2}

// adc implements core.ADC
type adc struct {
	seq     []uint8
	gains   [core.MaxChannels]core.Gain
	running bool
	dac     *dac
}

func (a *adc) DisableAllChannels() { a.seq = a.seq[:0] }

func (a *adc) EnableChannel(ch uint8) error {
	if ch < 1 || ch > core.MaxChannels {
		return &core.RangeError{Field: "ADC channel", Value: int64(ch), Min: 1, Max: core.MaxChannels}
	}
	a.seq = append(a.seq, ch)
	return nil
}

func (a *adc) SetGain(ch uint8, g core.Gain) error {
	if ch < 1 || ch > core.MaxChannels {
		return &core.RangeError{Field: "ADC channel", Value: int64(ch), Min: 1, Max: core.MaxChannels}
	}
	a.gains[ch-1] = g
	return nil
}

// SetLowResolution implements core.ADC; the simulated converter has no
// reduced mode
func (a *adc) SetLowResolution(on bool) error {
	if on {
		return core.ErrUnsupported
	}
	return nil
}

func (a *adc) LowResolutionSupported() bool { return false }
func (a *adc) Start()                       { a.running = true }
func (a *adc) Stop()                        { a.running = false }

// input returns the voltage at channel ch at time now
func (a *adc) input(ch uint8, now uint64) float32 {
	switch ch {
	case 1, 2:
		return float32(a.dac.level(ch))
	case 3:
		phase := float32(now%sinePeriodUs) / sinePeriodUs
		return sineAmplitudeMV * math32.Sin(2*math32.Pi*phase)
	}
	return 0
}

// convert samples channel ch through its gain stage
func (a *adc) convert(ch uint8, now uint64) uint16 {
	mv := a.input(ch, now) * gainFactor[a.gains[ch-1]]
	switch {
	case mv > core.MaxDACmV:
		mv = core.MaxDACmV
	case mv < core.MinDACmV:
		mv = core.MinDACmV
	}
	return protocol.MillivoltsToCode(int32(mv))
}

// rxDMA implements core.RxDMA as a two-descriptor chain
type rxDMA struct {
	cur, next []uint16
	pos       int
	enabled   bool
}

func (d *rxDMA) Arm(cur, next []uint16) {
	d.cur, d.next = cur, next
	d.pos = 0
}

func (d *rxDMA) Queue(next []uint16) { d.next = next }
func (d *rxDMA) Enable()             { d.enabled = true }
func (d *rxDMA) Disable()            { d.enabled = false }

// put stores one conversion. It returns true when the active region is
// full, after tagging it and chaining to the next descriptor.
func (d *rxDMA) put(w uint16, n int) bool {
	if !d.enabled || d.cur == nil {
		return false
	}
	d.cur[d.pos] = w
	d.pos++
	if d.pos < len(d.cur) {
		return false
	}
	for i := range d.cur {
		d.cur[i] = d.cur[i]&core.ADCCodeMask | uint16(i%n)<<core.ADCTagShift
	}
	d.cur, d.next = d.next, nil
	d.pos = 0
	return true
}

// txDMA implements core.TxDMA
type txDMA struct {
	cur, next []uint16
	pos       int
	enabled   bool
}

func (d *txDMA) Arm(cur, next []uint16) {
	d.cur, d.next = cur, next
	d.pos = 0
	d.enabled = true
}

func (d *txDMA) Queue(next []uint16) { d.next = next }
func (d *txDMA) Disable()            { d.enabled = false }

// pop returns the next LUT word and whether that word ended a pass
func (d *txDMA) pop() (entry uint16, ok, done bool) {
	if !d.enabled || len(d.cur) == 0 {
		return 0, false, false
	}
	entry = d.cur[d.pos]
	d.pos++
	if d.pos < len(d.cur) {
		return entry, true, false
	}
	d.cur, d.next = d.next, nil
	d.pos = 0
	return entry, true, true
}

// dac implements core.DAC. Levels are read by the host side too.
type dac struct {
	mv [core.DACChannels]int32 // atomic
}

func (d *dac) Write(ch uint8, code uint16) error {
	if ch < 1 || ch > core.DACChannels {
		return &core.RangeError{Field: "DAC channel", Value: int64(ch), Min: 1, Max: core.DACChannels}
	}
	atomic.StoreInt32(&d.mv[ch-1], protocol.CodeToMillivolts(code&core.LUTCodeMask))
	return nil
}

func (d *dac) level(ch uint8) int32 {
	return atomic.LoadInt32(&d.mv[ch-1])
}

// writeEntry routes a LUT word to its output
func (d *dac) writeEntry(entry uint16) {
	ch := uint8(1)
	if entry&core.LUTChannelBit != 0 {
		ch = 2
	}
	_ = d.Write(ch, entry&core.LUTCodeMask)
}

// timer implements core.TriggerTimer against the simulation clock. A new
// program applies from the next trigger on.
type timer struct {
	prog    core.TimerProgram
	running bool
	next    uint64
	clock   func() uint64
}

func (t *timer) Program(p core.TimerProgram) { t.prog = p }

func (t *timer) Start() {
	t.running = true
	t.next = t.clock() + t.period()
}

func (t *timer) Stop() { t.running = false }

func (t *timer) period() uint64 {
	us := timerSpec.PeriodNs(t.prog) / 1000
	if us == 0 {
		us = 1
	}
	return us
}

// fire advances the compare by one period
func (t *timer) fire() {
	t.next += t.period()
}
