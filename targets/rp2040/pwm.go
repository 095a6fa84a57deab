//go:build rp2040

package main

import (
	"device/rp"

	"godaq/core"
)

// sysClockHz is the PWM input clock
const sysClockHz = 125000000

// waveSlice is the PWM slice whose wrap paces the LUT transmit DMA. Its
// outputs are not routed to any pin.
const waveSlice = 0

// pwmDividers are the integer dividers offered to the timing controller,
// smallest first
var pwmDividers = [...]uint32{1, 16, 250}

// waveTimerSpec: TOP is 16 bits, one period is TOP+1 counts
var waveTimerSpec = core.TimerSpec{
	Sources: []uint32{
		sysClockHz / pwmDividers[0],
		sysClockHz / pwmDividers[1],
		sysClockHz / pwmDividers[2],
	},
	Width: 16,
}

// pwmTimer implements core.TriggerTimer on a PWM slice. TOP is latched by
// the hardware at the wrap, so a new program takes effect on the next
// cycle.
type pwmTimer struct {
	prog core.TimerProgram
}

// Program implements core.TriggerTimer
func (t *pwmTimer) Program(p core.TimerProgram) {
	t.prog = p
	top := p.Reload
	if top > 0 {
		top--
	}
	rp.PWM.CH0_DIV.Set(pwmDividers[p.Source] << rp.PWM_CH0_DIV_INT_Pos)
	rp.PWM.CH0_TOP.Set(top)
}

// Start implements core.TriggerTimer
func (t *pwmTimer) Start() {
	rp.PWM.CH0_CTR.Set(0)
	rp.PWM.CH0_CSR.SetBits(rp.PWM_CH0_CSR_EN)
}

// Stop implements core.TriggerTimer
func (t *pwmTimer) Stop() {
	rp.PWM.CH0_CSR.ClearBits(rp.PWM_CH0_CSR_EN)
}
