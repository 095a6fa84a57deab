//go:build rp2040

package main

import (
	"device/rp"
	"machine"
	"unsafe"

	"godaq/core"
)

// rpADC implements core.ADC on the RP2040 SAR converter. Inputs 1..4 are
// ADC0..ADC3 (GPIO26..29). The converter has no gain stage, so gain is
// set through external amplifier select lines.
//
// Each trigger converts the scan in sequence order with START_ONCE; the
// FIFO raises the DMA request for every result.
type rpADC struct {
	gain  *core.GainPins
	seq   [core.MaxChannels]uint32 // AINSEL per scan position
	n     int
	armed bool
}

var adcPins = [core.MaxChannels]machine.Pin{machine.ADC0, machine.ADC1, machine.ADC2, machine.ADC3}

func newRPADC(gain *core.GainPins) (*rpADC, error) {
	machine.InitADC()
	for _, pin := range adcPins {
		adc := machine.ADC{Pin: pin}
		if err := adc.Configure(machine.ADCConfig{}); err != nil {
			return nil, err
		}
	}
	if err := gain.Configure(); err != nil {
		return nil, err
	}

	// FIFO on, DREQ at one sample, no error bit, no 8-bit shift
	rp.ADC.FCS.Set(rp.ADC_FCS_EN | 1<<rp.ADC_FCS_THRESH_Pos)
	return &rpADC{gain: gain}, nil
}

// rpADCFifoAddr is the DMA read address of the result FIFO
func rpADCFifoAddr() uint32 {
	return uint32(uintptr(unsafe.Pointer(&rp.ADC.FIFO)))
}

func (a *rpADC) enabled() int { return a.n }

// DisableAllChannels implements core.ADC
func (a *rpADC) DisableAllChannels() {
	a.n = 0
}

// EnableChannel appends ch to the scan
func (a *rpADC) EnableChannel(ch uint8) error {
	if ch < 1 || ch > core.MaxChannels {
		return &core.RangeError{Field: "ADC channel", Value: int64(ch), Min: 1, Max: core.MaxChannels}
	}
	if a.n >= core.MaxChannels {
		return core.ErrUnsupported
	}
	a.seq[a.n] = uint32(ch - 1)
	a.n++
	return nil
}

// SetGain implements core.ADC
func (a *rpADC) SetGain(ch uint8, g core.Gain) error {
	return a.gain.Set(ch, g)
}

// SetLowResolution implements core.ADC. The FIFO can only shift to 8 bits.
func (a *rpADC) SetLowResolution(on bool) error {
	if on {
		return core.ErrUnsupported
	}
	return nil
}

// LowResolutionSupported implements core.ADC
func (a *rpADC) LowResolutionSupported() bool { return false }

// Start drains stale results and enables the DMA request
func (a *rpADC) Start() {
	for rp.ADC.FCS.Get()&rp.ADC_FCS_LEVEL_Msk != 0 {
		rp.ADC.FIFO.Get()
	}
	rp.ADC.FCS.SetBits(rp.ADC_FCS_DREQ_EN)
	a.armed = true
}

// Stop disables the DMA request
func (a *rpADC) Stop() {
	a.armed = false
	rp.ADC.FCS.ClearBits(rp.ADC_FCS_DREQ_EN)
}

// scan converts every enabled input once, in sequence order. It runs from
// the trigger interrupt; each conversion takes 96 ADC clocks (2us).
func (a *rpADC) scan() {
	if !a.armed {
		return
	}
	for i := 0; i < a.n; i++ {
		for !rp.ADC.CS.HasBits(rp.ADC_CS_READY) {
		}
		rp.ADC.CS.ReplaceBits(a.seq[i]<<rp.ADC_CS_AINSEL_Pos, rp.ADC_CS_AINSEL_Msk, 0)
		rp.ADC.CS.SetBits(rp.ADC_CS_START_ONCE)
	}
}
