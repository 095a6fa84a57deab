package daq

import (
	"fmt"

	"github.com/chewxy/math32"

	"godaq/core"
	"godaq/protocol"
)

// Shape selects the synthesized waveform
type Shape string

const (
	Sine     Shape = "sine"
	Triangle Shape = "triangle"
	Square   Shape = "square"
	Sawtooth Shape = "sawtooth"
)

// Waveform describes one period of a generated signal
type Waveform struct {
	Shape       Shape  `yaml:"shape"`
	Length      int    `yaml:"length"`
	AmplitudeMV int32  `yaml:"amplitude_mv"`
	OffsetMV    int32  `yaml:"offset_mv"`
	Channel     int    `yaml:"channel"`
	PeriodUs    uint32 `yaml:"period_us"`
	Repeat      uint32 `yaml:"repeat"`
}

// Synthesize renders one period as LUT entries for w.Channel
func (w Waveform) Synthesize() ([]uint16, error) {
	if w.Length < 1 || w.Length > core.LUTCapacity {
		return nil, fmt.Errorf("length %d out of range 1..%d", w.Length, core.LUTCapacity)
	}
	if w.Channel < 1 || w.Channel > core.DACChannels {
		return nil, fmt.Errorf("DAC channel %d out of range 1..%d", w.Channel, core.DACChannels)
	}

	var chBit uint16
	if w.Channel == 2 {
		chBit = core.LUTChannelBit
	}

	n := float32(w.Length)
	lut := make([]uint16, w.Length)
	for i := range lut {
		phase := float32(i) / n
		var v float32
		switch w.Shape {
		case Sine:
			v = math32.Sin(2 * math32.Pi * phase)
		case Triangle:
			v = 1 - 4*math32.Abs(phase-0.5)
		case Square:
			v = 1
			if phase >= 0.5 {
				v = -1
			}
		case Sawtooth:
			v = 2*phase - 1
		default:
			return nil, fmt.Errorf("unknown shape %q", w.Shape)
		}
		mv := int32(math32.Floor(float32(w.OffsetMV)+v*float32(w.AmplitudeMV)+0.5))
		lut[i] = protocol.MillivoltsToCode(clampMV(mv)) | chBit
	}
	return lut, nil
}

func clampMV(mv int32) int32 {
	if mv > core.MaxDACmV {
		return core.MaxDACmV
	}
	if mv < core.MinDACmV {
		return core.MinDACmV
	}
	return mv
}
