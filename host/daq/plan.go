package daq

import (
	"fmt"

	"godaq/core"
)

// Output modes of an acquisition
const (
	ModeASCII  = "ascii"
	ModeBinary = "binary"
)

// Plan is the acquisition setup pushed to the instrument before a run
type Plan struct {
	SamplePeriodUs uint32 `yaml:"sample_period_us" json:"sample_period_us"`
	Averaging      uint16 `yaml:"averaging" json:"averaging"`
	Repeat         uint32 `yaml:"repeat" json:"repeat"`
	Sequence       []int  `yaml:"sequence" json:"sequence"`
	Gains          []int  `yaml:"gains" json:"gains"`
	LowResolution  bool   `yaml:"low_resolution" json:"low_resolution"`
	BlockSize      uint32 `yaml:"block_size" json:"block_size"`
	Mode           string `yaml:"mode" json:"mode"`
}

// DefaultPlan matches the instrument's power-up settings
func DefaultPlan() Plan {
	return Plan{
		SamplePeriodUs: core.SafeSamplePeriodUs,
		Averaging:      1,
		Repeat:         0,
		Sequence:       []int{1},
		Gains:          []int{1, 1, 1, 1},
		BlockSize:      1,
		Mode:           ModeASCII,
	}
}

// Validate checks what can be checked without the instrument
func (p Plan) Validate() error {
	if p.SamplePeriodUs < core.MinSamplePeriodUs || p.SamplePeriodUs > core.MaxSamplePeriodUs {
		return fmt.Errorf("sample period %d out of range %d..%d uS", p.SamplePeriodUs, core.MinSamplePeriodUs, core.MaxSamplePeriodUs)
	}
	if p.Averaging < core.MinAveraging || p.Averaging > core.MaxAveraging {
		return fmt.Errorf("averaging %d out of range %d..%d", p.Averaging, core.MinAveraging, core.MaxAveraging)
	}
	if p.Repeat > core.MaxRepeat {
		return fmt.Errorf("repeat %d out of range 0..%d", p.Repeat, core.MaxRepeat)
	}
	if len(p.Sequence) == 0 || len(p.Sequence) > core.MaxChannels {
		return fmt.Errorf("sequence needs 1..%d channels, got %d", core.MaxChannels, len(p.Sequence))
	}
	var seen [core.MaxChannels + 1]bool
	for _, ch := range p.Sequence {
		if ch < 1 || ch > core.MaxChannels {
			return fmt.Errorf("sequence channel %d out of range 1..%d", ch, core.MaxChannels)
		}
		if seen[ch] {
			return fmt.Errorf("channel %d appears twice in the sequence", ch)
		}
		seen[ch] = true
	}
	if len(p.Gains) > core.MaxChannels {
		return fmt.Errorf("%d gains for %d channels", len(p.Gains), core.MaxChannels)
	}
	for i, g := range p.Gains {
		if g < 0 || g > 2 {
			return fmt.Errorf("channel %d gain %d out of range 0..2", i+1, g)
		}
	}
	if p.BlockSize < 1 || p.BlockSize > core.MaxBlockSize {
		return fmt.Errorf("block size %d out of range 1..%d", p.BlockSize, core.MaxBlockSize)
	}
	if p.Mode != ModeASCII && p.Mode != ModeBinary {
		return fmt.Errorf("unknown mode %q", p.Mode)
	}
	return nil
}

// Words is the number of samples in one binary block. With averaging
// the instrument sends one value per channel.
func (p Plan) Words() int {
	if p.Averaging > 1 {
		return len(p.Sequence)
	}
	return len(p.Sequence) * int(p.BlockSize)
}
