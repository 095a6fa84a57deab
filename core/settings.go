package core

import "godaq/protocol"

// Capacities of the static buffers.
const (
	MaxChannels  = 4
	MaxBlockSize = 1024
	LUTCapacity  = 2048
	DACChannels  = 2

	// SampleRegionCapacity holds one block of every channel.
	SampleRegionCapacity = MaxChannels * MaxBlockSize
)

// Sample word layout. The converter fills the low bits, the upper nibble
// carries the channel tag.
const (
	ADCCodeMask   = 0x0FFF
	ADCLowResMask = 0x03FF
	ADCTagMask    = 0xF000
	ADCTagShift   = 12

	// LUTChannelBit routes a LUT word to the second DAC output.
	LUTChannelBit = 0x1000
	LUTCodeMask   = 0x0FFF
	LUTValueMax   = 0x1FFF
)

// SafeSamplePeriodUs is the period forced after an overrun.
const SafeSamplePeriodUs = 10000

// OutputMode selects how completed blocks are rendered.
type OutputMode uint8

const (
	ModeASCII OutputMode = iota
	ModeBinary
)

// Settings is the single shared configuration record. It is owned by the
// Controller and only changed through its setters.
type Settings struct {
	SamplePeriodUs   uint32
	RepeatCount      uint16
	AveragingCount   uint16
	ChannelSequence  [MaxChannels]uint8
	ADCGain          [MaxChannels]Gain
	ADCLowResolution bool
	OutputMode       OutputMode
	BlockSize        uint32
	SyncMarker       [2]byte
	DACValue         [DACChannels]int16

	LUT            [LUTCapacity]uint16
	LUTLength      uint16
	LUTRepeatLimit uint16
	LUTRepeatsDone uint16

	ChannelPeriodUs uint16

	Channel Channel
}

// DefaultSettings returns the power-up configuration.
func DefaultSettings() Settings {
	s := Settings{
		SamplePeriodUs:  SafeSamplePeriodUs,
		AveragingCount:  1,
		ChannelSequence: [MaxChannels]uint8{1, 0, 0, 0},
		ADCGain:         [MaxChannels]Gain{GainUnity, GainUnity, GainUnity, GainUnity},
		OutputMode:      ModeASCII,
		BlockSize:       1,
		LUTLength:       1,
		ChannelPeriodUs: 1000,
	}
	s.SyncMarker = protocol.SyncMarker(s.BlockSize)
	return s
}

// EnabledCount returns how many sequence entries precede the first 0.
func EnabledCount(seq *[MaxChannels]uint8) int {
	for i, ch := range seq {
		if ch == 0 {
			return i
		}
	}
	return MaxChannels
}

// AcqConfig is the channel-group configuration applied as one unit.
type AcqConfig struct {
	Sequence      [MaxChannels]uint8
	Gain          [MaxChannels]Gain
	LowResolution bool
	BlockSize     uint32
	RepeatCount   uint16
}

func (s *Settings) acqConfig() AcqConfig {
	return AcqConfig{
		Sequence:      s.ChannelSequence,
		Gain:          s.ADCGain,
		LowResolution: s.ADCLowResolution,
		BlockSize:     s.BlockSize,
		RepeatCount:   s.RepeatCount,
	}
}
