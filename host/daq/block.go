package daq

import (
	"godaq/core"
	"godaq/protocol"
)

// Sample is one decoded converter reading
type Sample struct {
	Channel    int
	Code       uint16
	Millivolts int32
}

// Block is one decoded binary block in scan order
type Block struct {
	Seq     uint64
	Samples []Sample
}

// Decode turns raw sample words into readings. The tag of each word is
// its position in sequence.
func Decode(words []uint16, sequence []int, lowResolution bool) []Sample {
	out := make([]Sample, len(words))
	for i, w := range words {
		tag := int(protocol.SampleTag(w))
		ch := 0
		if tag < len(sequence) {
			ch = sequence[tag]
		}
		code := protocol.SampleCode(w)
		if lowResolution {
			code = (code & core.ADCLowResMask) << 2
		}
		out[i] = Sample{
			Channel:    ch,
			Code:       code,
			Millivolts: protocol.CodeToMillivolts(code),
		}
	}
	return out
}

// Reading is one line of an ASCII block
type Reading struct {
	Channel    int
	Millivolts int32
}
