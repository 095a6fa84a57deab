package core

import "godaq/protocol"

// FormatResult reports what one transmit-empty pass produced.
type FormatResult uint8

const (
	FormatUnavailable FormatResult = iota // nothing pending
	FormatBinary
	FormatASCII
)

// Formatter renders completed blocks onto the channel. It runs from the
// transmit-empty event and is the only consumer of the ready region.
type Formatter struct {
	acq      *Acquisition
	settings *Settings
	ch       Channel
	out      protocol.ScratchOutput
	rendered uint32
}

// NewFormatter binds the formatter to the acquisition pipeline.
func NewFormatter(acq *Acquisition, s *Settings, ch Channel) *Formatter {
	return &Formatter{acq: acq, settings: s, ch: ch}
}

// Rendered returns the number of blocks written since power-up.
func (f *Formatter) Rendered() uint32 { return f.rendered }

// groupSize is the number of scans folded into one reported value.
func groupSize(averaging uint16, blockSize uint32) int {
	g := int(averaging)
	if g < 1 {
		g = 1
	}
	if uint32(g) > blockSize {
		g = int(blockSize)
	}
	return g
}

// OnTransmitEmpty renders the ready block, if any, and releases it.
func (f *Formatter) OnTransmitEmpty() FormatResult {
	buf := f.acq.Buffer()
	region, ok := buf.Acquire()
	if !ok {
		return FormatUnavailable
	}
	defer f.acq.Release()

	cfg := f.acq.Config()
	n := f.acq.Enabled()
	avg := groupSize(f.settings.AveragingCount, cfg.BlockSize)
	f.rendered++

	if f.settings.OutputMode == ModeBinary {
		f.writeBinary(region, n, avg, cfg.BlockSize)
		return FormatBinary
	}
	f.writeASCII(region, cfg.Sequence[:n], avg, cfg.LowResolution)
	return FormatASCII
}

// AverageGroups replaces the first sample of every group of avg scans with
// the truncated mean of the group, keeping its tag bits.
func AverageGroups(region []uint16, n, avg int) {
	if n == 0 || avg <= 1 {
		return
	}
	scans := len(region) / n
	for g := 0; g+avg <= scans; g += avg {
		for ch := 0; ch < n; ch++ {
			var sum uint32
			for k := 0; k < avg; k++ {
				sum += uint32(region[(g+k)*n+ch] & ADCCodeMask)
			}
			head := &region[g*n+ch]
			*head = (*head & ADCTagMask) | uint16(sum/uint32(avg))
		}
	}
}

func (f *Formatter) writeBinary(region []uint16, n, avg int, blockSize uint32) {
	out := region
	if f.settings.AveragingCount > 1 {
		AverageGroups(region, n, avg)
		out = region[:n]
	}

	f.out.Reset()
	marker := protocol.SyncMarker(blockSize)
	f.out.Output(marker[:])
	for len(out) > 0 {
		w := protocol.PutSamples(f.out.Free(), out)
		f.out.Advance(2 * w)
		out = out[w:]
		if len(out) > 0 {
			f.flush()
		}
	}
	f.flush()
}

func (f *Formatter) writeASCII(region []uint16, seq []uint8, avg int, lowRes bool) {
	n := len(seq)
	f.out.Reset()
	for i, chNum := range seq {
		var sum uint32
		for k := 0; k < avg; k++ {
			sum += uint32(region[k*n+i] & ADCCodeMask)
		}
		code := uint16(sum / uint32(avg))
		if lowRes {
			code = (code & ADCLowResMask) << 2
		} else {
			code &= ADCCodeMask
		}
		line := f.out.Free()[:0]
		line = append(line, "CH"...)
		line = appendUint(line, uint64(chNum))
		line = append(line, " = "...)
		line = appendInt(line, int64(protocol.CodeToMillivolts(code)))
		line = append(line, " mV"+protocol.LineEnd...)
		f.out.Advance(len(line))
	}
	f.out.OutputString(protocol.LineEnd)
	f.flush()
}

func (f *Formatter) flush() {
	if res := f.out.Result(); len(res) > 0 && f.ch != nil {
		f.ch.Write(res)
	}
	f.out.Reset()
}
