package core

import "godaq/protocol"

func putUint(out *protocol.ScratchOutput, v uint64) {
	var tmp [20]byte
	out.Output(appendUint(tmp[:0], v))
}

func putInt(out *protocol.ScratchOutput, v int64) {
	var tmp [21]byte
	out.Output(appendInt(tmp[:0], v))
}

func endLine(out *protocol.ScratchOutput) {
	out.OutputString(protocol.LineEnd)
}

// registerCommands installs the command set on e's registry.
func (e *Engine) registerCommands() {
	r := e.registry
	c := e.ctrl

	r.Register('S', "start acquisition, ASCII output", 0, "", func(_ *protocol.Line, out *protocol.ScratchOutput) error {
		if err := c.StartAcquisition(ModeASCII); err != nil {
			return err
		}
		out.OutputString("Acquisition started in ASCII")
		endLine(out)
		return nil
	})

	r.Register('s', "start acquisition, binary output", 0, "", func(_ *protocol.Line, out *protocol.ScratchOutput) error {
		if err := c.StartAcquisition(ModeBinary); err != nil {
			return err
		}
		out.OutputString("Acquisition started in binary")
		endLine(out)
		return nil
	})

	r.Register('T', "stop acquisition", 0, "", func(_ *protocol.Line, out *protocol.ScratchOutput) error {
		c.StopAcquisition()
		out.OutputString("Acquisition stopped")
		endLine(out)
		return nil
	})

	r.Register('R', "sample period", 1, "us", func(l *protocol.Line, out *protocol.ScratchOutput) error {
		if err := c.SetSamplePeriod(l.Params[0]); err != nil {
			return err
		}
		out.OutputString("Sample period set to ")
		putUint(out, uint64(c.settings.SamplePeriodUs))
		out.OutputString(" uS")
		endLine(out)
		return nil
	})

	r.Register('A', "averaging count", 1, "n", func(l *protocol.Line, out *protocol.ScratchOutput) error {
		if err := c.SetAveragingCount(l.Params[0]); err != nil {
			return err
		}
		out.OutputString("DAQ will attempt to take ")
		putUint(out, uint64(c.settings.AveragingCount))
		out.OutputString(" samples per channel")
		endLine(out)
		return nil
	})

	r.Register('F', "repeat count, 0 = unbounded", 1, "n", func(l *protocol.Line, out *protocol.ScratchOutput) error {
		if err := c.SetRepeatCount(l.Params[0]); err != nil {
			return err
		}
		out.OutputString("DAQ will sample all enabled channels ")
		putUint(out, uint64(c.settings.RepeatCount))
		out.OutputString(" times")
		endLine(out)
		return nil
	})

	r.Register('E', "channel sequence, 0 ends the scan", MaxChannels, "c1,c2,c3,c4", func(l *protocol.Line, out *protocol.ScratchOutput) error {
		if err := c.SetChannelSequence(l.Params); err != nil {
			return err
		}
		out.OutputString("Sequence set to: ")
		for i, ch := range c.settings.ChannelSequence {
			if i > 0 {
				out.OutputString(", ")
			}
			putUint(out, uint64(ch))
		}
		endLine(out)
		return nil
	})

	r.Register('G', "ADC gain, 0 = 0.5x 1 = 1x 2 = 2x", 2, "ch,gain", func(l *protocol.Line, out *protocol.ScratchOutput) error {
		if err := c.SetADCGain(l.Params[0], l.Params[1]); err != nil {
			return err
		}
		out.OutputString("ADC channel ")
		putUint(out, uint64(l.Params[0]))
		out.OutputString(" gain set to ")
		out.OutputString(c.settings.ADCGain[l.Params[0]-1].String())
		endLine(out)
		return nil
	})

	r.Register('H', "low ADC resolution", 1, "0|1", func(l *protocol.Line, out *protocol.ScratchOutput) error {
		if err := checkRange("resolution flag", int64(l.Params[0]), 0, 1); err != nil {
			return rejected(err)
		}
		if err := c.SetADCLowResolution(l.Params[0] == 1); err != nil {
			return err
		}
		out.OutputString("ADC resolution set to ")
		if c.settings.ADCLowResolution {
			out.OutputString("10")
		} else {
			out.OutputString("12")
		}
		out.OutputString(" bits")
		endLine(out)
		return nil
	})

	r.Register('B', "block size in scans", 1, "n", func(l *protocol.Line, out *protocol.ScratchOutput) error {
		if err := c.SetBlockSize(l.Params[0]); err != nil {
			return err
		}
		out.OutputString("Block size set to ")
		putUint(out, uint64(c.settings.BlockSize))
		endLine(out)
		return nil
	})

	r.Register('D', "static DAC output", 2, "ch,mV", func(l *protocol.Line, out *protocol.ScratchOutput) error {
		if err := c.SetDACValue(l.Params[0], l.Params[1]); err != nil {
			return err
		}
		out.OutputString("DAC channel ")
		putUint(out, uint64(l.Params[0]))
		out.OutputString(" set to ")
		putInt(out, int64(c.settings.DACValue[l.Params[0]-1]))
		out.OutputString(" mV")
		endLine(out)
		return nil
	})

	r.Register('L', "LUT entry, bit 12 selects DAC 2", 2, "idx,value", func(l *protocol.Line, out *protocol.ScratchOutput) error {
		if err := c.SetLUTEntry(l.Params[0], l.Params[1]); err != nil {
			return err
		}
		out.OutputString("LUT[")
		putUint(out, uint64(l.Params[0]))
		out.OutputString("] set to ")
		putUint(out, uint64(c.settings.LUT[l.Params[0]]))
		endLine(out)
		return nil
	})

	r.Register('N', "LUT length", 1, "n", func(l *protocol.Line, out *protocol.ScratchOutput) error {
		if err := c.SetLUTLength(l.Params[0]); err != nil {
			return err
		}
		out.OutputString("LUT length set to ")
		putUint(out, uint64(c.settings.LUTLength))
		endLine(out)
		return nil
	})

	r.Register('K', "LUT repeat limit, 0 = unbounded", 1, "k", func(l *protocol.Line, out *protocol.ScratchOutput) error {
		if err := c.SetLUTRepeatLimit(l.Params[0]); err != nil {
			return err
		}
		out.OutputString("LUT repeat limit set to ")
		putUint(out, uint64(c.settings.LUTRepeatLimit))
		endLine(out)
		return nil
	})

	r.Register('P', "waveform sample period", 1, "us", func(l *protocol.Line, out *protocol.ScratchOutput) error {
		if err := c.SetWaveformPeriod(l.Params[0]); err != nil {
			return err
		}
		out.OutputString("Waveform period set to ")
		putUint(out, uint64(c.settings.ChannelPeriodUs))
		out.OutputString(" uS")
		endLine(out)
		return nil
	})

	r.Register('W', "start waveform", 0, "", func(_ *protocol.Line, out *protocol.ScratchOutput) error {
		if err := c.StartWaveform(); err != nil {
			return err
		}
		out.OutputString("Waveform started")
		endLine(out)
		return nil
	})

	r.Register('X', "stop waveform", 0, "", func(_ *protocol.Line, out *protocol.ScratchOutput) error {
		c.StopWaveform()
		out.OutputString("Waveform stopped")
		endLine(out)
		return nil
	})

	r.Register('I', "status", 0, "", func(_ *protocol.Line, out *protocol.ScratchOutput) error {
		e.writeStatus(out)
		return nil
	})

	r.Register('?', "list commands", 0, "", func(_ *protocol.Line, out *protocol.ScratchOutput) error {
		out.OutputString(r.Help())
		return nil
	})
}

// writeStatus renders the 'I' report.
func (e *Engine) writeStatus(out *protocol.ScratchOutput) {
	s := &e.settings

	out.OutputString("ACQ ")
	out.OutputString(e.acq.State().String())
	out.OutputString(" blocks=")
	putUint(out, uint64(e.acq.Blocks()))
	out.OutputString(" overruns=")
	putUint(out, uint64(e.acq.Overruns()))
	endLine(out)

	out.OutputString("WAVE ")
	out.OutputString(e.wave.State().String())
	out.OutputString(" passes=")
	putUint(out, uint64(s.LUTRepeatsDone))
	out.OutputString(" length=")
	putUint(out, uint64(s.LUTLength))
	out.OutputString(" period=")
	putUint(out, e.timing.WaveformPeriodNs())
	out.OutputString(" ns")
	endLine(out)

	out.OutputString("PERIOD ")
	putUint(out, uint64(s.SamplePeriodUs))
	out.OutputString(" uS AVG ")
	putUint(out, uint64(s.AveragingCount))
	out.OutputString(" REPEAT ")
	putUint(out, uint64(s.RepeatCount))
	out.OutputString(" BLOCK ")
	putUint(out, uint64(s.BlockSize))
	out.OutputString(" TRIG ")
	putUint(out, e.timing.AcquisitionPeriodNs())
	out.OutputString(" ns")
	endLine(out)
}
