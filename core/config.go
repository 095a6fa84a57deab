package core

import (
	"errors"

	"godaq/protocol"
)

// Configuration bounds. Values outside are rejected, never clamped.
const (
	MinAveraging = 1
	MaxAveraging = 1000
	MaxRepeat    = 1000
	MaxRepeatLUT = 65535
	MinDACmV     = -10000
	MaxDACmV     = 10000
)

// OverrunMessage is written to the channel when an overrun is recovered.
const OverrunMessage = protocol.ResponseOverrun + ", sample period reset to 10000 uS" + protocol.LineEnd

var overrunMessage = []byte(OverrunMessage)

// Controller is the single entry point for configuration changes. Every
// setter validates, updates Settings and pushes the change into the
// timing controller or the pipelines.
type Controller struct {
	settings *Settings
	timing   *TimingController
	acq      *Acquisition
	wave     *Waveform
	adc      ADC
	dac      DAC
	ch       Channel
}

// NewController wires the controller. Nothing is programmed until
// ApplyDefaults is called.
func NewController(s *Settings, timing *TimingController, acq *Acquisition, wave *Waveform, adc ADC, dac DAC, ch Channel) *Controller {
	return &Controller{
		settings: s,
		timing:   timing,
		acq:      acq,
		wave:     wave,
		adc:      adc,
		dac:      dac,
		ch:       ch,
	}
}

// Settings returns the record owned by the controller. Callers must not
// write to it.
func (c *Controller) Settings() *Settings { return c.settings }

// ApplyDefaults pushes the current settings into the hardware.
func (c *Controller) ApplyDefaults() error {
	s := c.settings
	if err := c.timing.SetAcquisitionPeriod(s.SamplePeriodUs); err != nil {
		return err
	}
	if err := c.timing.SetWaveformPeriod(s.ChannelPeriodUs); err != nil {
		return err
	}
	for i := range s.DACValue {
		if err := c.dac.Write(uint8(i+1), protocol.MillivoltsToCode(int32(s.DACValue[i]))); err != nil {
			return err
		}
	}
	return c.acq.Configure(s.acqConfig())
}

func rejected(err error) error {
	var re *RangeError
	if errors.As(err, &re) {
		RecordEvent(EvtRejected, 0, uint32(re.Value), uint32(re.Max))
	}
	return err
}

// SetSamplePeriod sets the acquisition trigger period in microseconds.
func (c *Controller) SetSamplePeriod(us int32) error {
	if err := checkRange("sample period", int64(us), MinSamplePeriodUs, MaxSamplePeriodUs); err != nil {
		return rejected(err)
	}
	if err := c.timing.SetAcquisitionPeriod(uint32(us)); err != nil {
		return rejected(err)
	}
	c.settings.SamplePeriodUs = uint32(us)
	return nil
}

// SetAveragingCount sets how many scans fold into one reported value.
func (c *Controller) SetAveragingCount(n int32) error {
	if err := checkRange("averaging count", int64(n), MinAveraging, MaxAveraging); err != nil {
		return rejected(err)
	}
	c.settings.AveragingCount = uint16(n)
	return nil
}

// SetRepeatCount sets the number of blocks per run, 0 for unbounded.
func (c *Controller) SetRepeatCount(n int32) error {
	if err := checkRange("repeat count", int64(n), 0, MaxRepeat); err != nil {
		return rejected(err)
	}
	cfg := c.settings.acqConfig()
	cfg.RepeatCount = uint16(n)
	return c.commitAcq(cfg)
}

// SetChannelSequence sets the scan order. A 0 entry ends the scan.
func (c *Controller) SetChannelSequence(seq [MaxChannels]int32) error {
	cfg := c.settings.acqConfig()
	for i, v := range seq {
		if err := checkRange("sequence entry", int64(v), 0, MaxChannels); err != nil {
			return rejected(err)
		}
		cfg.Sequence[i] = uint8(v)
	}
	return c.commitAcq(cfg)
}

// SetADCGain sets the gain code (0: 0.5x, 1: 1x, 2: 2x) of channel ch.
func (c *Controller) SetADCGain(ch, gain int32) error {
	if err := checkRange("ADC channel", int64(ch), 1, MaxChannels); err != nil {
		return rejected(err)
	}
	if err := checkRange("ADC gain", int64(gain), int64(GainHalf), int64(GainDouble)); err != nil {
		return rejected(err)
	}
	cfg := c.settings.acqConfig()
	cfg.Gain[ch-1] = Gain(gain)
	return c.commitAcq(cfg)
}

// SetADCLowResolution selects the reduced converter resolution.
func (c *Controller) SetADCLowResolution(on bool) error {
	if on && !c.adc.LowResolutionSupported() {
		return ErrUnsupported
	}
	cfg := c.settings.acqConfig()
	cfg.LowResolution = on
	return c.commitAcq(cfg)
}

// SetBlockSize sets the number of scans per block.
func (c *Controller) SetBlockSize(n int32) error {
	if err := checkRange("block size", int64(n), 1, MaxBlockSize); err != nil {
		return rejected(err)
	}
	cfg := c.settings.acqConfig()
	cfg.BlockSize = uint32(n)
	return c.commitAcq(cfg)
}

// SetOutputMode selects binary or ASCII rendering.
func (c *Controller) SetOutputMode(m OutputMode) error {
	if err := checkRange("output mode", int64(m), int64(ModeASCII), int64(ModeBinary)); err != nil {
		return rejected(err)
	}
	c.settings.OutputMode = m
	return nil
}

// Configure validates and applies the whole channel group at once. On a
// rejected value nothing is changed.
func (c *Controller) Configure(seq [MaxChannels]int32, gain [MaxChannels]int32, lowRes bool, blockSize int32) error {
	cfg := c.settings.acqConfig()
	for i := range seq {
		if err := checkRange("sequence entry", int64(seq[i]), 0, MaxChannels); err != nil {
			return rejected(err)
		}
		if err := checkRange("ADC gain", int64(gain[i]), int64(GainHalf), int64(GainDouble)); err != nil {
			return rejected(err)
		}
		cfg.Sequence[i] = uint8(seq[i])
		cfg.Gain[i] = Gain(gain[i])
	}
	if err := checkRange("block size", int64(blockSize), 1, MaxBlockSize); err != nil {
		return rejected(err)
	}
	if lowRes && !c.adc.LowResolutionSupported() {
		return ErrUnsupported
	}
	cfg.LowResolution = lowRes
	cfg.BlockSize = uint32(blockSize)
	return c.commitAcq(cfg)
}

// commitAcq pushes cfg into the pipeline and records it in Settings.
func (c *Controller) commitAcq(cfg AcqConfig) error {
	if err := c.acq.Configure(cfg); err != nil {
		return err
	}
	s := c.settings
	s.ChannelSequence = cfg.Sequence
	s.ADCGain = cfg.Gain
	s.ADCLowResolution = cfg.LowResolution
	s.BlockSize = cfg.BlockSize
	s.RepeatCount = cfg.RepeatCount
	s.SyncMarker = protocol.SyncMarker(cfg.BlockSize)
	return nil
}

// SetDACValue drives DAC channel ch (1..2) to mv millivolts.
func (c *Controller) SetDACValue(ch, mv int32) error {
	if err := checkRange("DAC channel", int64(ch), 1, DACChannels); err != nil {
		return rejected(err)
	}
	if err := checkRange("DAC value", int64(mv), MinDACmV, MaxDACmV); err != nil {
		return rejected(err)
	}
	if err := c.dac.Write(uint8(ch), protocol.MillivoltsToCode(mv)); err != nil {
		return err
	}
	c.settings.DACValue[ch-1] = int16(mv)
	return nil
}

// SetLUTEntry writes one LUT word in place. Legal while the waveform is
// running; the DMA emits the new value the next time it reads index.
func (c *Controller) SetLUTEntry(index, value int32) error {
	if err := checkRange("LUT index", int64(index), 0, LUTCapacity-1); err != nil {
		return rejected(err)
	}
	if err := checkRange("LUT value", int64(value), 0, LUTValueMax); err != nil {
		return rejected(err)
	}
	c.settings.LUT[index] = uint16(value)
	return nil
}

// SetLUTLength sets the number of LUT words per pass. It takes effect at
// the next pass boundary.
func (c *Controller) SetLUTLength(n int32) error {
	if err := checkRange("LUT length", int64(n), 1, LUTCapacity); err != nil {
		return rejected(err)
	}
	state := enterCritical()
	c.settings.LUTLength = uint16(n)
	exitCritical(state)
	return nil
}

// SetLUTRepeatLimit sets the number of passes, 0 for unbounded.
func (c *Controller) SetLUTRepeatLimit(k int32) error {
	if err := checkRange("LUT repeat limit", int64(k), 0, MaxRepeatLUT); err != nil {
		return rejected(err)
	}
	state := enterCritical()
	c.settings.LUTRepeatLimit = uint16(k)
	exitCritical(state)
	return nil
}

// SetWaveformPeriod sets the LUT advance period in microseconds.
func (c *Controller) SetWaveformPeriod(us int32) error {
	if err := checkRange("waveform period", int64(us), MinWaveformPeriodUs, MaxWaveformPeriodUs); err != nil {
		return rejected(err)
	}
	if err := c.timing.SetWaveformPeriod(uint16(us)); err != nil {
		return rejected(err)
	}
	c.settings.ChannelPeriodUs = uint16(us)
	return nil
}

// StartAcquisition re-applies the channel group and starts sampling in
// the given output mode.
func (c *Controller) StartAcquisition(mode OutputMode) error {
	if err := c.SetOutputMode(mode); err != nil {
		return err
	}
	c.acq.Stop()
	if err := c.acq.Configure(c.settings.acqConfig()); err != nil {
		return err
	}
	if err := c.timing.SetAcquisitionPeriod(c.settings.SamplePeriodUs); err != nil {
		return err
	}
	c.acq.Start()
	return nil
}

// StopAcquisition stops sampling immediately.
func (c *Controller) StopAcquisition() {
	c.acq.Stop()
}

// StartWaveform restarts LUT playback from index 0.
func (c *Controller) StartWaveform() error {
	c.wave.Stop()
	if err := c.timing.SetWaveformPeriod(c.settings.ChannelPeriodUs); err != nil {
		return err
	}
	c.wave.Start()
	return nil
}

// StopWaveform stops LUT playback immediately.
func (c *Controller) StopWaveform() {
	c.wave.Stop()
}

// recoverOverrun forces the safe period after the acquisition pipeline
// stopped on an overrun. Averaging and repeat count are kept.
func (c *Controller) recoverOverrun() {
	c.settings.SamplePeriodUs = SafeSamplePeriodUs
	_ = c.timing.SetAcquisitionPeriod(SafeSamplePeriodUs)
	if c.ch != nil {
		c.ch.Write(overrunMessage)
	}
	DebugAsync("[ACQ] overrun, sample period reset")
}
