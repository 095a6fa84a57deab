package core

import (
	"errors"
	"testing"
)

func TestSetterBounds(t *testing.T) {
	e, _ := newTestEngine(t)
	c := e.Controller()

	testCases := []struct {
		name     string
		set      func(v int32) error
		min, max int32
	}{
		{"sample period", c.SetSamplePeriod, 1, 1000000},
		{"averaging", c.SetAveragingCount, 1, 1000},
		{"repeat", c.SetRepeatCount, 0, 1000},
		{"block size", c.SetBlockSize, 1, 1024},
		{"LUT length", c.SetLUTLength, 1, 2048},
		{"LUT repeat", c.SetLUTRepeatLimit, 0, 65535},
		{"waveform period", c.SetWaveformPeriod, 1, 65535},
		{"DAC mV", func(v int32) error { return c.SetDACValue(1, v) }, -10000, 10000},
		{"DAC channel", func(v int32) error { return c.SetDACValue(v, 0) }, 1, 2},
		{"gain channel", func(v int32) error { return c.SetADCGain(v, 1) }, 1, 4},
		{"gain code", func(v int32) error { return c.SetADCGain(1, v) }, 0, 2},
		{"LUT index", func(v int32) error { return c.SetLUTEntry(v, 0) }, 0, 2047},
		{"LUT value", func(v int32) error { return c.SetLUTEntry(0, v) }, 0, 0x1FFF},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for _, v := range []int32{tc.min, tc.max} {
				if err := tc.set(v); err != nil {
					t.Errorf("%d rejected: %v", v, err)
				}
			}
			for _, v := range []int32{tc.min - 1, tc.max + 1} {
				if err := tc.set(v); !errors.Is(err, ErrRange) {
					t.Errorf("%d: err = %v, want ErrRange", v, err)
				}
			}
		})
	}
}

func TestRejectedGainLeavesHardware(t *testing.T) {
	e, r := newTestEngine(t)
	before := r.adc.calls
	gains := r.adc.gains

	err := e.Controller().SetADCGain(5, 1)
	var re *RangeError
	if !errors.As(err, &re) || re.Field != "ADC channel" {
		t.Fatalf("err = %v, want a RangeError on the channel", err)
	}
	if r.adc.calls != before || r.adc.gains != gains {
		t.Error("rejected gain touched the converter")
	}
	if e.Controller().Settings().ADCGain != gains {
		t.Error("rejected gain changed the settings")
	}
}

func TestConfigureIsAllOrNothing(t *testing.T) {
	e, r := newTestEngine(t)
	c := e.Controller()
	before := *c.Settings()
	calls := r.adc.calls

	err := c.Configure([MaxChannels]int32{1, 2, 3, 4}, [MaxChannels]int32{0, 1, 2, 3}, false, 10)
	if !errors.Is(err, ErrRange) {
		t.Fatalf("err = %v, want ErrRange", err)
	}
	if c.Settings().ChannelSequence != before.ChannelSequence || c.Settings().BlockSize != before.BlockSize {
		t.Error("partial configuration applied")
	}
	if r.adc.calls != calls {
		t.Error("converter touched by a rejected configuration")
	}

	if err := c.Configure([MaxChannels]int32{4, 3, 0, 0}, [MaxChannels]int32{0, 1, 2, 1}, false, 10); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	if r.adc.gains != [MaxChannels]Gain{GainHalf, GainUnity, GainDouble, GainUnity} {
		t.Errorf("gains = %v", r.adc.gains)
	}
	if c.Settings().BlockSize != 10 {
		t.Errorf("BlockSize = %d", c.Settings().BlockSize)
	}
}

func TestLowResolutionUnsupported(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.Controller().SetADCLowResolution(true); !errors.Is(err, ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
	if err := e.Controller().SetADCLowResolution(false); err != nil {
		t.Errorf("disabling low resolution failed: %v", err)
	}
}

func TestSetDACValue(t *testing.T) {
	e, r := newTestEngine(t)
	if err := e.Controller().SetDACValue(2, 0); err != nil {
		t.Fatal(err)
	}
	if r.dac.codes[2] != 2047 {
		t.Errorf("code = %d, want 2047", r.dac.codes[2])
	}
	if e.Controller().Settings().DACValue[1] != 0 {
		t.Errorf("DACValue = %v", e.Controller().Settings().DACValue)
	}
}

func TestSyncMarkerFollowsBlockSize(t *testing.T) {
	e, _ := newTestEngine(t)
	c := e.Controller()
	if err := c.SetBlockSize(40); err != nil {
		t.Fatal(err)
	}
	first := c.Settings().SyncMarker
	if err := c.SetBlockSize(8); err != nil {
		t.Fatal(err)
	}
	if err := c.SetBlockSize(40); err != nil {
		t.Fatal(err)
	}
	if c.Settings().SyncMarker != first {
		t.Error("marker differs for the same block size")
	}
}

func TestOverrunRecovery(t *testing.T) {
	e, r := newTestEngine(t)
	send(e, r, "R5\r")
	send(e, r, "A3\r")
	send(e, r, "F100\r")
	send(e, r, "s\r")

	r.rx.fill(func(i int) uint16 { return 1 })
	e.HandleIRQ(SourceAcqBlock)
	r.rx.fill(func(i int) uint16 { return 2 })
	e.HandleIRQ(SourceAcqBlock)

	if got := r.ch.take(); got != OverrunMessage {
		t.Errorf("diagnostic %q, want %q", got, OverrunMessage)
	}
	s := e.Controller().Settings()
	if s.SamplePeriodUs != SafeSamplePeriodUs || r.acqT.prog.Reload != SafeSamplePeriodUs {
		t.Errorf("period = %d reload = %d, want %d", s.SamplePeriodUs, r.acqT.prog.Reload, SafeSamplePeriodUs)
	}
	if s.AveragingCount != 3 || s.RepeatCount != 100 {
		t.Errorf("averaging %d repeat %d changed by recovery", s.AveragingCount, s.RepeatCount)
	}
	if e.Acquisition().State() != AcqOverrun {
		t.Errorf("state = %v, want overrun", e.Acquisition().State())
	}

	// The caller restarts explicitly
	if resp := send(e, r, "s\r"); resp != "Acquisition started in binary\n\r" {
		t.Errorf("restart response %q", resp)
	}
	if e.Acquisition().State() != AcqSampling {
		t.Errorf("state = %v after restart", e.Acquisition().State())
	}
}

func TestLUTEntryWhileRunning(t *testing.T) {
	e, r := newTestEngine(t)
	c := e.Controller()
	if err := c.SetLUTLength(4); err != nil {
		t.Fatal(err)
	}
	if err := c.StartWaveform(); err != nil {
		t.Fatal(err)
	}
	if err := c.SetLUTEntry(2, 0x1ABC); err != nil {
		t.Fatal(err)
	}
	if r.tx.cur[2] != 0x1ABC {
		t.Errorf("running pass reads %04X at index 2, want 1ABC", r.tx.cur[2])
	}
}
