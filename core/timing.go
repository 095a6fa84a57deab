package core

// Period bounds accepted by the timing controller.
const (
	MinSamplePeriodUs   = 1
	MaxSamplePeriodUs   = 1000000
	MinWaveformPeriodUs = 1
	MaxWaveformPeriodUs = 65535
)

// TimerSpec describes a periodic counter: the clock rate in Hz behind
// each selectable prescaler, smallest divisor first, and the width of
// its reload register in bits.
type TimerSpec struct {
	Sources []uint32
	Width   uint8
}

// TimerProgram is one divisor/reload pair.
type TimerProgram struct {
	Source uint8  // index into TimerSpec.Sources
	Reload uint32 // counts per trigger, >= 1
}

// PeriodNs returns the programmed period in nanoseconds.
func (s TimerSpec) PeriodNs(p TimerProgram) uint64 {
	if int(p.Source) >= len(s.Sources) {
		return 0
	}
	return uint64(p.Reload) * 1000000000 / uint64(s.Sources[p.Source])
}

func (s TimerSpec) maxReload() uint64 {
	if s.Width >= 32 {
		return 0xFFFFFFFF
	}
	return uint64(1)<<s.Width - 1
}

// ComputeTimerProgram returns the first source whose rounded reload value
// for a period of us microseconds fits the register.
func ComputeTimerProgram(spec TimerSpec, us uint32) (TimerProgram, bool) {
	max := spec.maxReload()
	for i, hz := range spec.Sources {
		reload := (uint64(us)*uint64(hz) + 500000) / 1000000
		if reload >= 1 && reload <= max {
			return TimerProgram{Source: uint8(i), Reload: uint32(reload)}, true
		}
	}
	return TimerProgram{}, false
}

// TimingController programs the acquisition trigger and the waveform
// output trigger. The two are independent.
type TimingController struct {
	acq     TriggerTimer
	acqSpec TimerSpec
	acqProg TimerProgram

	wave     TriggerTimer
	waveSpec TimerSpec
	waveProg TimerProgram
}

// NewTimingController binds the two trigger timers.
func NewTimingController(acq TriggerTimer, acqSpec TimerSpec, wave TriggerTimer, waveSpec TimerSpec) *TimingController {
	return &TimingController{
		acq:      acq,
		acqSpec:  acqSpec,
		wave:     wave,
		waveSpec: waveSpec,
	}
}

// SetAcquisitionPeriod programs the sample trigger for a period of us.
func (t *TimingController) SetAcquisitionPeriod(us uint32) error {
	if err := checkRange("sample period", int64(us), MinSamplePeriodUs, MaxSamplePeriodUs); err != nil {
		return err
	}
	p, ok := ComputeTimerProgram(t.acqSpec, us)
	if !ok {
		return &RangeError{Field: "sample period", Value: int64(us), Min: MinSamplePeriodUs, Max: MaxSamplePeriodUs}
	}
	t.acqProg = p
	t.acq.Program(p)
	return nil
}

// SetWaveformPeriod programs the LUT advance trigger for a period of us.
func (t *TimingController) SetWaveformPeriod(us uint16) error {
	if err := checkRange("waveform period", int64(us), MinWaveformPeriodUs, MaxWaveformPeriodUs); err != nil {
		return err
	}
	p, ok := ComputeTimerProgram(t.waveSpec, uint32(us))
	if !ok {
		return &RangeError{Field: "waveform period", Value: int64(us), Min: MinWaveformPeriodUs, Max: MaxWaveformPeriodUs}
	}
	t.waveProg = p
	t.wave.Program(p)
	return nil
}

// AcquisitionPeriodNs returns the programmed sample trigger period.
func (t *TimingController) AcquisitionPeriodNs() uint64 { return t.acqSpec.PeriodNs(t.acqProg) }

// WaveformPeriodNs returns the programmed LUT advance period.
func (t *TimingController) WaveformPeriodNs() uint64 { return t.waveSpec.PeriodNs(t.waveProg) }
