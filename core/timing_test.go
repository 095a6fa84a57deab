package core

import (
	"errors"
	"testing"
)

func TestComputeTimerProgram(t *testing.T) {
	specs := []TimerSpec{testAcqSpec, testWaveSpec}
	periods := []uint32{1, 2, 7, 100, 999, 1000, 10000, 65535}

	for _, spec := range specs {
		for _, us := range periods {
			p, ok := ComputeTimerProgram(spec, us)
			if !ok {
				t.Errorf("%v: no program for %d us", spec.Sources, us)
				continue
			}
			if p.Reload < 1 || uint64(p.Reload) > spec.maxReload() {
				t.Errorf("%d us: reload %d outside register", us, p.Reload)
			}

			// The programmed period is within half a source tick of the request
			hz := uint64(spec.Sources[p.Source])
			want := uint64(us) * 1000
			got := spec.PeriodNs(p)
			diff := got - want
			if got < want {
				diff = want - got
			}
			if tol := 1000000000/(2*hz) + 2; diff > tol {
				t.Errorf("%d us: period %d ns, off by %d ns (tolerance %d)", us, got, diff, tol)
			}
		}
	}
}

func TestComputeTimerProgramPrefersFinestSource(t *testing.T) {
	p, ok := ComputeTimerProgram(testWaveSpec, 100)
	if !ok {
		t.Fatal("no program for 100 us")
	}
	if p.Source != 0 || p.Reload != 12500 {
		t.Errorf("got source %d reload %d, want source 0 reload 12500", p.Source, p.Reload)
	}

	// 1000 us needs 125000 counts at full rate, which does not fit 16 bits
	p, ok = ComputeTimerProgram(testWaveSpec, 1000)
	if !ok {
		t.Fatal("no program for 1000 us")
	}
	if p.Source != 1 {
		t.Errorf("got source %d, want 1", p.Source)
	}
}

func TestComputeTimerProgramNoFit(t *testing.T) {
	spec := TimerSpec{Sources: []uint32{1000000}, Width: 8}
	if _, ok := ComputeTimerProgram(spec, 1000); ok {
		t.Error("1000 counts should not fit an 8-bit reload")
	}
}

func TestTimingControllerRejects(t *testing.T) {
	acq, wave := &fakeTimer{}, &fakeTimer{}
	tc := NewTimingController(acq, testAcqSpec, wave, testWaveSpec)

	if err := tc.SetAcquisitionPeriod(100); err != nil {
		t.Fatalf("SetAcquisitionPeriod(100) failed: %v", err)
	}
	if acq.prog.Reload != 100 || tc.AcquisitionPeriodNs() != 100000 {
		t.Errorf("reload = %d, want 100", acq.prog.Reload)
	}

	for _, us := range []uint32{0, MaxSamplePeriodUs + 1} {
		err := tc.SetAcquisitionPeriod(us)
		if !errors.Is(err, ErrRange) {
			t.Errorf("SetAcquisitionPeriod(%d) err = %v, want ErrRange", us, err)
		}
	}
	if acq.programs != 1 {
		t.Errorf("timer reprogrammed by a rejected period: %d programs", acq.programs)
	}
	if err := tc.SetWaveformPeriod(0); !errors.Is(err, ErrRange) {
		t.Errorf("SetWaveformPeriod(0) err = %v, want ErrRange", err)
	}
	if wave.programs != 0 {
		t.Errorf("waveform timer programmed by a rejected period")
	}
}
