package core

import (
	"strings"
	"testing"

	"godaq/protocol"
)

func TestCommandResponses(t *testing.T) {
	e, r := newTestEngine(t)

	testCases := []struct {
		line string
		want string
	}{
		{"R100\r", "Sample period set to 100 uS\n\r"},
		{"A10\r", "DAQ will attempt to take 10 samples per channel\n\r"},
		{"F5\r", "DAQ will sample all enabled channels 5 times\n\r"},
		{"E1,0,3,4\r", "Sequence set to: 1, 0, 3, 4\n\r"},
		{"G2,0\r", "ADC channel 2 gain set to 0.5x\n\r"},
		{"G3,2\r", "ADC channel 3 gain set to 2x\n\r"},
		{"H0\r", "ADC resolution set to 12 bits\n\r"},
		{"B40\r", "Block size set to 40\n\r"},
		{"D1,-2500\r", "DAC channel 1 set to -2500 mV\n\r"},
		{"L7,4660\r", "LUT[7] set to 4660\n\r"},
		{"N128\r", "LUT length set to 128\n\r"},
		{"K3\r", "LUT repeat limit set to 3\n\r"},
		{"P250\r", "Waveform period set to 250 uS\n\r"},
		{"W\r", "Waveform started\n\r"},
		{"X\r", "Waveform stopped\n\r"},
		{"S\r", "Acquisition started in ASCII\n\r"},
		{"T\r", "Acquisition stopped\n\r"},
	}

	for _, tc := range testCases {
		if got := send(e, r, tc.line); got != tc.want {
			t.Errorf("%q: got %q, want %q", tc.line, got, tc.want)
		}
	}
}

func TestCommandErrors(t *testing.T) {
	e, r := newTestEngine(t)

	testCases := []struct {
		line string
		want string
	}{
		{"G5,1\r", SettingErrorMessage},
		{"R0\r", SettingErrorMessage},
		{"A1001\r", SettingErrorMessage},
		{"D3,0\r", SettingErrorMessage},
		{"H1\r", SettingErrorMessage},
		{"H2\r", SettingErrorMessage},
		{"Q\r", SyntaxErrorMessage},
		{"R1,2\r", SyntaxErrorMessage},
		{"R\r", SyntaxErrorMessage},
		{"E1,2,3,4,1\r", SyntaxErrorMessage},
		{"R12345678\r", SyntaxErrorMessage},
	}

	for _, tc := range testCases {
		if got := send(e, r, tc.line); got != tc.want {
			t.Errorf("%q: got %q, want %q", tc.line, got, tc.want)
		}
	}

	// Settings survive every rejected line
	s := e.Controller().Settings()
	if s.SamplePeriodUs != SafeSamplePeriodUs || s.AveragingCount != 1 || s.ADCLowResolution {
		t.Errorf("settings changed by rejected commands: %+v", s)
	}
}

func TestSeveralLinesInOneRead(t *testing.T) {
	e, r := newTestEngine(t)
	got := send(e, r, "R200\rB4\r\nA2\r")
	want := "Sample period set to 200 uS\n\r" +
		"Block size set to 4\n\r" +
		"DAQ will attempt to take 2 samples per channel\n\r"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLineSplitAcrossReads(t *testing.T) {
	e, r := newTestEngine(t)
	if got := send(e, r, "R3"); got != "" {
		t.Errorf("partial line answered: %q", got)
	}
	if got := send(e, r, "00\r"); got != "Sample period set to 300 uS\n\r" {
		t.Errorf("got %q", got)
	}
}

func TestStatusReport(t *testing.T) {
	e, r := newTestEngine(t)
	send(e, r, "R250\r")
	got := send(e, r, "I\r")

	lines := strings.Split(strings.TrimSuffix(got, protocol.LineEnd), protocol.LineEnd)
	if len(lines) != 3 {
		t.Fatalf("status has %d lines: %q", len(lines), got)
	}
	if lines[0] != "ACQ armed blocks=0 overruns=0" {
		t.Errorf("line 1 = %q", lines[0])
	}
	if lines[1] != "WAVE stopped passes=0 length=1 period=1000064 ns" {
		t.Errorf("line 2 = %q", lines[1])
	}
	if lines[2] != "PERIOD 250 uS AVG 1 REPEAT 0 BLOCK 1 TRIG 250000 ns" {
		t.Errorf("line 3 = %q", lines[2])
	}
}

func TestHelpListsEveryCommand(t *testing.T) {
	e, r := newTestEngine(t)
	got := send(e, r, "?\r")

	for _, letter := range "SsTRAFEGHBDLNKPWXI?" {
		found := false
		for _, line := range strings.Split(got, protocol.LineEnd) {
			if strings.HasPrefix(line, string(letter)) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("command %q missing from help", letter)
		}
	}
	if e.Registry().Count() != 19 {
		t.Errorf("Count = %d, want 19", e.Registry().Count())
	}
}

func TestWaveformThroughEngine(t *testing.T) {
	e, r := newTestEngine(t)
	send(e, r, "N4\r")
	send(e, r, "K2\r")
	send(e, r, "P10\r")
	send(e, r, "W\r")

	if !r.waveT.running {
		t.Fatal("waveform trigger not running")
	}
	if r.waveT.prog.Reload != 1250 {
		t.Errorf("reload = %d, want 1250", r.waveT.prog.Reload)
	}

	e.HandleIRQ(SourceWaveTx)
	e.HandleIRQ(SourceWaveTx)
	if e.Waveform().State() != WaveStopped {
		t.Error("waveform still running after two passes")
	}
	if e.Controller().Settings().LUTRepeatsDone != 2 {
		t.Errorf("LUTRepeatsDone = %d", e.Controller().Settings().LUTRepeatsDone)
	}
}

func TestRegistryDuplicate(t *testing.T) {
	reg := NewCommandRegistry()
	h := func(*protocol.Line, *protocol.ScratchOutput) error { return nil }
	if err := reg.Register('Z', "zero", 0, "", h); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register('Z', "again", 0, "", h); err != ErrDuplicateCommand {
		t.Errorf("err = %v, want ErrDuplicateCommand", err)
	}
	if !strings.Contains(reg.Help(), "Z zero") {
		t.Errorf("help = %q", reg.Help())
	}
	if _, ok := reg.GetCommand('Y'); ok {
		t.Error("unregistered letter found")
	}
}

func TestSetterAfterRepeatCountKeepsFinalBlock(t *testing.T) {
	e, r := newTestEngine(t)
	send(e, r, "F1\r")
	send(e, r, "B2\r")
	send(e, r, "s\r")

	e.HandleIRQ(SourceAcqTrigger)
	e.HandleIRQ(SourceAcqTrigger)
	if e.Acquisition().State() != AcqStopped {
		t.Fatalf("state = %v after the repeat count", e.Acquisition().State())
	}
	if resp := send(e, r, "B4\r"); resp != "Block size set to 4\n\r" {
		t.Fatalf("B4 response %q", resp)
	}

	r.rx.fill(func(i int) uint16 { return uint16(i) })
	e.HandleIRQ(SourceAcqBlock)
	e.HandleIRQ(SourceTxEmpty)

	marker := protocol.SyncMarker(2)
	want := string(protocol.AppendBlock(nil, marker, []uint16{0, 1}))
	if got := r.ch.take(); got != want {
		t.Errorf("final block % X, want % X", got, want)
	}
	if e.Acquisition().State() != AcqStopped {
		t.Errorf("state = %v, want stopped", e.Acquisition().State())
	}
	if got := e.Acquisition().Config().BlockSize; got != 4 {
		t.Errorf("applied block size = %d after the final block, want 4", got)
	}

	send(e, r, "B8\r")
	s := e.Controller().Settings()
	if got := e.Acquisition().Config().BlockSize; got != 8 || s.BlockSize != 8 {
		t.Errorf("applied block size = %d settings = %d, want 8", got, s.BlockSize)
	}
}

func TestEmptySequenceProducesNothing(t *testing.T) {
	e, r := newTestEngine(t)
	if resp := send(e, r, "E0,0,0,0\r"); resp != "Sequence set to: 0, 0, 0, 0\n\r" {
		t.Fatalf("E response %q", resp)
	}
	send(e, r, "F3\r")
	send(e, r, "B2\r")
	send(e, r, "s\r")

	for i := 0; i < 6; i++ {
		e.HandleIRQ(SourceAcqTrigger)
		e.HandleIRQ(SourceTxEmpty)
	}
	if e.Acquisition().Enabled() != 0 {
		t.Errorf("Enabled = %d, want 0", e.Acquisition().Enabled())
	}
	if e.Acquisition().State() != AcqStopped || r.acqT.running {
		t.Errorf("state = %v trigger running = %v", e.Acquisition().State(), r.acqT.running)
	}
	if got := r.ch.take(); got != "" {
		t.Errorf("empty scan wrote %q", got)
	}
}
