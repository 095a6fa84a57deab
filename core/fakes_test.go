package core

import "io"

type fakeADC struct {
	enabled  []uint8
	gains    [MaxChannels]Gain
	lowRes   bool
	lowResOK bool
	running  bool
	calls    int
	fail     error // returned by EnableChannel when set
}

func (f *fakeADC) DisableAllChannels() {
	f.enabled = f.enabled[:0]
	f.calls++
}

func (f *fakeADC) EnableChannel(ch uint8) error {
	if f.fail != nil {
		return f.fail
	}
	f.enabled = append(f.enabled, ch)
	f.calls++
	return nil
}

func (f *fakeADC) SetGain(ch uint8, g Gain) error {
	f.gains[ch-1] = g
	f.calls++
	return nil
}

func (f *fakeADC) SetLowResolution(on bool) error {
	if on && !f.lowResOK {
		return ErrUnsupported
	}
	f.lowRes = on
	f.calls++
	return nil
}

func (f *fakeADC) LowResolutionSupported() bool { return f.lowResOK }
func (f *fakeADC) Start()                       { f.running = true }
func (f *fakeADC) Stop()                        { f.running = false }

// fakeRxDMA models a two-descriptor chain: cur is being filled, next
// starts when cur completes.
type fakeRxDMA struct {
	cur, next []uint16
	enabled   bool
	arms      int
	queues    int
}

func (f *fakeRxDMA) Arm(cur, next []uint16) {
	f.cur, f.next = cur, next
	f.arms++
}

func (f *fakeRxDMA) Queue(next []uint16) {
	f.next = next
	f.queues++
}

func (f *fakeRxDMA) Enable()  { f.enabled = true }
func (f *fakeRxDMA) Disable() { f.enabled = false }

// fill writes value(i) into every word of the active target and chains
// to the next descriptor. It returns the filled slice.
func (f *fakeRxDMA) fill(value func(i int) uint16) []uint16 {
	filled := f.cur
	for i := range filled {
		filled[i] = value(i)
	}
	f.cur, f.next = f.next, nil
	return filled
}

type fakeTxDMA struct {
	cur, next []uint16
	disabled  bool
	queues    int
	queued    [][]uint16
}

func (f *fakeTxDMA) Arm(cur, next []uint16) {
	f.cur, f.next = cur, next
	f.disabled = false
}

func (f *fakeTxDMA) Queue(next []uint16) {
	f.next = next
	f.queues++
	f.queued = append(f.queued, next)
}

func (f *fakeTxDMA) Disable() { f.disabled = true }

type fakeTimer struct {
	prog     TimerProgram
	programs int
	running  bool
}

func (f *fakeTimer) Program(p TimerProgram) {
	f.prog = p
	f.programs++
}

func (f *fakeTimer) Start() { f.running = true }
func (f *fakeTimer) Stop()  { f.running = false }

type fakeDAC struct {
	codes  [DACChannels + 1]uint16
	writes int
}

func (f *fakeDAC) Write(ch uint8, code uint16) error {
	f.codes[ch] = code
	f.writes++
	return nil
}

type fakeChannel struct {
	rx []byte
	tx []byte
}

func (f *fakeChannel) Available() int { return len(f.rx) }

func (f *fakeChannel) ReadByte() (byte, error) {
	if len(f.rx) == 0 {
		return 0, io.EOF
	}
	b := f.rx[0]
	f.rx = f.rx[1:]
	return b, nil
}

func (f *fakeChannel) WriteByte(b byte) error {
	f.tx = append(f.tx, b)
	return nil
}

func (f *fakeChannel) Write(p []byte) (int, error) {
	f.tx = append(f.tx, p...)
	return len(p), nil
}

// take returns everything written so far and clears it.
func (f *fakeChannel) take() string {
	s := string(f.tx)
	f.tx = f.tx[:0]
	return s
}

var (
	testAcqSpec  = TimerSpec{Sources: []uint32{1000000}, Width: 32}
	testWaveSpec = TimerSpec{Sources: []uint32{125000000, 125000000 / 16, 125000000 / 256}, Width: 16}
)

type testRig struct {
	adc   *fakeADC
	rx    *fakeRxDMA
	tx    *fakeTxDMA
	acqT  *fakeTimer
	waveT *fakeTimer
	dac   *fakeDAC
	ch    *fakeChannel
	board Board
}

func newRig() *testRig {
	r := &testRig{
		adc:   &fakeADC{},
		rx:    &fakeRxDMA{},
		tx:    &fakeTxDMA{},
		acqT:  &fakeTimer{},
		waveT: &fakeTimer{},
		dac:   &fakeDAC{},
		ch:    &fakeChannel{},
	}
	r.board = Board{
		ADC:           r.adc,
		RxDMA:         r.rx,
		TxDMA:         r.tx,
		AcqTimer:      r.acqT,
		WaveTimer:     r.waveT,
		DAC:           r.dac,
		Channel:       r.ch,
		AcqTimerSpec:  testAcqSpec,
		WaveTimerSpec: testWaveSpec,
	}
	return r
}

func newTestEngine(t interface{ Fatalf(string, ...any) }) (*Engine, *testRig) {
	r := newRig()
	e := NewEngine(r.board)
	if err := e.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return e, r
}

// send feeds a command line to the engine and returns its response.
func send(e *Engine, r *testRig, line string) string {
	r.ch.rx = append(r.ch.rx, line...)
	e.HandleIRQ(SourceRxReady)
	return r.ch.take()
}
