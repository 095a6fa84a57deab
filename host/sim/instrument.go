// Package sim runs the instrument firmware engine on the host behind an
// in-memory serial port, with simulated converters and triggers.
package sim

import (
	"errors"
	"io"
	"sync"
	"time"

	"godaq/core"
	"godaq/host/log"
	"godaq/protocol"
)

const (
	inputCapacity  = 4096
	outputCapacity = 64 * 1024

	// idlePoll bounds how long the run loop sleeps with no trigger due
	idlePoll = 10 * time.Millisecond
)

var errInputFull = errors.New("input queue full")

// link is the byte channel between the host and the engine. The host
// side blocks on reads; the engine side never blocks.
type link struct {
	mu      sync.Mutex
	cond    *sync.Cond
	in      *protocol.FifoBuffer
	out     *protocol.FifoBuffer
	closed  bool
	dropped uint32
	wake    chan struct{}
}

func newLink() *link {
	l := &link{
		in:   protocol.NewFifoBuffer(inputCapacity),
		out:  protocol.NewFifoBuffer(outputCapacity),
		wake: make(chan struct{}, 1),
	}
	l.cond = sync.NewCond(&l.mu)
	return l
}

func (l *link) notify() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Available implements core.Channel
func (l *link) Available() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.in.Available()
}

// ReadByte implements core.Channel
func (l *link) ReadByte() (byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.in.GetByte()
	if !ok {
		return 0, io.EOF
	}
	return b, nil
}

// WriteByte implements core.Channel
func (l *link) WriteByte(b byte) error {
	_, err := l.Write([]byte{b})
	return err
}

// Write implements core.Channel. Bytes that do not fit are dropped.
func (l *link) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := l.out.Write(p)
	if n < len(p) {
		l.dropped++
	}
	if n > 0 {
		l.cond.Broadcast()
	}
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

func (l *link) outputEmpty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.out.IsEmpty()
}

// Instrument is a simulated board running the firmware engine. It
// implements the host's serial port interface.
type Instrument struct {
	engine *core.Engine
	link   *link

	adc   *adc
	rx    *rxDMA
	tx    *txDMA
	dac   *dac
	acqT  *timer
	waveT *timer

	start time.Time
	stop  chan struct{}
	done  chan struct{}
	once  sync.Once
}

// New powers up a simulated instrument and starts its run loop
func New() (*Instrument, error) {
	in := &Instrument{
		link:  newLink(),
		dac:   &dac{},
		rx:    &rxDMA{},
		tx:    &txDMA{},
		start: time.Now(),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	in.adc = &adc{dac: in.dac}
	in.acqT = &timer{clock: in.now}
	in.waveT = &timer{clock: in.now}

	in.engine = core.NewEngine(core.Board{
		ADC:           in.adc,
		RxDMA:         in.rx,
		TxDMA:         in.tx,
		AcqTimer:      in.acqT,
		WaveTimer:     in.waveT,
		DAC:           in.dac,
		Channel:       in.link,
		AcqTimerSpec:  timerSpec,
		WaveTimerSpec: timerSpec,
	})
	if err := in.engine.Init(); err != nil {
		return nil, err
	}

	core.SetDebugWriter(func(msg string) { log.Debug("sim: %s", msg) })
	core.SetDebugEnabled(log.Level() >= log.DebugLevel)

	go in.run()
	log.Debug("simulated instrument started")
	return in, nil
}

// now is the simulation clock in microseconds
func (in *Instrument) now() uint64 {
	return uint64(time.Since(in.start) / time.Microsecond)
}

// Read implements io.Reader for the host
func (in *Instrument) Read(p []byte) (int, error) {
	l := in.link
	l.mu.Lock()
	defer l.mu.Unlock()
	for l.out.IsEmpty() && !l.closed {
		l.cond.Wait()
	}
	if l.closed {
		return 0, io.EOF
	}
	n := l.out.Read(p)
	if l.out.IsEmpty() {
		l.notify()
	}
	return n, nil
}

// Write implements io.Writer for the host
func (in *Instrument) Write(p []byte) (int, error) {
	l := in.link
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return 0, io.ErrClosedPipe
	}
	n := l.in.Write(p)
	l.mu.Unlock()
	l.notify()
	if n < len(p) {
		return n, errInputFull
	}
	return n, nil
}

// Flush is a no-op
func (in *Instrument) Flush() error { return nil }

// Close stops the run loop and wakes blocked readers
func (in *Instrument) Close() error {
	in.once.Do(func() {
		close(in.stop)
		<-in.done

		in.link.mu.Lock()
		in.link.closed = true
		in.link.cond.Broadcast()
		in.link.mu.Unlock()
	})
	return nil
}

// DACLevel returns the last level written to DAC output ch in millivolts
func (in *Instrument) DACLevel(ch int) int32 {
	return in.dac.level(uint8(ch))
}

// Dropped returns the number of writes the output queue truncated
func (in *Instrument) Dropped() uint32 {
	in.link.mu.Lock()
	defer in.link.mu.Unlock()
	return in.link.dropped
}

// run stands in for the interrupt controller: every engine handler is
// called from this goroutine only.
func (in *Instrument) run() {
	defer close(in.done)

	for {
		select {
		case <-in.stop:
			return
		default:
		}
		core.SetTime(uint32(in.now()))

		if in.link.Available() > 0 {
			in.engine.HandleIRQ(core.SourceRxReady)
		}
		if in.link.outputEmpty() {
			in.engine.HandleIRQ(core.SourceTxEmpty)
		}

		t, due := in.nextTrigger()
		wait := idlePoll
		if t != nil {
			now := in.now()
			if due <= now {
				in.fire(t)
				continue
			}
			if d := time.Duration(due-now) * time.Microsecond; d < wait {
				wait = d
			}
		}

		select {
		case <-in.stop:
			return
		case <-in.link.wake:
		case <-time.After(wait):
		}
	}
}

// nextTrigger returns the running timer that is due first
func (in *Instrument) nextTrigger() (*timer, uint64) {
	var first *timer
	for _, t := range []*timer{in.acqT, in.waveT} {
		if t.running && (first == nil || t.next < first.next) {
			first = t
		}
	}
	if first == nil {
		return nil, 0
	}
	return first, first.next
}

func (in *Instrument) fire(t *timer) {
	now := t.next
	t.fire()

	if t == in.acqT {
		in.engine.HandleIRQ(core.SourceAcqTrigger)
		in.scan(now)
		return
	}

	entry, ok, done := in.tx.pop()
	if ok {
		in.dac.writeEntry(entry)
	}
	if done {
		in.engine.HandleIRQ(core.SourceWaveTx)
	}
}

// scan converts every enabled channel once in sequence order
func (in *Instrument) scan(now uint64) {
	if !in.adc.running {
		return
	}
	n := len(in.adc.seq)
	for _, ch := range in.adc.seq {
		if in.rx.put(in.adc.convert(ch, now), n) {
			in.engine.HandleIRQ(core.SourceAcqBlock)
		}
	}
}
