package core

import "sync/atomic"

// WaveState is the waveform pipeline state.
type WaveState uint32

const (
	WaveStopped WaveState = iota
	WaveRunning
)

func (s WaveState) String() string {
	if s == WaveRunning {
		return "running"
	}
	return "stopped"
}

// WaveEvent is the outcome of a transmit-complete interrupt.
type WaveEvent uint8

const (
	WaveRepeat    WaveEvent = iota // another pass is playing
	WaveExhausted                  // repeat limit reached, output stopped
	WaveIgnored                    // completion after Stop
)

// Waveform replays Settings.LUT through the DAC by DMA.
//
// The LUT is single-buffered. An entry written while running is picked
// up the next time the DMA reads that index. Length and repeat limit are
// latched at each pass boundary.
type Waveform struct {
	dma      TxDMA
	timer    TriggerTimer
	settings *Settings

	state  uint32 // WaveState, atomic
	length uint16
	limit  uint16
	armed  uint32 // passes handed to the DMA since Start
	passes uint32 // completed passes since power-up
}

// NewWaveform creates a stopped pipeline over s.
func NewWaveform(dma TxDMA, timer TriggerTimer, s *Settings) *Waveform {
	return &Waveform{dma: dma, timer: timer, settings: s}
}

// State returns the current state.
func (w *Waveform) State() WaveState {
	return WaveState(atomic.LoadUint32(&w.state))
}

func (w *Waveform) lut() []uint16 {
	return w.settings.LUT[:w.length]
}

// Start arms the LUT and enables the output trigger.
func (w *Waveform) Start() {
	s := w.settings
	w.length = s.LUTLength
	w.limit = s.LUTRepeatLimit
	s.LUTRepeatsDone = 0

	w.armed = 1
	var next []uint16
	if w.limit != 1 {
		next = w.lut()
		w.armed = 2
	}
	w.dma.Arm(w.lut(), next)
	atomic.StoreUint32(&w.state, uint32(WaveRunning))
	w.timer.Start()
}

// Stop disables the output trigger without waiting for the pass to end.
func (w *Waveform) Stop() {
	atomic.StoreUint32(&w.state, uint32(WaveStopped))
	w.timer.Stop()
	w.dma.Disable()
}

// OnTransmitComplete handles the end of one pass through the LUT.
func (w *Waveform) OnTransmitComplete() WaveEvent {
	if w.State() != WaveRunning {
		return WaveIgnored
	}
	s := w.settings
	s.LUTRepeatsDone++
	w.passes++

	w.length = s.LUTLength
	w.limit = s.LUTRepeatLimit
	if w.limit != 0 && s.LUTRepeatsDone >= w.limit {
		w.Stop()
		RecordEvent(EvtWaveExhausted, 0, uint32(s.LUTRepeatsDone), w.passes)
		return WaveExhausted
	}
	if w.limit == 0 || w.armed < uint32(w.limit) {
		w.dma.Queue(w.lut())
		w.armed++
	}
	RecordEvent(EvtWavePass, 0, uint32(s.LUTRepeatsDone), uint32(w.length))
	return WaveRepeat
}

// Passes returns the number of completed passes since power-up.
func (w *Waveform) Passes() uint32 { return w.passes }
