package core

import "sync/atomic"

// AcqState is the acquisition pipeline state.
type AcqState uint32

const (
	AcqStopped AcqState = iota
	AcqArmed
	AcqSampling
	AcqOverrun
)

func (s AcqState) String() string {
	switch s {
	case AcqStopped:
		return "stopped"
	case AcqArmed:
		return "armed"
	case AcqSampling:
		return "sampling"
	case AcqOverrun:
		return "overrun"
	}
	return "unknown"
}

// BlockEvent is the outcome of a block-complete interrupt.
type BlockEvent uint8

const (
	BlockReady        BlockEvent = iota // filled region published
	BlockDropped                        // late completion after Stop
	BlockReconfigured                   // staged configuration applied, block discarded
	BlockOverrun                        // previous block still unconsumed
)

// Acquisition is the sample pipeline: trigger timer, converter and the
// ping-pong receive DMA over a SampleBuffer.
//
// Handlers run to completion and are never re-entered by their own
// source. Configure may be called from a lower priority context while
// sampling; the new configuration is staged and picked up by the next
// block-complete.
type Acquisition struct {
	adc   ADC
	dma   RxDMA
	timer TriggerTimer
	buf   SampleBuffer

	state   uint32 // AcqState, atomic
	started uint32 // between Start and the last block, atomic
	discard uint32 // set by Stop, atomic

	cfg     AcqConfig
	enabled int
	cycles  uint32
	limit   uint32

	staged    [2]AcqConfig
	stageNext uint32
	pending   uint32 // staged slot + 1, atomic

	blocks   uint32
	overruns uint32
}

// NewAcquisition creates a stopped pipeline.
func NewAcquisition(adc ADC, dma RxDMA, timer TriggerTimer) *Acquisition {
	return &Acquisition{adc: adc, dma: dma, timer: timer}
}

// State returns the current state.
func (a *Acquisition) State() AcqState {
	return AcqState(atomic.LoadUint32(&a.state))
}

func (a *Acquisition) setState(s AcqState) {
	atomic.StoreUint32(&a.state, uint32(s))
}

// running reports whether a block may still complete.
func (a *Acquisition) running() bool {
	return atomic.LoadUint32(&a.started) != 0
}

// busy reports whether re-arming now would disturb a block: one may still
// complete, or the last one has not been released by the formatter.
func (a *Acquisition) busy() bool {
	if a.running() {
		return true
	}
	return a.buf.Pending() && atomic.LoadUint32(&a.discard) == 0
}

// Configure applies cfg. While sampling the configuration is staged and
// takes effect at the next block boundary; the block in flight is dropped.
// After the repeat count ran out it is applied once the last block has
// been released.
func (a *Acquisition) Configure(cfg AcqConfig) error {
	if a.busy() {
		state := enterCritical()
		slot := a.stageNext
		a.staged[slot] = cfg
		a.stageNext ^= 1
		atomic.StoreUint32(&a.pending, slot+1)
		exitCritical(state)
		RecordEvent(EvtConfigStaged, uint8(slot), cfg.BlockSize, uint32(EnabledCount(&cfg.Sequence)))
		return nil
	}
	if err := a.apply(&cfg); err != nil {
		return err
	}
	atomic.StoreUint32(&a.pending, 0)
	a.setState(AcqArmed)
	return nil
}

// apply programs the converter and re-arms both regions.
func (a *Acquisition) apply(cfg *AcqConfig) error {
	a.adc.DisableAllChannels()
	n := EnabledCount(&cfg.Sequence)
	for i := 0; i < n; i++ {
		if err := a.adc.EnableChannel(cfg.Sequence[i]); err != nil {
			return err
		}
	}
	for ch := uint8(1); ch <= MaxChannels; ch++ {
		if err := a.adc.SetGain(ch, cfg.Gain[ch-1]); err != nil {
			return err
		}
	}
	if err := a.adc.SetLowResolution(cfg.LowResolution); err != nil {
		return err
	}

	a.cfg = *cfg
	a.enabled = n
	a.buf.Reset(n * int(cfg.BlockSize))
	a.cycles = 0
	a.limit = uint32(cfg.RepeatCount) * cfg.BlockSize
	a.dma.Arm(a.buf.Region(0), a.buf.Region(1))
	return nil
}

// Start enables the trigger. Conversions begin on the next trigger edge.
func (a *Acquisition) Start() {
	atomic.StoreUint32(&a.discard, 0)
	atomic.StoreUint32(&a.pending, 0)
	a.cycles = 0
	a.setState(AcqSampling)
	atomic.StoreUint32(&a.started, 1)
	a.dma.Enable()
	a.adc.Start()
	a.timer.Start()
}

// Stop halts the pipeline at once. A transfer still in flight lands in
// its region but is never published.
func (a *Acquisition) Stop() {
	atomic.StoreUint32(&a.discard, 1)
	atomic.StoreUint32(&a.started, 0)
	a.timer.Stop()
	a.adc.Stop()
	a.dma.Disable()
	a.setState(AcqStopped)
}

// OnTrigger handles one trigger compare. It returns true when the repeat
// count is exhausted and the trigger has been halted.
func (a *Acquisition) OnTrigger() bool {
	s := a.State()
	if s != AcqSampling && s != AcqArmed {
		return false
	}
	a.cycles++
	if s == AcqArmed {
		a.setState(AcqSampling)
	}
	if a.limit != 0 && a.cycles >= a.limit {
		a.timer.Stop()
		a.setState(AcqStopped)
		if a.enabled == 0 {
			atomic.StoreUint32(&a.started, 0)
		}
		RecordEvent(EvtExhausted, 0, a.cycles, a.blocks)
		return true
	}
	return false
}

// OnBlockComplete handles the DMA buffer-full interrupt.
func (a *Acquisition) OnBlockComplete() BlockEvent {
	if atomic.LoadUint32(&a.discard) != 0 {
		return BlockDropped
	}
	if a.buf.Pending() {
		a.timer.Stop()
		a.adc.Stop()
		a.dma.Disable()
		atomic.StoreUint32(&a.started, 0)
		a.overruns++
		a.setState(AcqOverrun)
		RecordEvent(EvtOverrun, uint8(a.buf.Active()), a.cycles, a.blocks)
		return BlockOverrun
	}
	// The final block of a bounded run is always published; a staged
	// configuration then waits for Release.
	if a.State() != AcqStopped {
		if p := atomic.SwapUint32(&a.pending, 0); p != 0 {
			a.dma.Disable()
			if !a.applyStaged(p - 1) {
				return BlockReconfigured
			}
			a.dma.Enable()
			a.setState(AcqArmed)
			return BlockReconfigured
		}
	}

	filled := a.buf.Swap()
	a.dma.Queue(a.buf.Region(filled))
	a.blocks++
	a.buf.Publish(filled)
	RecordEvent(EvtBlockReady, uint8(filled), a.cycles, a.blocks)

	if a.State() == AcqStopped {
		// Repeat count reached; this was the last block.
		a.adc.Stop()
		a.dma.Disable()
		atomic.StoreUint32(&a.started, 0)
		return BlockReady
	}
	a.setState(AcqArmed)
	return BlockReady
}

// applyStaged programs a staged slot from interrupt context. A converter
// that refuses it leaves the pipeline halted.
func (a *Acquisition) applyStaged(slot uint32) bool {
	cfg := &a.staged[slot]
	if err := a.apply(cfg); err != nil {
		a.timer.Stop()
		a.adc.Stop()
		a.dma.Disable()
		atomic.StoreUint32(&a.started, 0)
		a.setState(AcqStopped)
		RecordEvent(EvtRejected, uint8(slot), cfg.BlockSize, uint32(EnabledCount(&cfg.Sequence)))
		return false
	}
	RecordEvent(EvtReconfigured, uint8(slot), a.cfg.BlockSize, uint32(a.enabled))
	return true
}

// Release hands the published block back after it has been sent and
// applies a configuration staged while the last block was outstanding.
func (a *Acquisition) Release() {
	a.buf.Release()
	if a.running() {
		return
	}
	if p := atomic.SwapUint32(&a.pending, 0); p != 0 {
		a.applyStaged(p - 1)
	}
}

// Buffer exposes the sample arena to the formatter.
func (a *Acquisition) Buffer() *SampleBuffer { return &a.buf }

// Config returns the applied configuration.
func (a *Acquisition) Config() AcqConfig { return a.cfg }

// Enabled returns the number of channels in the applied scan.
func (a *Acquisition) Enabled() int { return a.enabled }

// Blocks returns the number of published blocks since power-up.
func (a *Acquisition) Blocks() uint32 { return a.blocks }

// Overruns returns the number of overruns since power-up.
func (a *Acquisition) Overruns() uint32 { return a.overruns }
