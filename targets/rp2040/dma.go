//go:build rp2040

package main

import (
	"device/rp"
	"runtime/volatile"
	"unsafe"

	pio "github.com/tinygo-org/pio/rp2-pio"
)

var dmaArb = &dmaArbiter{}

type dmaArbiter struct {
	claimed uint16
}

// claimChannel returns the first free DMA channel.
func (arb *dmaArbiter) claimChannel() (dmaChannel, bool) {
	for i := uint8(0); i < 12; i++ {
		if arb.claimed&(1<<i) == 0 {
			arb.claimed |= 1 << i
			return arb.channel(i), true
		}
	}
	return dmaChannel{}, false
}

func (arb *dmaArbiter) channel(idx uint8) dmaChannel {
	if idx > 11 {
		panic("invalid DMA channel")
	}
	var channels = (*[12]dmaChannelHW)(unsafe.Pointer(rp.DMA))
	return dmaChannel{hw: &channels[idx], idx: idx}
}

// Single DMA channel. See rp.DMA_Type.
//
//goland:noinspection GoSnakeCaseUsage
type dmaChannelHW struct {
	READ_ADDR   volatile.Register32
	WRITE_ADDR  volatile.Register32
	TRANS_COUNT volatile.Register32
	CTRL_TRIG   volatile.Register32
	_           [12]volatile.Register32 // aliases
}

type dmaRegisterOffset uint32

// Register offsets inside one channel block
//
//goland:noinspection GoSnakeCaseUsage
const (
	dmaREAD_ADDR = dmaRegisterOffset(4 * iota)
	dmaWRITE_ADDR
	dmaTRANS_COUNT
	dmaCTRL_TRIG
	dmaAL1_CTRL
	dmaChannelStride = uint32(64)
)

type dmaChannel struct {
	hw  *dmaChannelHW
	idx uint8
}

func (ch dmaChannel) register(off dmaRegisterOffset) *volatile.Register32 {
	base := uintptr(unsafe.Pointer(rp.DMA))
	addr := base + uintptr(ch.idx)*uintptr(dmaChannelStride) + uintptr(off)
	//goland:noinspection GoVetUnsafePointer
	return (*volatile.Register32)(unsafe.Pointer(addr))
}

// configure writes cfg through the non-triggering alias
func (ch dmaChannel) configure(cfg dmaChannelConfig) {
	ch.register(dmaAL1_CTRL).Set(cfg.CTRL)
}

// load sets the addresses and count without starting the channel
func (ch dmaChannel) load(read, write uint32, count uint32) {
	ch.hw.READ_ADDR.Set(read)
	ch.hw.WRITE_ADDR.Set(write)
	ch.hw.TRANS_COUNT.Set(count)
}

// trigger starts the channel with its current configuration
func (ch dmaChannel) trigger() {
	ch.hw.CTRL_TRIG.Set(ch.register(dmaAL1_CTRL).Get())
}

func (ch dmaChannel) mask() uint32 { return 1 << ch.idx }

// abort stops the channel and waits for in-flight transfers to drain
func (ch dmaChannel) abort() {
	ch.register(dmaAL1_CTRL).ClearBits(rp.DMA_CH0_CTRL_TRIG_EN_Msk)
	rp.DMA.CHAN_ABORT.Set(ch.mask())
	for rp.DMA.CHAN_ABORT.Get()&ch.mask() != 0 {
	}
}

func dmaInterruptEnable(ch dmaChannel, enable bool) {
	if enable {
		rp.DMA.INTE0.SetBits(ch.mask())
	} else {
		rp.DMA.INTE0.ClearBits(ch.mask())
	}
}

// 2.5.3.1. System DREQ Table
//
//goland:noinspection GoSnakeCaseUsage
const (
	_DREQ_PWM_WRAP0 = 0x18
	_DREQ_ADC       = 0x24
)

type dmaTxSize uint32

const (
	dmaTxSize8 dmaTxSize = iota
	dmaTxSize16
	dmaTxSize32
)

type dmaChannelConfig struct {
	CTRL uint32
}

func defaultDMAConfig(ch dmaChannel) (cc dmaChannelConfig) {
	cc.SetChainTo(ch.idx)
	cc.SetTREQ_SEL(rp.DMA_CH0_CTRL_TRIG_TREQ_SEL_PERMANENT)
	cc.SetReadIncrement(true)
	cc.SetWriteIncrement(false)
	cc.SetTransferDataSize(dmaTxSize32)
	return cc
}

func (cc *dmaChannelConfig) SetTREQ_SEL(dreq uint32) {
	cc.CTRL = (cc.CTRL &^ uint32(rp.DMA_CH0_CTRL_TRIG_TREQ_SEL_Msk)) | (dreq << rp.DMA_CH0_CTRL_TRIG_TREQ_SEL_Pos)
}

func (cc *dmaChannelConfig) SetChainTo(chainTo uint8) {
	cc.CTRL = (cc.CTRL &^ uint32(rp.DMA_CH0_CTRL_TRIG_CHAIN_TO_Msk)) | (uint32(chainTo) << rp.DMA_CH0_CTRL_TRIG_CHAIN_TO_Pos)
}

func (cc *dmaChannelConfig) SetTransferDataSize(size dmaTxSize) {
	cc.CTRL = (cc.CTRL &^ uint32(rp.DMA_CH0_CTRL_TRIG_DATA_SIZE_Msk)) | (uint32(size) << rp.DMA_CH0_CTRL_TRIG_DATA_SIZE_Pos)
}

func (cc *dmaChannelConfig) SetReadIncrement(incr bool) {
	setBitPos(&cc.CTRL, rp.DMA_CH0_CTRL_TRIG_INCR_READ_Pos, incr)
}

func (cc *dmaChannelConfig) SetWriteIncrement(incr bool) {
	setBitPos(&cc.CTRL, rp.DMA_CH0_CTRL_TRIG_INCR_WRITE_Pos, incr)
}

func (cc *dmaChannelConfig) SetHighPriority(high bool) {
	setBitPos(&cc.CTRL, rp.DMA_CH0_CTRL_TRIG_HIGH_PRIORITY_Pos, high)
}

func (cc *dmaChannelConfig) SetEnable(enable bool) {
	setBitPos(&cc.CTRL, rp.DMA_CH0_CTRL_TRIG_EN_Pos, enable)
}

func setBitPos(cc *uint32, pos uint32, bit bool) {
	if bit {
		*cc |= 1 << pos
	} else {
		*cc &^= 1 << pos
	}
}

func addrOf(p *uint16) uint32 {
	return uint32(uintptr(unsafe.Pointer(p)))
}

// rxPingPong is the receive side: two channels drain the ADC FIFO into
// the two sample regions and chain to each other.
type rxPingPong struct {
	ch      [2]dmaChannel
	regions [2][]uint16
	active  int // channel currently writing
	adc     *rpADC
}

func newRxPingPong(adc *rpADC) *rxPingPong {
	rx := &rxPingPong{adc: adc}
	for i := range rx.ch {
		ch, ok := dmaArb.claimChannel()
		if !ok {
			panic("no DMA channel for sample receive")
		}
		rx.ch[i] = ch
	}
	for i, ch := range rx.ch {
		cc := defaultDMAConfig(ch)
		cc.SetTREQ_SEL(_DREQ_ADC)
		cc.SetReadIncrement(false)
		cc.SetWriteIncrement(true)
		cc.SetTransferDataSize(dmaTxSize16)
		cc.SetChainTo(rx.ch[1-i].idx)
		cc.SetHighPriority(true)
		cc.SetEnable(true)
		ch.configure(cc)
	}
	return rx
}

func (rx *rxPingPong) program(i int, region []uint16) {
	rx.regions[i] = region
	if len(region) == 0 {
		return
	}
	rx.ch[i].load(rpADCFifoAddr(), addrOf(&region[0]), uint32(len(region)))
}

// Arm implements core.RxDMA
func (rx *rxPingPong) Arm(cur, next []uint16) {
	rx.Disable()
	rx.active = 0
	rx.program(0, cur)
	rx.program(1, next)
}

// Queue reloads the channel that just completed. It runs after onComplete
// has advanced active, so the idle channel is the other one.
func (rx *rxPingPong) Queue(next []uint16) {
	rx.program(1-rx.active, next)
}

// Enable implements core.RxDMA
func (rx *rxPingPong) Enable() {
	for _, ch := range rx.ch {
		ch.register(dmaAL1_CTRL).SetBits(rp.DMA_CH0_CTRL_TRIG_EN_Msk)
		dmaInterruptEnable(ch, true)
	}
	rx.ch[rx.active].trigger()
}

// Disable implements core.RxDMA
func (rx *rxPingPong) Disable() {
	for _, ch := range rx.ch {
		dmaInterruptEnable(ch, false)
		ch.abort()
	}
	rp.DMA.INTS0.Set(rx.ch[0].mask() | rx.ch[1].mask())
}

// onComplete tags the finished region with scan positions and moves
// active to the chained channel.
func (rx *rxPingPong) onComplete(idx int) {
	tagScan(rx.regions[idx], rx.adc.enabled())
	rx.active = 1 - idx
}

// tagScan writes the scan position of every sample into its tag bits.
func tagScan(region []uint16, n int) {
	if n == 0 {
		return
	}
	pos := 0
	for i := range region {
		region[i] = region[i]&0x0FFF | uint16(pos)<<12
		pos++
		if pos == n {
			pos = 0
		}
	}
}

// txLUT is the transmit side: one channel per pass feeds LUT words to the
// DAC streamer, paced by the waveform PWM wrap. A second channel holds
// the chained pass.
type txLUT struct {
	ch     [2]dmaChannel
	loaded [2]bool
	active int
	fifo   uint32
}

func newTxLUT(sm pio.StateMachine, slice uint8) *txLUT {
	tx := &txLUT{fifo: uint32(uintptr(unsafe.Pointer(sm.TxReg())))}
	for i := range tx.ch {
		ch, ok := dmaArb.claimChannel()
		if !ok {
			panic("no DMA channel for waveform transmit")
		}
		tx.ch[i] = ch
	}
	for _, ch := range tx.ch {
		cc := defaultDMAConfig(ch)
		cc.SetTREQ_SEL(_DREQ_PWM_WRAP0 + uint32(slice))
		cc.SetReadIncrement(true)
		cc.SetWriteIncrement(false)
		cc.SetTransferDataSize(dmaTxSize16)
		cc.SetEnable(true)
		ch.configure(cc)
	}
	return tx
}

func (tx *txLUT) setChain(i int, to dmaChannel) {
	ch := tx.ch[i]
	cc := dmaChannelConfig{CTRL: ch.register(dmaAL1_CTRL).Get()}
	cc.SetChainTo(to.idx)
	ch.configure(cc)
}

// program loads one pass into channel i. It chains to nothing until
// another pass is queued behind it.
func (tx *txLUT) program(i int, lut []uint16) {
	tx.loaded[i] = len(lut) > 0
	if tx.loaded[i] {
		tx.ch[i].load(addrOf(&lut[0]), tx.fifo, uint32(len(lut)))
	}
	tx.setChain(i, tx.ch[i])
}

// Arm implements core.TxDMA and starts the first pass
func (tx *txLUT) Arm(cur, next []uint16) {
	tx.Disable()
	tx.active = 0
	tx.program(0, cur)
	tx.program(1, next)
	if tx.loaded[1] {
		tx.setChain(0, tx.ch[1])
	}
	for _, ch := range tx.ch {
		ch.register(dmaAL1_CTRL).SetBits(rp.DMA_CH0_CTRL_TRIG_EN_Msk)
		dmaInterruptEnable(ch, true)
	}
	if tx.loaded[0] {
		tx.ch[0].trigger()
	}
}

// Queue implements core.TxDMA. The running pass chains to the reloaded
// channel.
func (tx *txLUT) Queue(next []uint16) {
	idle := 1 - tx.active
	tx.program(idle, next)
	if tx.loaded[idle] {
		tx.setChain(tx.active, tx.ch[idle])
	}
}

// Disable implements core.TxDMA
func (tx *txLUT) Disable() {
	for _, ch := range tx.ch {
		dmaInterruptEnable(ch, false)
		ch.abort()
	}
	rp.DMA.INTS0.Set(tx.ch[0].mask() | tx.ch[1].mask())
	tx.loaded = [2]bool{}
}

// onComplete moves active to the chained channel
func (tx *txLUT) onComplete(idx int) {
	tx.loaded[idx] = false
	tx.active = 1 - idx
}
