package core

import "sync/atomic"

// SampleBuffer is the two-slot arena the receive DMA fills. Slots are
// addressed by index. The active slot belongs to the DMA, the ready slot
// belongs to the formatter while transferComplete is set.
type SampleBuffer struct {
	regions [2][SampleRegionCapacity]uint16
	length  int

	active uint32
	ready  uint32

	transferComplete uint32 // atomic
	swaps            uint32
}

// Reset sizes both regions to n samples, clears them and makes slot 0
// the active target.
func (b *SampleBuffer) Reset(n int) {
	if n > SampleRegionCapacity {
		n = SampleRegionCapacity
	}
	b.length = n
	for i := range b.regions {
		clear(b.regions[i][:])
	}
	b.active = 0
	b.ready = 0
	b.swaps = 0
	atomic.StoreUint32(&b.transferComplete, 0)
}

// Len returns the region size in samples.
func (b *SampleBuffer) Len() int { return b.length }

// Region returns the sized view of a slot.
func (b *SampleBuffer) Region(slot uint32) []uint16 {
	return b.regions[slot&1][:b.length]
}

// Active returns the slot the DMA is filling.
func (b *SampleBuffer) Active() uint32 { return b.active }

// Swaps returns how many blocks have completed since the last Reset.
func (b *SampleBuffer) Swaps() uint32 { return b.swaps }

// Swap ends the active block and returns the slot that was just filled.
func (b *SampleBuffer) Swap() uint32 {
	filled := b.active
	b.active ^= 1
	b.swaps++
	return filled
}

// Publish hands slot to the formatter.
func (b *SampleBuffer) Publish(slot uint32) {
	b.ready = slot
	atomic.StoreUint32(&b.transferComplete, 1)
}

// Pending reports whether a published block has not been released yet.
func (b *SampleBuffer) Pending() bool {
	return atomic.LoadUint32(&b.transferComplete) != 0
}

// Acquire checks the ready slot out. It returns false when nothing is
// pending.
func (b *SampleBuffer) Acquire() ([]uint16, bool) {
	if !b.Pending() {
		return nil, false
	}
	return b.Region(b.ready), true
}

// Release returns the checked-out slot to the DMA.
func (b *SampleBuffer) Release() {
	atomic.StoreUint32(&b.transferComplete, 0)
}
