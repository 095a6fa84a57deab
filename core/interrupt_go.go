//go:build !tinygo

package core

// irqState is the saved interrupt mask. Host builds have none.
type irqState uintptr

// enterCritical masks interrupts on hardware. On the host, handlers are
// called synchronously by tests, so there is nothing to mask.
func enterCritical() irqState {
	return 0
}

// exitCritical restores the mask saved by enterCritical
func exitCritical(state irqState) {}
