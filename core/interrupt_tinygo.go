//go:build tinygo

package core

import "runtime/interrupt"

type irqState = interrupt.State

// enterCritical masks interrupts and returns the previous mask
func enterCritical() irqState {
	return interrupt.Disable()
}

// exitCritical restores the mask saved by enterCritical
func exitCritical(state irqState) {
	interrupt.Restore(state)
}
