package core

import "sync/atomic"

// published by the target's tick source, read from every handler
var ticks uint32

// GetTime returns the counter value last published by the target. It
// timestamps event ring entries.
func GetTime() uint32 {
	return atomic.LoadUint32(&ticks)
}

// SetTime publishes the counter. Targets call it from their tick source;
// tests set it directly.
func SetTime(t uint32) {
	atomic.StoreUint32(&ticks, t)
}
