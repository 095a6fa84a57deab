package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// Event captures an engine event for post-mortem analysis
type Event struct {
	Type   uint8  // Event type code
	Slot   uint8  // Buffer slot or staging slot
	Clock  uint32 // Event clock at capture
	Value1 uint32 // Context-dependent value
	Value2 uint32 // Context-dependent value
}

// Event type codes
const (
	EvtBlockReady    = 1 // block published to the formatter
	EvtOverrun       = 2 // block completed before the previous one was consumed
	EvtExhausted     = 3 // acquisition repeat count reached
	EvtConfigStaged  = 4 // configuration staged while sampling
	EvtReconfigured  = 5 // staged configuration applied at block boundary
	EvtWavePass      = 6 // LUT pass completed, another queued
	EvtWaveExhausted = 7 // LUT repeat limit reached
	EvtRejected      = 8 // setter rejected a value
)

const (
	EventRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	// eventClock timestamps ring entries; platforms may install a hardware counter
	eventClock = GetTime

	eventRing     [EventRingSize]Event
	eventRingHead uint8
	eventsEnabled bool = true

	// Async debug output channel
	debugChan chan string
)

// SetDebugWriter sets the platform-specific debug output function
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// SetEventClock installs the counter used to timestamp events
func SetEventClock(clock func() uint32) {
	if clock != nil {
		eventClock = clock
	}
}

// InitAsyncDebug starts the async debug output goroutine
// Call this from main() after SetDebugWriter
func InitAsyncDebug() {
	debugChan = make(chan string, 16)
	go debugOutputWorker()
}

func debugOutputWorker() {
	for msg := range debugChan {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message for async output (non-blocking)
// Drops the message when the channel is full
func DebugAsync(msg string) {
	if !debugEnabled || debugChan == nil {
		return
	}
	select {
	case debugChan <- msg:
	default:
	}
}

// RecordEvent captures an event in the ring buffer.
// Safe to call from interrupt handlers: no allocation, no output.
func RecordEvent(eventType, slot uint8, value1, value2 uint32) {
	if !eventsEnabled {
		return
	}
	idx := eventRingHead
	eventRing[idx] = Event{
		Type:   eventType,
		Slot:   slot,
		Clock:  eventClock(),
		Value1: value1,
		Value2: value2,
	}
	eventRingHead = (idx + 1) % EventRingSize
}

// EventName returns the short name printed in ring dumps
func EventName(eventType uint8) string {
	switch eventType {
	case EvtBlockReady:
		return "BLOCK_READY"
	case EvtOverrun:
		return "OVERRUN!"
	case EvtExhausted:
		return "ACQ_DONE"
	case EvtConfigStaged:
		return "CFG_STAGED"
	case EvtReconfigured:
		return "CFG_APPLIED"
	case EvtWavePass:
		return "LUT_PASS"
	case EvtWaveExhausted:
		return "LUT_DONE"
	case EvtRejected:
		return "REJECTED"
	}
	return "UNKNOWN"
}

// Events returns the ring contents from oldest to newest
func Events() []Event {
	out := make([]Event, 0, EventRingSize)
	start := eventRingHead
	for i := uint8(0); i < EventRingSize; i++ {
		evt := eventRing[(start+i)%EventRingSize]
		if evt.Type == 0 {
			continue // Empty slot
		}
		out = append(out, evt)
	}
	return out
}

// DumpEventRing outputs the event ring through the debug writer
func DumpEventRing() {
	if debugPrintln == nil {
		return
	}
	debugPrintln("[EVENT] === Event Ring Dump ===")
	for _, evt := range Events() {
		debugPrintln("[EVENT] " + EventName(evt.Type) +
			" slot=" + itoa(int(evt.Slot)) +
			" clock=" + utoa(evt.Clock) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	debugPrintln("[EVENT] === End Dump ===")
}

// ClearEventRing clears the event buffer
func ClearEventRing() {
	for i := range eventRing {
		eventRing[i] = Event{}
	}
	eventRingHead = 0
}
