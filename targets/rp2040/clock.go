//go:build rp2040

package main

import (
	"device/rp"
	"runtime/volatile"
	"unsafe"

	"godaq/core"
)

// RP2040 Timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerTIMERAWH = timerBase + 0x08 // Raw timer high word
	timerTIMERAWL = timerBase + 0x0C // Raw timer low word
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
)

// acqAlarm is the alarm the acquisition trigger uses. Alarm 0 belongs to
// the TinyGo runtime.
const acqAlarm = 1

// acqTimerSpec: the timer counts microseconds and alarms compare 32 bits
var acqTimerSpec = core.TimerSpec{Sources: []uint32{1000000}, Width: 32}

// GetHardwareTime reads the low 32 bits of the microsecond counter
func GetHardwareTime() uint32 {
	return timerRAWL.Get()
}

// GetHardwareUptime reads the full 64-bit RP2040 hardware timer
func GetHardwareUptime() uint64 {
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()

		// If high didn't change, we got a consistent reading
		if high1 == high2 {
			return (uint64(high1) << 32) | uint64(low)
		}
	}
}

// UpdateSystemTime updates the core timer with hardware time
func UpdateSystemTime() {
	core.SetTime(GetHardwareTime())
}

// alarmTimer implements core.TriggerTimer on a timer alarm. The alarm is
// re-armed from its own interrupt, so a new reload applies from the next
// trigger on.
type alarmTimer struct {
	reload  volatile.Register32
	next    uint32
	running volatile.Register8
}

// Program implements core.TriggerTimer
func (t *alarmTimer) Program(p core.TimerProgram) {
	t.reload.Set(p.Reload)
}

// Start implements core.TriggerTimer
func (t *alarmTimer) Start() {
	t.running.Set(1)
	t.next = GetHardwareTime() + t.reload.Get()
	rp.TIMER.INTR.Set(1 << acqAlarm)
	rp.TIMER.INTE.SetBits(1 << acqAlarm)
	rp.TIMER.ALARM1.Set(t.next)
}

// Stop implements core.TriggerTimer
func (t *alarmTimer) Stop() {
	t.running.Set(0)
	rp.TIMER.INTE.ClearBits(1 << acqAlarm)
	rp.TIMER.ARMED.Set(1 << acqAlarm)
	rp.TIMER.INTR.Set(1 << acqAlarm)
}

// ack clears the interrupt and schedules the next compare. It returns
// false when the timer was stopped in the meantime.
func (t *alarmTimer) ack() bool {
	rp.TIMER.INTR.Set(1 << acqAlarm)
	if t.running.Get() == 0 {
		return false
	}
	t.next += t.reload.Get()
	rp.TIMER.ALARM1.Set(t.next)
	return true
}
