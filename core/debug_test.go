package core

import (
	"strings"
	"testing"
)

func TestEventRing(t *testing.T) {
	ClearEventRing()
	defer ClearEventRing()

	SetTime(500)
	RecordEvent(EvtBlockReady, 1, 10, 20)
	evts := Events()
	if len(evts) != 1 {
		t.Fatalf("%d events, want 1", len(evts))
	}
	if evts[0].Clock != 500 || evts[0].Slot != 1 || evts[0].Value1 != 10 {
		t.Errorf("event = %+v", evts[0])
	}

	// Overfill: only the newest EventRingSize entries remain, oldest first
	for i := 0; i < EventRingSize+5; i++ {
		RecordEvent(EvtWavePass, 0, uint32(i), 0)
	}
	evts = Events()
	if len(evts) != EventRingSize {
		t.Fatalf("%d events, want %d", len(evts), EventRingSize)
	}
	if evts[0].Value1 != 5 || evts[EventRingSize-1].Value1 != EventRingSize+4 {
		t.Errorf("ring order: first %d last %d", evts[0].Value1, evts[EventRingSize-1].Value1)
	}
}

func TestDumpEventRing(t *testing.T) {
	ClearEventRing()
	defer ClearEventRing()

	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	defer SetDebugWriter(func(string) {})

	RecordEvent(EvtOverrun, 0, 3, 4)
	DumpEventRing()

	if len(lines) != 3 {
		t.Fatalf("%d lines, want 3: %v", len(lines), lines)
	}
	if !strings.Contains(lines[1], "OVERRUN!") || !strings.Contains(lines[1], "v1=3") {
		t.Errorf("dump line = %q", lines[1])
	}
}

func TestRejectedSetterRecordsEvent(t *testing.T) {
	ClearEventRing()
	defer ClearEventRing()

	e, _ := newTestEngine(t)
	ClearEventRing()
	_ = e.Controller().SetAveragingCount(5000)

	evts := Events()
	if len(evts) != 1 || evts[0].Type != EvtRejected || evts[0].Value1 != 5000 {
		t.Errorf("events = %+v", evts)
	}
}

func TestDebugPrintlnGated(t *testing.T) {
	var got []string
	SetDebugWriter(func(s string) { got = append(got, s) })
	defer SetDebugWriter(func(string) {})

	SetDebugEnabled(false)
	DebugPrintln("hidden")
	SetDebugEnabled(true)
	DebugPrintln("shown")
	SetDebugEnabled(false)

	if len(got) != 1 || got[0] != "shown" {
		t.Errorf("writer saw %v", got)
	}
	if IsDebugEnabled() {
		t.Error("debug still enabled")
	}
}
