//go:build rp2040

package main

import (
	"device/rp"
	"errors"
	"machine"
	"runtime/interrupt"
	"time"

	"godaq/core"
)

// Gain select lines: channel n uses GPIO 8+2(n-1) as bit 0 and the next
// pin as bit 1
var gainPins = [core.MaxChannels][2]core.GPIOPin{
	{8, 9}, {10, 11}, {12, 13}, {14, 15},
}

var (
	errNoInput    = errors.New("no input")
	errOutputFull = errors.New("output queue full")

	errNoStateMachine = errors.New("no free PIO state machine")
)

var (
	engine  *core.Engine
	channel *usbChannel
	adc     *rpADC
	rx      *rxPingPong
	tx      *txLUT
	acqTrig *alarmTimer

	// Debug counters
	msgerrors uint32

	// USB connection state tracking
	usbWasDisconnected       bool
	consecutiveWriteFailures uint32
)

func main() {
	// CRITICAL: Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	InitUSB()
	InitDebugUART()
	UpdateSystemTime()

	board, err := setupBoard()
	if err != nil {
		core.DebugPrintln("[BOOT] " + err.Error())
		core.DumpEventRing()
		return
	}

	engine = core.NewEngine(board)
	if err := engine.Init(); err != nil {
		core.DebugPrintln("[BOOT] init: " + err.Error())
		return
	}

	interrupt.New(rp.IRQ_DMA_IRQ_0, dmaIRQ).Enable()
	interrupt.New(rp.IRQ_TIMER_IRQ_1, acqTriggerIRQ).Enable()

	// Main loop
	for {
		// Recover from panics in the main loop to prevent a firmware crash
		func() {
			defer func() {
				if r := recover(); r != nil {
					msgerrors++
					channel.reset()
				}
			}()

			UpdateSystemTime()
			poll()
		}()

		// Yield to other goroutines
		time.Sleep(10 * time.Microsecond)
	}
}

// setupBoard brings up the peripherals and collects them for the engine
func setupBoard() (core.Board, error) {
	gpio := newRPGPIO()

	var err error
	adc, err = newRPADC(&core.GainPins{GPIO: gpio, Pins: gainPins})
	if err != nil {
		return core.Board{}, err
	}

	bus, err := newDACBus(gpio)
	if err != nil {
		return core.Board{}, err
	}

	channel = newUSBChannel()
	rx = newRxPingPong(adc)
	tx = newTxLUT(bus.streamer.StateMachine(), waveSlice)
	acqTrig = &alarmTimer{}

	return core.Board{
		ADC:           adc,
		RxDMA:         rx,
		TxDMA:         tx,
		AcqTimer:      acqTrig,
		WaveTimer:     &waveTrigger{bus: bus},
		DAC:           bus,
		Channel:       channel,
		AcqTimerSpec:  acqTimerSpec,
		WaveTimerSpec: waveTimerSpec,
	}, nil
}

// poll moves USB traffic and runs the channel events
func poll() {
	if channel.receive() > 0 || channel.Available() > 0 {
		if usbWasDisconnected {
			// Host reconnected
			usbWasDisconnected = false
			consecutiveWriteFailures = 0
		}
		engine.HandleIRQ(core.SourceRxReady)
	}

	if channel.empty() {
		engine.HandleIRQ(core.SourceTxEmpty)
	}

	if !channel.transmit() {
		consecutiveWriteFailures++
		// After several failures, mark as disconnected and clear stale data
		if consecutiveWriteFailures > 10 {
			usbWasDisconnected = true
			consecutiveWriteFailures = 0
			channel.reset()
		}
		return
	}
	consecutiveWriteFailures = 0
}

// dmaIRQ services DMA_IRQ_0 for both pipelines
func dmaIRQ(interrupt.Interrupt) {
	status := rp.DMA.INTS0.Get()
	rp.DMA.INTS0.Set(status)

	for i, ch := range rx.ch {
		if status&ch.mask() != 0 {
			rx.onComplete(i)
			engine.HandleIRQ(core.SourceAcqBlock)
		}
	}
	for i, ch := range tx.ch {
		if status&ch.mask() != 0 {
			tx.onComplete(i)
			engine.HandleIRQ(core.SourceWaveTx)
		}
	}
}

// acqTriggerIRQ services the acquisition alarm: one scan per trigger
func acqTriggerIRQ(interrupt.Interrupt) {
	if !acqTrig.ack() {
		return
	}
	engine.HandleIRQ(core.SourceAcqTrigger)
	adc.scan()
}
