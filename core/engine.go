package core

import (
	"errors"

	"godaq/protocol"
)

// Source names one interrupt source of the engine.
type Source uint8

const (
	SourceAcqTrigger Source = iota // acquisition trigger compare
	SourceAcqBlock                 // receive DMA block complete
	SourceWaveTx                   // transmit DMA pass complete
	SourceRxReady                  // channel has received bytes
	SourceTxEmpty                  // channel can take more bytes
)

// Engine owns the settings record and the components built on it. The
// target calls HandleIRQ from its interrupt handlers; there is no other
// entry point while running.
type Engine struct {
	settings Settings
	board    Board

	timing   *TimingController
	acq      *Acquisition
	wave     *Waveform
	ctrl     *Controller
	format   *Formatter
	registry *CommandRegistry

	decoder protocol.LineDecoder
	resp    protocol.ScratchOutput
}

// NewEngine builds the engine over b with power-up defaults. Call Init
// before enabling interrupts.
func NewEngine(b Board) *Engine {
	e := &Engine{
		settings: DefaultSettings(),
		board:    b,
		registry: NewCommandRegistry(),
	}
	e.settings.Channel = b.Channel
	e.timing = NewTimingController(b.AcqTimer, b.AcqTimerSpec, b.WaveTimer, b.WaveTimerSpec)
	e.acq = NewAcquisition(b.ADC, b.RxDMA, b.AcqTimer)
	e.wave = NewWaveform(b.TxDMA, b.WaveTimer, &e.settings)
	e.ctrl = NewController(&e.settings, e.timing, e.acq, e.wave, b.ADC, b.DAC, b.Channel)
	e.format = NewFormatter(e.acq, &e.settings, b.Channel)
	e.registerCommands()
	return e
}

// Init programs the hardware with the current settings.
func (e *Engine) Init() error {
	return e.ctrl.ApplyDefaults()
}

// Controller returns the configuration controller.
func (e *Engine) Controller() *Controller { return e.ctrl }

// Acquisition returns the sample pipeline.
func (e *Engine) Acquisition() *Acquisition { return e.acq }

// Waveform returns the LUT pipeline.
func (e *Engine) Waveform() *Waveform { return e.wave }

// Registry returns the command registry.
func (e *Engine) Registry() *CommandRegistry { return e.registry }

// HandleIRQ runs the handler for src to completion.
func (e *Engine) HandleIRQ(src Source) {
	switch src {
	case SourceAcqTrigger:
		e.acq.OnTrigger()
	case SourceAcqBlock:
		if e.acq.OnBlockComplete() == BlockOverrun {
			e.ctrl.recoverOverrun()
		}
	case SourceWaveTx:
		e.wave.OnTransmitComplete()
	case SourceRxReady:
		e.receive()
	case SourceTxEmpty:
		e.format.OnTransmitEmpty()
	}
}

// receive drains the channel into the line decoder and executes every
// complete line.
func (e *Engine) receive() {
	ch := e.board.Channel
	for ch.Available() > 0 {
		b, err := ch.ReadByte()
		if err != nil {
			return
		}
		line, status := e.decoder.Feed(b)
		switch status {
		case protocol.LineReady:
			e.Execute(&line)
		case protocol.LineError:
			e.reply(SyntaxErrorMessage)
		}
	}
}

// Execute dispatches one decoded line and writes its response.
func (e *Engine) Execute(line *protocol.Line) {
	e.resp.Reset()
	err := e.registry.Dispatch(line, &e.resp)
	switch {
	case err == nil:
		e.flush()
	case errors.Is(err, ErrUnknownCommand), errors.Is(err, ErrSyntax):
		e.reply(SyntaxErrorMessage)
	default:
		DebugPrintln("[CMD] " + string(line.Cmd) + ": " + err.Error())
		e.reply(SettingErrorMessage)
	}
}

func (e *Engine) reply(msg string) {
	e.resp.Reset()
	e.resp.OutputString(msg)
	e.flush()
}

func (e *Engine) flush() {
	if res := e.resp.Result(); len(res) > 0 {
		e.board.Channel.Write(res)
	}
	e.resp.Reset()
}
