package core

// Gain selects the programmable input amplifier of one ADC channel.
type Gain uint8

const (
	GainHalf   Gain = iota // 0.5x
	GainUnity              // 1x
	GainDouble             // 2x
)

// String returns the gain as printed in command responses.
func (g Gain) String() string {
	switch g {
	case GainHalf:
		return "0.5x"
	case GainUnity:
		return "1x"
	case GainDouble:
		return "2x"
	}
	return "?"
}

// ADC is the hardware abstraction for the multi-channel converter.
// Channels are numbered 1..4.
type ADC interface {
	DisableAllChannels()
	EnableChannel(ch uint8) error
	SetGain(ch uint8, g Gain) error
	// SetLowResolution switches every channel between native and
	// reduced resolution. Boards without a reduced mode return
	// ErrUnsupported when asked to enable it.
	SetLowResolution(on bool) error
	LowResolutionSupported() bool
	Start()
	Stop()
}

// RxDMA moves converted samples into the sample regions.
//
// Arm loads cur as the active target and next as the chained descriptor.
// Queue replaces the chained descriptor after a block completes.
type RxDMA interface {
	Arm(cur, next []uint16)
	Queue(next []uint16)
	Enable()
	Disable()
}

// TxDMA moves LUT words to the DAC. A nil next leaves nothing chained.
type TxDMA interface {
	Arm(cur, next []uint16)
	Queue(next []uint16)
	Disable()
}

// TriggerTimer is a periodic hardware trigger. Program must only take
// effect at the next trigger cycle.
type TriggerTimer interface {
	Program(p TimerProgram)
	Start()
	Stop()
}

// DAC writes a static code to one output channel (1..2).
type DAC interface {
	Write(ch uint8, code uint16) error
}

// Channel is the duplex byte link to the host. Writes must not block;
// readiness is reported through SourceRxReady and SourceTxEmpty.
type Channel interface {
	Available() int
	ReadByte() (byte, error)
	WriteByte(b byte) error
	Write(p []byte) (int, error)
}

// Board bundles the drivers a target hands to the engine.
type Board struct {
	ADC       ADC
	RxDMA     RxDMA
	TxDMA     TxDMA
	AcqTimer  TriggerTimer
	WaveTimer TriggerTimer
	DAC       DAC
	Channel   Channel

	AcqTimerSpec  TimerSpec
	WaveTimerSpec TimerSpec
}
