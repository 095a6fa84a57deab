// Package protocol implements the instrument's wire formats: the text
// command line, the sync-marked binary sample block and the fixed
// code/millivolt transforms shared by firmware and host.
package protocol

// Version represents the firmware protocol version
const Version = "0.1.0"

// Protocol constants
const (
	MessageMax = 1024 // Scratch size for one response or one rendered block chunk

	LineEnd = "\n\r" // Terminates every response line

	MaxParams   = 4 // Parameters per command line
	MaxParamLen = 7 // Characters per parameter, sign included
)

// Fixed linear transform between converter codes and the +-10 V range.
const (
	FullScaleMillivolts = 10000
	SpanMillivolts      = 20000
	CodeFullScale       = 4095
)

// CodeToMillivolts maps a 12-bit code onto -10000..10000 mV.
// Code 0 is +10 V, code 4095 is -10 V.
func CodeToMillivolts(code uint16) int32 {
	return FullScaleMillivolts - int32(code)*SpanMillivolts/CodeFullScale
}

// MillivoltsToCode is the inverse of CodeToMillivolts, truncated.
// mv must be within -10000..10000.
func MillivoltsToCode(mv int32) uint16 {
	return uint16((FullScaleMillivolts - mv) * CodeFullScale / SpanMillivolts)
}
