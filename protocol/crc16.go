package protocol

import "github.com/snksoft/crc"

// markerCRC is CRC-16/MCRF4XX: poly 0x1021, reflected, init 0xFFFF, no
// final xor
var markerCRC = crc.NewTable(&crc.Parameters{
	Width:      16,
	Polynomial: 0x1021,
	ReflectIn:  true,
	ReflectOut: true,
	Init:       0xFFFF,
	FinalXor:   0,
})

// CRC16 checksums data for sync marker derivation
func CRC16(data []byte) uint16 {
	return markerCRC.CRC16(markerCRC.CalculateCRC(data))
}
