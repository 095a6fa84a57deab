package protocol

// Binary block layout: the two sync marker bytes followed by the samples
// as little-endian uint16 words.
//
// A sample word carries the converter code in bits 0-11 and the channel
// tag in bits 12-13, so the high byte of a sample never exceeds 0x3F.
// Both marker bytes have bit 7 set, which keeps the marker from matching
// at any sample-aligned or half-sample-aligned position.
const (
	SyncMarkerLen = 2

	SampleCodeMask = 0x0FFF
	SampleTagShift = 12
	SampleTagMask  = 0x3
)

// SyncMarker derives the block marker from the block size. It is a pure
// function of blockSize.
func SyncMarker(blockSize uint32) [2]byte {
	le := [4]byte{byte(blockSize), byte(blockSize >> 8), byte(blockSize >> 16), byte(blockSize >> 24)}
	crc := CRC16(le[:])
	return [2]byte{byte(crc>>8) | 0x80, byte(crc) | 0x80}
}

// SampleTag returns the zero-based channel tag of a sample word.
func SampleTag(w uint16) uint8 {
	return uint8(w>>SampleTagShift) & SampleTagMask
}

// SampleCode returns the converter code of a sample word.
func SampleCode(w uint16) uint16 {
	return w & SampleCodeMask
}

// PutSamples encodes as many samples as fit in dst and returns how many
// were written.
func PutSamples(dst []byte, samples []uint16) int {
	n := len(dst) / 2
	if n > len(samples) {
		n = len(samples)
	}
	for i := 0; i < n; i++ {
		dst[2*i] = byte(samples[i])
		dst[2*i+1] = byte(samples[i] >> 8)
	}
	return n
}

// AppendBlock appends a complete marked block to dst.
func AppendBlock(dst []byte, marker [2]byte, samples []uint16) []byte {
	dst = append(dst, marker[0], marker[1])
	for _, s := range samples {
		dst = append(dst, byte(s), byte(s>>8))
	}
	return dst
}
