package protocol

import "testing"

// bitwise reference for the reflected 0x1021 polynomial
func refCRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = crc>>1 ^ 0x8408
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}

func TestCRC16CheckValue(t *testing.T) {
	if got := CRC16([]byte("123456789")); got != 0x6F91 {
		t.Errorf("CRC16(check) = 0x%04X, want 0x6F91", got)
	}
	if got := CRC16(nil); got != 0xFFFF {
		t.Errorf("CRC16(nil) = 0x%04X, want 0xFFFF", got)
	}
}

func TestCRC16MatchesReference(t *testing.T) {
	for _, size := range []uint32{1, 2, 3, 64, 255, 256, 1023, 1024} {
		le := []byte{byte(size), byte(size >> 8), byte(size >> 16), byte(size >> 24)}
		if got, want := CRC16(le), refCRC16(le); got != want {
			t.Errorf("size %d: CRC16 = 0x%04X, reference 0x%04X", size, got, want)
		}
	}
}

func TestCRC16Distinguishes(t *testing.T) {
	if CRC16([]byte{1, 2, 3}) == CRC16([]byte{1, 2, 4}) {
		t.Error("single byte change not detected")
	}
}
