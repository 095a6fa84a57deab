package protocol

// ScratchOutput assembles one response or one rendered block in place.
// Writes past capacity are truncated.
type ScratchOutput struct {
	buf [MessageMax]byte
	pos int
}

// Output appends as much of data as fits
func (s *ScratchOutput) Output(data []byte) {
	s.pos += copy(s.buf[s.pos:], data)
}

// OutputString appends str without converting it to a slice
func (s *ScratchOutput) OutputString(str string) {
	s.pos += copy(s.buf[s.pos:], str)
}

// Free is the unwritten tail. Callers fill it and then call Advance.
func (s *ScratchOutput) Free() []byte {
	return s.buf[s.pos:]
}

// Advance commits n bytes written through Free
func (s *ScratchOutput) Advance(n int) {
	s.pos += n
	if s.pos > len(s.buf) {
		s.pos = len(s.buf)
	}
}

// Len is the number of bytes written so far
func (s *ScratchOutput) Len() int { return s.pos }

// Result returns the written bytes. They are valid until the next Reset.
func (s *ScratchOutput) Result() []byte {
	return s.buf[:s.pos]
}

func (s *ScratchOutput) Reset() { s.pos = 0 }

// FifoBuffer is a byte ring for serial traffic. One slot stays empty to
// tell full from empty, so it holds capacity-1 bytes. It is not
// synchronized; callers guard it.
type FifoBuffer struct {
	buf         []byte
	read, write int
	linear      []byte
}

func NewFifoBuffer(capacity int) *FifoBuffer {
	return &FifoBuffer{buf: make([]byte, capacity)}
}

func (f *FifoBuffer) next(i int) int {
	i++
	if i == len(f.buf) {
		return 0
	}
	return i
}

// PutByte queues b. It reports false when the ring is full.
func (f *FifoBuffer) PutByte(b byte) bool {
	n := f.next(f.write)
	if n == f.read {
		return false
	}
	f.buf[f.write] = b
	f.write = n
	return true
}

// Write queues as much of data as fits and returns the count queued
func (f *FifoBuffer) Write(data []byte) int {
	for i, b := range data {
		if !f.PutByte(b) {
			return i
		}
	}
	return len(data)
}

// GetByte dequeues one byte; ok is false when the ring is empty
func (f *FifoBuffer) GetByte() (b byte, ok bool) {
	if f.read == f.write {
		return 0, false
	}
	b = f.buf[f.read]
	f.read = f.next(f.read)
	return b, true
}

// Read dequeues up to len(data) bytes
func (f *FifoBuffer) Read(data []byte) int {
	n := 0
	for n < len(data) && f.read != f.write {
		data[n] = f.buf[f.read]
		f.read = f.next(f.read)
		n++
	}
	return n
}

// Available is the number of queued bytes
func (f *FifoBuffer) Available() int {
	if f.write >= f.read {
		return f.write - f.read
	}
	return len(f.buf) - f.read + f.write
}

// Data is a linear view of the queued bytes. When they wrap it is a copy
// that stays valid until the next call.
func (f *FifoBuffer) Data() []byte {
	if f.read <= f.write {
		return f.buf[f.read:f.write]
	}
	f.linear = append(f.linear[:0], f.buf[f.read:]...)
	f.linear = append(f.linear, f.buf[:f.write]...)
	return f.linear
}

// Pop drops up to n bytes from the front
func (f *FifoBuffer) Pop(n int) {
	if avail := f.Available(); n > avail {
		n = avail
	}
	f.read = (f.read + n) % len(f.buf)
}

func (f *FifoBuffer) IsEmpty() bool { return f.read == f.write }

func (f *FifoBuffer) Reset() { f.read, f.write = 0, 0 }
