package protocol

import (
	"bytes"
	"testing"
)

func TestScratchOutputAssemble(t *testing.T) {
	var s ScratchOutput
	s.Output([]byte{0xC1, 0x82})
	n := PutSamples(s.Free(), []uint16{0x1234})
	s.Advance(2 * n)
	s.OutputString(LineEnd)

	want := append([]byte{0xC1, 0x82, 0x34, 0x12}, LineEnd...)
	if !bytes.Equal(s.Result(), want) {
		t.Errorf("Result = % X, want % X", s.Result(), want)
	}

	s.Reset()
	if s.Len() != 0 || len(s.Result()) != 0 {
		t.Errorf("Reset left %d bytes", s.Len())
	}
}

func TestScratchOutputCapacity(t *testing.T) {
	var s ScratchOutput
	s.Output(make([]byte, MessageMax-2))
	s.OutputString("abcd")
	if s.Len() != MessageMax {
		t.Fatalf("Len = %d, want %d", s.Len(), MessageMax)
	}
	if got := string(s.Result()[MessageMax-2:]); got != "ab" {
		t.Errorf("tail = %q, want \"ab\"", got)
	}
	if len(s.Free()) != 0 {
		t.Errorf("Free has %d bytes on a full buffer", len(s.Free()))
	}
	s.Advance(3)
	if s.Len() != MessageMax {
		t.Errorf("Advance moved past capacity: %d", s.Len())
	}
}

func TestFifoBufferCapacity(t *testing.T) {
	f := NewFifoBuffer(8)
	if !f.IsEmpty() {
		t.Fatal("new ring not empty")
	}
	if n := f.Write([]byte("0123456789")); n != 7 {
		t.Errorf("Write queued %d, want 7", n)
	}
	if f.PutByte('x') {
		t.Error("PutByte succeeded on a full ring")
	}
	if f.Available() != 7 {
		t.Errorf("Available = %d, want 7", f.Available())
	}
}

func TestFifoBufferWraps(t *testing.T) {
	f := NewFifoBuffer(5)
	f.Write([]byte("abcd"))

	head := make([]byte, 3)
	if n := f.Read(head); n != 3 || string(head) != "abc" {
		t.Fatalf("Read = %d %q", n, head)
	}
	if n := f.Write([]byte("efg")); n != 3 {
		t.Fatalf("Write across the end queued %d", n)
	}
	if f.Available() != 4 {
		t.Errorf("Available = %d, want 4", f.Available())
	}

	var got []byte
	for {
		b, ok := f.GetByte()
		if !ok {
			break
		}
		got = append(got, b)
	}
	if string(got) != "defg" {
		t.Errorf("drained %q, want \"defg\"", got)
	}
	if !f.IsEmpty() {
		t.Error("ring not empty after drain")
	}
}

func TestFifoBufferReset(t *testing.T) {
	f := NewFifoBuffer(4)
	f.Write([]byte{1, 2})
	f.Reset()
	if !f.IsEmpty() || f.Available() != 0 {
		t.Error("Reset left data queued")
	}
	if _, ok := f.GetByte(); ok {
		t.Error("GetByte succeeded after Reset")
	}
}

func TestFifoBufferDataAcrossWrap(t *testing.T) {
	f := NewFifoBuffer(6)
	f.Write([]byte("abcd"))
	f.Pop(3)
	f.Write([]byte("efgh"))

	if got := string(f.Data()); got != "defgh" {
		t.Fatalf("Data = %q, want \"defgh\"", got)
	}
	f.Pop(2)
	if got := string(f.Data()); got != "fgh" {
		t.Errorf("after Pop(2) Data = %q, want \"fgh\"", got)
	}
	f.Pop(10)
	if !f.IsEmpty() || len(f.Data()) != 0 {
		t.Errorf("Pop past the end left %d bytes", f.Available())
	}
}
