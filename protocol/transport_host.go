package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Response lines the firmware sends for rejected commands, without LineEnd.
const (
	ResponseSettingError = "ERROR setting command"
	ResponseSyntaxError  = "Command syntax ERROR"
	ResponseOverrun      = "ERROR: acquisition overrun"
)

var (
	// ErrRejected is returned when the instrument answers a command with
	// ResponseSettingError
	ErrRejected = errors.New("instrument rejected the setting")

	// ErrSyntax is returned when the instrument answers with ResponseSyntaxError
	ErrSyntax = errors.New("instrument reported a syntax error")

	// ErrOverrun is returned when an overrun diagnostic arrives while
	// waiting for a block
	ErrOverrun = errors.New("acquisition overrun")

	// ErrClosed is returned after Close
	ErrClosed = errors.New("transport stopped")
)

type frameKind uint8

const (
	frameNone  frameKind = iota // need more bytes
	frameLine                   // response text, LineEnd excluded
	frameBlock                  // marker and samples
	frameSkip                   // bytes that belong to nothing
)

var lineEnd = []byte(LineEnd)

// nextFrame classifies the front of data. marker is nil while only text
// is expected. It returns the frame kind and the bytes it spans.
func nextFrame(data []byte, marker *[2]byte, words int) (frameKind, int) {
	if len(data) == 0 {
		return frameNone, 0
	}
	if marker == nil {
		if i := bytes.Index(data, lineEnd); i >= 0 {
			return frameLine, i + len(lineEnd)
		}
		return frameNone, 0
	}

	if data[0] == marker[0] {
		if len(data) < SyncMarkerLen {
			return frameNone, 0
		}
		if data[1] != marker[1] {
			return frameSkip, 1
		}
		need := SyncMarkerLen + 2*words
		if len(data) < need {
			return frameNone, 0
		}
		return frameBlock, need
	}

	m := bytes.IndexByte(data, marker[0])
	i := bytes.Index(data, lineEnd)
	if i >= 0 && (m < 0 || i < m) {
		if printable(data[:i]) {
			return frameLine, i + len(lineEnd)
		}
		return frameSkip, i + len(lineEnd)
	}
	if m > 0 {
		return frameSkip, m
	}
	return frameNone, 0
}

func printable(b []byte) bool {
	for _, c := range b {
		if c < 0x20 || c > 0x7E {
			return false
		}
	}
	return true
}

// HostTransport is the host end of the instrument link. A background
// reader splits the byte stream into response lines and, once blocks are
// expected, sync-marked sample blocks.
type HostTransport struct {
	port io.ReadWriteCloser

	inputBuffer *FifoBuffer

	// Block framing, nil while only text is expected
	frameMutex sync.Mutex
	marker     *[2]byte
	words      int

	lineChan  chan string
	blockChan chan []uint16

	skipped uint32 // atomic
	dropped uint32 // atomic

	writeMutex sync.Mutex
	readMutex  sync.Mutex

	stopChan chan struct{}
	doneChan chan struct{}
	stopped  uint32 // atomic
}

// NewHostTransport creates a transport over port and starts its reader
func NewHostTransport(port io.ReadWriteCloser) *HostTransport {
	t := &HostTransport{
		port:        port,
		inputBuffer: NewFifoBuffer(64 * 1024),
		lineChan:    make(chan string, 64),
		blockChan:   make(chan []uint16, 64),
		stopChan:    make(chan struct{}),
		doneChan:    make(chan struct{}),
	}

	go t.readLoop()

	return t
}

// SendLine writes one command line without waiting for the response
func (t *HostTransport) SendLine(cmd byte, params ...int32) error {
	if len(params) > MaxParams {
		return fmt.Errorf("command %q: %d parameters (max %d)", cmd, len(params), MaxParams)
	}
	msg := AppendLine(make([]byte, 0, 1+MaxParams*(MaxParamLen+1)), cmd, params...)
	return t.writeMessage(msg)
}

// Command sends a line and returns the first response line. Rejections
// come back as ErrRejected or ErrSyntax.
func (t *HostTransport) Command(cmd byte, timeout time.Duration, params ...int32) (string, error) {
	t.drainLines()
	if err := t.SendLine(cmd, params...); err != nil {
		return "", fmt.Errorf("failed to write command: %w", err)
	}
	line, err := t.ReceiveLine(timeout)
	if err != nil {
		return "", fmt.Errorf("command %q: %w", cmd, err)
	}
	switch line {
	case ResponseSettingError:
		return line, fmt.Errorf("command %q: %w", cmd, ErrRejected)
	case ResponseSyntaxError:
		return line, fmt.Errorf("command %q: %w", cmd, ErrSyntax)
	}
	return line, nil
}

// writeMessage sends raw bytes to the port
func (t *HostTransport) writeMessage(msg []byte) error {
	t.writeMutex.Lock()
	defer t.writeMutex.Unlock()

	n, err := t.port.Write(msg)
	if err != nil {
		return err
	}
	if n != len(msg) {
		return fmt.Errorf("incomplete write: %d/%d bytes", n, len(msg))
	}
	return nil
}

// ExpectBlocks switches the reader to binary framing: blocks of words
// samples behind the marker for blockSize.
func (t *HostTransport) ExpectBlocks(blockSize uint32, words int) {
	m := SyncMarker(blockSize)
	t.frameMutex.Lock()
	t.marker = &m
	t.words = words
	t.frameMutex.Unlock()
}

// ExpectLines switches the reader back to text only.
func (t *HostTransport) ExpectLines() {
	t.frameMutex.Lock()
	t.marker = nil
	t.words = 0
	t.frameMutex.Unlock()
}

// ReceiveLine waits for the next response line
func (t *HostTransport) ReceiveLine(timeout time.Duration) (string, error) {
	select {
	case line := <-t.lineChan:
		return line, nil
	case <-time.After(timeout):
		return "", fmt.Errorf("response timeout after %v", timeout)
	case <-t.stopChan:
		return "", ErrClosed
	}
}

// ReceiveBlock waits for the next sample block. An overrun diagnostic
// arriving first is returned as ErrOverrun.
func (t *HostTransport) ReceiveBlock(timeout time.Duration) ([]uint16, error) {
	deadline := time.After(timeout)
	for {
		// Blocks framed before a diagnostic line are delivered first
		select {
		case block := <-t.blockChan:
			return block, nil
		default:
		}
		select {
		case block := <-t.blockChan:
			return block, nil
		case line := <-t.lineChan:
			if strings.HasPrefix(line, ResponseOverrun) {
				return nil, ErrOverrun
			}
		case <-deadline:
			return nil, fmt.Errorf("block timeout after %v", timeout)
		case <-t.stopChan:
			return nil, ErrClosed
		}
	}
}

// Skipped returns the number of stream bytes that matched no frame
func (t *HostTransport) Skipped() uint32 { return atomic.LoadUint32(&t.skipped) }

// Dropped returns the number of frames lost to full channels
func (t *HostTransport) Dropped() uint32 { return atomic.LoadUint32(&t.dropped) }

// readLoop continuously reads from the port and frames what arrives
func (t *HostTransport) readLoop() {
	defer close(t.doneChan)

	buffer := make([]byte, 1024)

	for {
		select {
		case <-t.stopChan:
			return
		default:
		}

		n, err := t.port.Read(buffer)
		if n > 0 {
			t.processFrames(buffer[:n])
		}
		if err != nil {
			if err == io.EOF {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// processFrames buffers chunk and dispatches every complete frame
func (t *HostTransport) processFrames(chunk []byte) {
	t.readMutex.Lock()
	defer t.readMutex.Unlock()

	t.inputBuffer.Write(chunk)

	t.frameMutex.Lock()
	marker, words := t.marker, t.words
	t.frameMutex.Unlock()

	data := t.inputBuffer.Data()
	for {
		kind, n := nextFrame(data, marker, words)
		if kind == frameNone {
			break
		}
		frame := data[:n]
		data = data[n:]

		switch kind {
		case frameLine:
			t.dispatchLine(string(frame[:n-len(lineEnd)]))
		case frameBlock:
			body := frame[SyncMarkerLen:]
			block := make([]uint16, words)
			for i := range block {
				block[i] = uint16(body[2*i]) | uint16(body[2*i+1])<<8
			}
			t.dispatchBlock(block)
		case frameSkip:
			atomic.AddUint32(&t.skipped, uint32(n))
		}
	}

	consumed := t.inputBuffer.Available() - len(data)
	if consumed > 0 {
		t.inputBuffer.Pop(consumed)
	}
}

func (t *HostTransport) dispatchLine(line string) {
	select {
	case t.lineChan <- line:
	default:
		atomic.AddUint32(&t.dropped, 1)
	}
}

func (t *HostTransport) dispatchBlock(block []uint16) {
	select {
	case t.blockChan <- block:
	default:
		atomic.AddUint32(&t.dropped, 1)
	}
}

func (t *HostTransport) drainLines() {
	for {
		select {
		case <-t.lineChan:
		default:
			return
		}
	}
}

// Close stops the reader and closes the port
func (t *HostTransport) Close() error {
	if !atomic.CompareAndSwapUint32(&t.stopped, 0, 1) {
		return nil
	}
	close(t.stopChan)
	var err error
	if t.port != nil {
		err = t.port.Close()
	}
	<-t.doneChan
	return err
}

// Reset drops queued frames and buffered input
func (t *HostTransport) Reset() {
	t.readMutex.Lock()
	defer t.readMutex.Unlock()

	t.drainLines()
	for len(t.blockChan) > 0 {
		<-t.blockChan
	}
	if t.inputBuffer.Available() > 0 {
		t.inputBuffer.Pop(t.inputBuffer.Available())
	}
}
