package daq

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"godaq/host/log"
	"godaq/protocol"
)

// Response lines that end a multi-line exchange
const (
	responseStopped    = "Acquisition stopped"
	statusLines        = 3
	defaultLineTimeout = time.Second
)

var (
	// ErrNoBlock is returned when no acquisition of the requested kind runs
	ErrNoBlock = errors.New("no acquisition streaming")

	// ErrClosed is returned after Close
	ErrClosed = protocol.ErrClosed
)

// Client drives the instrument over a serial link
type Client struct {
	t       *protocol.HostTransport
	timeout time.Duration

	plan      Plan
	streaming string
	seq       uint64
}

// NewClient starts a transport over port. timeout bounds every response.
func NewClient(port io.ReadWriteCloser, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultLineTimeout
	}
	return &Client{
		t:       protocol.NewHostTransport(port),
		timeout: timeout,
		plan:    DefaultPlan(),
	}
}

// Close stops the transport and closes the port
func (c *Client) Close() error {
	return c.t.Close()
}

// Plan returns the plan last applied
func (c *Client) Plan() Plan {
	return c.plan
}

// Send writes one command and returns the first response line
func (c *Client) Send(cmd byte, params ...int32) (string, error) {
	log.Debug("-> %c %v", cmd, params)
	line, err := c.t.Command(cmd, c.timeout, params...)
	if err != nil {
		log.Debug("<- %q: %v", line, err)
		return line, err
	}
	log.Debug("<- %q", line)
	return line, nil
}

type step struct {
	cmd    byte
	params []int32
}

// Apply validates plan and pushes every setting to the instrument
func (c *Client) Apply(plan Plan) error {
	if err := plan.Validate(); err != nil {
		return fmt.Errorf("invalid plan: %w", err)
	}

	seq := make([]int32, 4)
	for i, ch := range plan.Sequence {
		seq[i] = int32(ch)
	}

	steps := []step{
		{'R', []int32{int32(plan.SamplePeriodUs)}},
		{'A', []int32{int32(plan.Averaging)}},
		{'F', []int32{int32(plan.Repeat)}},
		{'E', seq},
		{'B', []int32{int32(plan.BlockSize)}},
	}
	for i, g := range plan.Gains {
		steps = append(steps, step{'G', []int32{int32(i + 1), int32(g)}})
	}
	low := int32(0)
	if plan.LowResolution {
		low = 1
	}
	steps = append(steps, step{'H', []int32{low}})

	for _, s := range steps {
		if _, err := c.Send(s.cmd, s.params...); err != nil {
			return err
		}
	}
	c.plan = plan
	log.Info("applied plan: %d us, %d channel(s), block %d, %s", plan.SamplePeriodUs, len(plan.Sequence), plan.BlockSize, plan.Mode)
	return nil
}

// SetDAC drives a DAC output to a static level
func (c *Client) SetDAC(ch int, mv int32) error {
	_, err := c.Send('D', int32(ch), mv)
	return err
}

// UploadLUT sets the table length and writes every entry
func (c *Client) UploadLUT(entries []uint16) error {
	if _, err := c.Send('N', int32(len(entries))); err != nil {
		return err
	}
	for i, e := range entries {
		if _, err := c.Send('L', int32(i), int32(e)); err != nil {
			return fmt.Errorf("LUT entry %d: %w", i, err)
		}
	}
	log.Debug("uploaded %d LUT entries", len(entries))
	return nil
}

// StartWaveform sets the output period and repeat limit, then starts
// playback of the uploaded table
func (c *Client) StartWaveform(periodUs uint32, repeat uint32) error {
	if _, err := c.Send('P', int32(periodUs)); err != nil {
		return err
	}
	if _, err := c.Send('K', int32(repeat)); err != nil {
		return err
	}
	_, err := c.Send('W')
	return err
}

// StopWaveform halts playback
func (c *Client) StopWaveform() error {
	_, err := c.Send('X')
	return err
}

// Start begins an acquisition in the applied plan's mode
func (c *Client) Start() error {
	cmd := byte('S')
	if c.plan.Mode == ModeBinary {
		cmd = 's'
		// Blocks may follow the response immediately
		c.t.ExpectBlocks(c.plan.BlockSize, c.plan.Words())
	}
	if _, err := c.Send(cmd); err != nil {
		c.t.ExpectLines()
		return err
	}
	c.streaming = c.plan.Mode
	c.seq = 0
	return nil
}

// ReadBlock waits for the next binary block. An overrun reported by the
// instrument comes back as protocol.ErrOverrun; the instrument keeps
// running at its safe period.
func (c *Client) ReadBlock() (Block, error) {
	if c.streaming != ModeBinary {
		return Block{}, ErrNoBlock
	}
	words, err := c.t.ReceiveBlock(c.blockTimeout())
	if err != nil {
		return Block{}, err
	}
	b := Block{Seq: c.seq, Samples: Decode(words, c.plan.Sequence, c.plan.LowResolution)}
	c.seq++
	return b, nil
}

// ReadRawBlock is ReadBlock without decoding
func (c *Client) ReadRawBlock() ([]uint16, error) {
	if c.streaming != ModeBinary {
		return nil, ErrNoBlock
	}
	words, err := c.t.ReceiveBlock(c.blockTimeout())
	if err == nil {
		c.seq++
	}
	return words, err
}

// ReadASCIIBlock collects the readings of one ASCII block. The block ends
// with an empty line.
func (c *Client) ReadASCIIBlock() ([]Reading, error) {
	if c.streaming != ModeASCII {
		return nil, ErrNoBlock
	}
	var out []Reading
	timeout := c.blockTimeout()
	for {
		line, err := c.t.ReceiveLine(timeout)
		if err != nil {
			return nil, err
		}
		if line == "" {
			if len(out) == 0 {
				continue
			}
			c.seq++
			return out, nil
		}
		if strings.HasPrefix(line, protocol.ResponseOverrun) {
			return nil, protocol.ErrOverrun
		}
		r, err := ParseReading(line)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
}

// ParseReading parses one "CHn = v mV" line
func ParseReading(line string) (Reading, error) {
	var r Reading
	if _, err := fmt.Sscanf(line, "CH%d = %d mV", &r.Channel, &r.Millivolts); err != nil {
		return Reading{}, fmt.Errorf("malformed reading %q: %w", line, err)
	}
	return r, nil
}

// Stop ends the acquisition. Output still queued on the instrument is
// discarded.
func (c *Client) Stop() error {
	if err := c.t.SendLine('T'); err != nil {
		return fmt.Errorf("failed to write command: %w", err)
	}
	c.streaming = ""
	deadline := time.Now().Add(c.timeout)
	for {
		line, err := c.t.ReceiveLine(time.Until(deadline))
		if err != nil {
			return fmt.Errorf("waiting for stop: %w", err)
		}
		if line == responseStopped {
			break
		}
	}
	c.t.ExpectLines()
	c.t.Reset()
	return nil
}

// Status returns the instrument's status report
func (c *Client) Status() ([]string, error) {
	first, err := c.Send('I')
	if err != nil {
		return nil, err
	}
	lines := []string{first}
	for len(lines) < statusLines {
		line, err := c.t.ReceiveLine(c.timeout)
		if err != nil {
			return lines, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// Stats returns the stream bytes skipped and frames dropped so far
func (c *Client) Stats() (skipped, dropped uint32) {
	return c.t.Skipped(), c.t.Dropped()
}

// blockTimeout allows one full block at the applied period on top of
// the response timeout
func (c *Client) blockTimeout() time.Duration {
	block := time.Duration(c.plan.BlockSize) * time.Duration(c.plan.SamplePeriodUs) * time.Microsecond
	return c.timeout + block
}
