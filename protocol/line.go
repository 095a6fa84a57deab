package protocol

// LineStatus is the result of feeding one byte to a LineDecoder.
type LineStatus uint8

const (
	LinePending LineStatus = iota // more bytes needed
	LineReady                     // a complete line was decoded
	LineError                     // the line was malformed and discarded
)

// Line is one decoded command line: a command letter and up to four
// decimal parameters.
type Line struct {
	Cmd    byte
	Params [MaxParams]int32
	Count  int
}

// LineDecoder assembles "<letter>[p1[,p2[,p3[,p4]]]]\r" one byte at a
// time. It never blocks and never allocates.
//
// Digits and '-' build the current parameter, ',' starts the next one,
// '\b' erases the last character (crossing back over a ','), '\n' and any
// other byte are ignored.
type LineDecoder struct {
	cmd     byte
	started bool
	bad     bool
	cur     uint8
	lens    [MaxParams]uint8
	buf     [MaxParams][MaxParamLen]byte
}

// Reset discards any partial line.
func (d *LineDecoder) Reset() {
	*d = LineDecoder{}
}

// Feed consumes one byte.
func (d *LineDecoder) Feed(b byte) (Line, LineStatus) {
	if !d.started {
		switch b {
		case '\r', '\n', ' ', '\b', 0:
			return Line{}, LinePending
		}
		d.cmd = b
		d.started = true
		return Line{}, LinePending
	}

	switch {
	case b == '\r':
		line, ok := d.finish()
		d.Reset()
		if !ok {
			return line, LineError
		}
		return line, LineReady
	case b == ',':
		if int(d.cur)+1 >= MaxParams {
			d.bad = true
		} else {
			d.cur++
		}
	case b == '\b':
		switch {
		case d.lens[d.cur] > 0:
			d.lens[d.cur]--
		case d.cur > 0:
			d.cur--
		default:
			// nothing left to erase but the command letter
			d.Reset()
			return Line{}, LineError
		}
	case (b >= '0' && b <= '9') || b == '-':
		if d.lens[d.cur] >= MaxParamLen {
			d.bad = true
		} else {
			d.buf[d.cur][d.lens[d.cur]] = b
			d.lens[d.cur]++
		}
	}
	return Line{}, LinePending
}

func (d *LineDecoder) finish() (Line, bool) {
	line := Line{Cmd: d.cmd}
	if d.bad {
		return line, false
	}
	if d.cur == 0 && d.lens[0] == 0 {
		return line, true
	}
	line.Count = int(d.cur) + 1
	for i := 0; i < line.Count; i++ {
		v, ok := atoi(d.buf[i][:d.lens[i]])
		if !ok {
			return line, false
		}
		line.Params[i] = v
	}
	return line, true
}

// atoi parses an optionally signed decimal. An empty field is 0.
func atoi(s []byte) (int32, bool) {
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	var v int32
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		v = v*10 + int32(c-'0')
	}
	if neg {
		v = -v
	}
	return v, true
}

// AppendLine encodes a command line the way LineDecoder expects it.
func AppendLine(dst []byte, cmd byte, params ...int32) []byte {
	dst = append(dst, cmd)
	for i, p := range params {
		if i > 0 {
			dst = append(dst, ',')
		}
		if p < 0 {
			dst = append(dst, '-')
			p = -p
		}
		var tmp [10]byte
		pos := len(tmp)
		if p == 0 {
			pos--
			tmp[pos] = '0'
		}
		for p > 0 {
			pos--
			tmp[pos] = byte('0' + p%10)
			p /= 10
		}
		dst = append(dst, tmp[pos:]...)
	}
	return append(dst, '\r')
}
