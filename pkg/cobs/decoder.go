package cobs

// Decoder reassembles frames from a byte stream that arrives in arbitrary
// chunks. It keeps its buffer between calls and only ever yields complete,
// successfully decoded frames.
type Decoder struct {
	buf      []byte
	max      int
	overflow bool
	dropped  int
}

// NewDecoder returns a Decoder that discards frames whose encoded body is
// longer than maxFrame bytes. A non-positive maxFrame selects DefaultMaxFrame.
func NewDecoder(maxFrame int) *Decoder {
	if maxFrame <= 0 {
		maxFrame = DefaultMaxFrame
	}
	return &Decoder{buf: make([]byte, 0, maxFrame), max: maxFrame}
}

// FeedByte consumes one byte. When b completes a frame the decoded payload is
// returned with ok set.
func (d *Decoder) FeedByte(b byte) (frame []byte, ok bool) {
	if b != Delimiter {
		if len(d.buf) >= d.max {
			d.overflow = true
			return nil, false
		}
		d.buf = append(d.buf, b)
		return nil, false
	}

	defer d.Reset()
	if d.overflow {
		d.dropped++
		return nil, false
	}
	if len(d.buf) == 0 {
		return nil, false
	}
	frame, err := Decode(d.buf)
	if err != nil {
		d.dropped++
		return nil, false
	}
	return frame, true
}

// Feed consumes p and returns every frame it completed, in order.
func (d *Decoder) Feed(p []byte) [][]byte {
	var frames [][]byte
	for _, b := range p {
		if frame, ok := d.FeedByte(b); ok {
			frames = append(frames, frame)
		}
	}
	return frames
}

// Reset discards any partially received frame.
func (d *Decoder) Reset() {
	d.buf = d.buf[:0]
	d.overflow = false
}

// Pending reports how many bytes of an unfinished frame are buffered.
func (d *Decoder) Pending() int { return len(d.buf) }

// Dropped reports how many malformed or oversized frames were discarded.
func (d *Decoder) Dropped() int { return d.dropped }
