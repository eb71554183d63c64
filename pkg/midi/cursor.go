package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// Event is one record yielded by a Cursor. Data aliases host memory and is
// only valid until the callback that produced it returns.
type Event struct {
	SampleOffset int32
	Data         []byte
}

// Message returns the payload as a gomidi message for decoding.
func (e Event) Message() gomidi.Message {
	return gomidi.Message(e.Data)
}

func (e Event) String() string {
	return fmt.Sprintf("Event{offset:%d, data:% X}", e.SampleOffset, e.Data)
}

// Cursor walks the records between two positions of a packed event buffer,
// front to back, without copying payloads.
//
// A Cursor is forward-only. Build a new one for every callback.
type Cursor struct {
	data []byte
	pos  int
	end  int
}

// NewCursor returns a cursor over the records in data[begin:end].
func NewCursor(data []byte, begin, end int) Cursor {
	end = min(max(end, 0), len(data))
	begin = min(max(begin, 0), end)
	return Cursor{data: data, pos: begin, end: end}
}

// Reset points c at every record in b. A nil b leaves c empty.
func (c *Cursor) Reset(b *Buffer) {
	if b == nil {
		c.Invalidate()
		return
	}
	c.data = b.data
	c.pos = 0
	c.end = len(b.data)
}

// Next returns the next record and true, or a zero Event and false once the
// end is reached. A record with a negative size yields an empty payload; a
// record running past the end is cut short and ends the sequence.
func (c *Cursor) Next() (Event, bool) {
	if c.pos+headerSize > c.end {
		c.pos = c.end
		return Event{}, false
	}

	offset, size := readHeader(c.data[c.pos:])
	start := c.pos + headerSize
	stop := min(start+max(int(size), 0), c.end)

	c.pos = stop
	return Event{SampleOffset: offset, Data: c.data[start:stop:stop]}, true
}

// Done reports whether Next would return false.
func (c *Cursor) Done() bool {
	return c.pos+headerSize > c.end
}

// Invalidate drops the reference to host memory. Any later Next returns
// false.
func (c *Cursor) Invalidate() {
	c.data = nil
	c.pos = 0
	c.end = 0
}
