// Package midi provides the host-side event buffer and a zero-copy cursor
// over it.
//
// Events are stored packed, one record after another:
//
//	[int32 sample offset][int32 size][size payload bytes]
//
// both integers little-endian. The size is whatever the host reported; a
// negative size carries no payload.
package midi

import (
	"encoding/binary"
	"fmt"
)

const headerSize = 8

// Buffer is a host-owned, time-ordered list of MIDI records.
//
// A Buffer is not safe for concurrent use. Hosts fill it before a callback
// and clear it afterwards.
type Buffer struct {
	data       []byte
	count      int
	lastOffset int32
}

// NewBuffer returns an empty buffer with room for capacity bytes of records
// before it has to grow.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{data: make([]byte, 0, capacity)}
}

// Add inserts a copy of data at sampleOffset. Records stay sorted by
// offset; records with equal offsets keep the order they were added in.
// Add does not allocate while the buffer has spare capacity.
func (b *Buffer) Add(data []byte, sampleOffset int32) {
	if b.count == 0 || sampleOffset >= b.lastOffset {
		b.AddRaw(sampleOffset, int32(len(data)), data)
		return
	}

	at := b.insertionPoint(sampleOffset)
	n := headerSize + len(data)
	b.data = append(b.data, make([]byte, n)...)
	copy(b.data[at+n:], b.data[at:len(b.data)-n])
	putRecord(b.data[at:], sampleOffset, int32(len(data)), data)
	b.count++
}

// AddRaw appends a record exactly as a host would have laid it out, size
// included, without reordering. A negative size writes no payload. AddRaw
// panics if payload is shorter than size.
func (b *Buffer) AddRaw(sampleOffset, size int32, payload []byte) {
	n := max(int(size), 0)
	if n > len(payload) {
		panic(fmt.Sprintf("midi: record size %d exceeds payload length %d", size, len(payload)))
	}

	at := len(b.data)
	b.data = append(b.data, make([]byte, headerSize+n)...)
	putRecord(b.data[at:], sampleOffset, size, payload[:n])
	b.count++
	b.lastOffset = max(b.lastOffset, sampleOffset)
}

// Clear removes all records and keeps the storage.
func (b *Buffer) Clear() {
	b.data = b.data[:0]
	b.count = 0
	b.lastOffset = 0
}

// Len returns the number of records.
func (b *Buffer) Len() int {
	return b.count
}

// Free returns the number of bytes Add can still use without growing.
func (b *Buffer) Free() int {
	return cap(b.data) - len(b.data)
}

// Size returns the number of bytes used by records.
func (b *Buffer) Size() int {
	return len(b.data)
}

// Cursor returns a cursor over every record in b.
func (b *Buffer) Cursor() Cursor {
	var c Cursor
	c.Reset(b)
	return c
}

func (b *Buffer) insertionPoint(sampleOffset int32) int {
	pos := 0
	for pos+headerSize <= len(b.data) {
		offset, size := readHeader(b.data[pos:])
		if offset > sampleOffset {
			return pos
		}
		pos += headerSize + max(int(size), 0)
	}
	return len(b.data)
}

func putRecord(dst []byte, sampleOffset, size int32, payload []byte) {
	binary.LittleEndian.PutUint32(dst[0:4], uint32(sampleOffset))
	binary.LittleEndian.PutUint32(dst[4:8], uint32(size))
	copy(dst[headerSize:], payload)
}

func readHeader(src []byte) (sampleOffset, size int32) {
	return int32(binary.LittleEndian.Uint32(src[0:4])), int32(binary.LittleEndian.Uint32(src[4:8]))
}
