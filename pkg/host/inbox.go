package host

import (
	"sync/atomic"

	"github.com/elysium-audio/elysium/pkg/midi"
)

// MaxMessageSize is the largest message the inbox carries. Channel voice
// messages fit; SysEx does not.
const MaxMessageSize = 3

type message struct {
	data [MaxMessageSize]byte
	n    uint8
}

// Inbox is a lock-free single-producer, single-consumer queue of short MIDI
// messages. A device goroutine pushes; the audio callback drains into the
// block's event buffer.
//
// Thread assignment:
//   - Push: producer goroutine only
//   - Drain: consumer (audio callback) only
type Inbox struct {
	// Separate cache lines for the producer and consumer counters.
	write atomic.Uint64
	_pad1 [56]byte
	read  atomic.Uint64
	_pad2 [56]byte

	slots   []message
	mask    uint64
	dropped atomic.Uint64
}

// NewInbox creates an inbox with at least minSize slots, rounded up to the
// next power of two.
func NewInbox(minSize int) *Inbox {
	size := 1
	for size < minSize {
		size <<= 1
	}
	return &Inbox{
		slots: make([]message, size),
		mask:  uint64(size - 1),
	}
}

// Cap returns the number of slots.
func (b *Inbox) Cap() int {
	return len(b.slots)
}

// Push queues a copy of msg. It returns false, and counts a drop, if msg is
// empty, longer than MaxMessageSize or the inbox is full. Non-blocking.
func (b *Inbox) Push(msg []byte) bool {
	if len(msg) == 0 || len(msg) > MaxMessageSize {
		b.dropped.Add(1)
		return false
	}

	w := b.write.Load()
	r := b.read.Load()
	if w-r == uint64(len(b.slots)) {
		b.dropped.Add(1)
		return false
	}

	slot := &b.slots[w&b.mask]
	slot.n = uint8(copy(slot.data[:], msg))
	b.write.Store(w + 1)
	return true
}

// Drain moves every queued message into dst at sampleOffset and returns how
// many were moved. dst must have room for Cap() messages to stay
// allocation-free.
func (b *Inbox) Drain(dst *midi.Buffer, sampleOffset int32) int {
	return b.DrainMax(dst, sampleOffset, len(b.slots))
}

// DrainMax is Drain limited to limit messages. The rest stay queued.
func (b *Inbox) DrainMax(dst *midi.Buffer, sampleOffset int32, limit int) int {
	if limit <= 0 {
		return 0
	}
	r := b.read.Load()
	w := b.write.Load()
	if w-r > uint64(limit) {
		w = r + uint64(limit)
	}
	for i := r; i != w; i++ {
		slot := &b.slots[i&b.mask]
		dst.Add(slot.data[:slot.n], sampleOffset)
	}
	b.read.Store(w)
	return int(w - r)
}

// Len returns the number of queued messages.
func (b *Inbox) Len() int {
	return int(b.write.Load() - b.read.Load())
}

// Dropped returns the number of rejected messages.
func (b *Inbox) Dropped() uint64 {
	return b.dropped.Load()
}

// recordSize is the largest record one inbox message becomes.
const recordSize = 8 + MaxMessageSize

// EventBufferSize is the event buffer capacity in bytes that holds a full
// drain of an inbox with the given number of slots.
func EventBufferSize(slots int) int {
	return slots * recordSize
}
