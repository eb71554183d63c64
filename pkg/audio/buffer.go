// Package audio provides the host-side sample buffer and the per-call channel
// view handed to an engine.
package audio

import "unsafe"

// Buffer is a host-owned block of non-interleaved float32 samples.
//
// The reported sample count is kept separately from the channel slices, the
// way a host passes channel pointers plus a frame count.
type Buffer struct {
	channels   [][]float32
	numSamples int
}

// NewBuffer allocates a buffer with the given shape. Not for realtime use.
func NewBuffer(numChannels, numSamples int) *Buffer {
	channels := make([][]float32, numChannels)
	for ch := range channels {
		channels[ch] = make([]float32, numSamples)
	}
	return &Buffer{channels: channels, numSamples: numSamples}
}

// Wrap creates a buffer over existing channel slices without copying.
// Every slice must hold at least numSamples samples.
func Wrap(channels [][]float32, numSamples int) *Buffer {
	b := &Buffer{}
	b.Reset(channels, numSamples)
	return b
}

// WrapPointers creates a buffer over raw per-channel write pointers, as
// received from a C host. A nil pointer produces a nil channel.
func WrapPointers(ptrs []*float32, numSamples int) *Buffer {
	channels := make([][]float32, len(ptrs))
	for i, p := range ptrs {
		if p != nil && numSamples > 0 {
			channels[i] = unsafe.Slice(p, numSamples)
		}
	}
	return &Buffer{channels: channels, numSamples: numSamples}
}

// Reset repoints b at new channel slices and a new sample count without
// allocating.
func (b *Buffer) Reset(channels [][]float32, numSamples int) {
	if numSamples < 0 {
		numSamples = 0
	}
	b.channels = channels
	b.numSamples = numSamples
}

// NumChannels returns the number of channels the host reports.
func (b *Buffer) NumChannels() int {
	return len(b.channels)
}

// NumSamples returns the number of samples per channel the host reports.
func (b *Buffer) NumSamples() int {
	return b.numSamples
}

// Capacity returns the length of the shortest channel slice, the most
// samples every channel can actually hold. It is 0 for a buffer without
// channels.
func (b *Buffer) Capacity() int {
	if len(b.channels) == 0 {
		return 0
	}
	n := len(b.channels[0])
	for _, ch := range b.channels[1:] {
		n = min(n, len(ch))
	}
	return n
}

// Channel returns a channel's samples, limited to the reported sample count.
func (b *Buffer) Channel(index int) []float32 {
	if index < 0 || index >= len(b.channels) {
		return nil
	}
	ch := b.channels[index]
	if len(ch) > b.numSamples {
		ch = ch[:b.numSamples]
	}
	return ch
}

// Clear writes silence into the reported samples of every channel.
func (b *Buffer) Clear() {
	for i := range b.channels {
		clear(b.Channel(i))
	}
}
