// Package host drives a plugin.Processor from real audio and MIDI devices.
//
// Pull-style backends ask for an arbitrary number of frames. Renderer cuts
// each request into blocks no larger than the negotiated maximum and feeds
// queued MIDI into the next block the engine actually renders.
package host

import (
	"github.com/elysium-audio/elysium/pkg/audio"
	"github.com/elysium-audio/elysium/pkg/midi"
	"github.com/elysium-audio/elysium/pkg/plugin"
)

// Renderer owns the scratch memory a backend callback renders into.
type Renderer struct {
	proc     *plugin.Processor
	inboxes  []*Inbox
	maxBlock int

	scratch [][]float32
	views   [][]float32
	buf     audio.Buffer
	events  *midi.Buffer
}

// NewRenderer allocates scratch for blocks of up to maxBlock frames. The
// processor must be prepared with the same maximum before rendering.
func NewRenderer(p *plugin.Processor, maxBlock int, inboxes ...*Inbox) *Renderer {
	maxBlock = max(maxBlock, 1)

	channels := p.Channels()
	scratch := make([][]float32, channels)
	for ch := range scratch {
		scratch[ch] = make([]float32, maxBlock)
	}

	slots := 0
	for _, in := range inboxes {
		slots += in.Cap()
	}

	return &Renderer{
		proc:     p,
		inboxes:  inboxes,
		maxBlock: maxBlock,
		scratch:  scratch,
		views:    make([][]float32, channels),
		events:   midi.NewBuffer(EventBufferSize(slots)),
	}
}

// MaxBlock returns the largest block Next produces.
func (r *Renderer) MaxBlock() int {
	return r.maxBlock
}

// Channels returns the number of channels in every block.
func (r *Renderer) Channels() int {
	return len(r.scratch)
}

// Next renders min(frames, MaxBlock()) frames and returns them. The block is
// valid until the next call. Queued MIDI is delivered at offset 0. If the
// engine was busy, the events are kept for the next block.
func (r *Renderer) Next(frames int) *audio.Buffer {
	n := min(max(frames, 0), r.maxBlock)
	for ch := range r.scratch {
		r.views[ch] = r.scratch[ch][:n]
	}
	r.buf.Reset(r.views, n)

	for _, in := range r.inboxes {
		in.DrainMax(r.events, 0, r.events.Free()/recordSize)
	}

	if r.proc.ProcessBlock(&r.buf, r.events) {
		r.events.Clear()
	}
	return &r.buf
}
