// Package engine defines the capability set a processing engine exposes to
// the bridge.
//
// An engine is stateful and not safe for concurrent use. The bridge in
// package plugin owns it and guarantees that at most one goroutine calls
// into it at any time.
package engine

import (
	"github.com/elysium-audio/elysium/pkg/audio"
	"github.com/elysium-audio/elysium/pkg/midi"
)

// Engine processes audio blocks.
type Engine interface {
	// Prepare is called on the control thread before processing starts and
	// whenever the sample rate or maximum block size changes. It may
	// allocate.
	Prepare(sampleRate float64, maxSamplesPerBlock int)

	// ProcessBlock renders one block in place. It runs on the realtime
	// thread: no blocking, no allocation. The engine may only write the
	// samples in out and must not keep out, events or any event payload
	// after returning.
	ProcessBlock(out *audio.View, events *midi.Cursor)
}

// Resetter is implemented by engines that can drop transient state, such as
// sounding notes, when the host stops processing.
type Resetter interface {
	Reset()
}

// Func adapts a plain block function to the Engine interface. Prepare is a
// no-op.
type Func func(out *audio.View, events *midi.Cursor)

// Prepare implements Engine.
func (f Func) Prepare(sampleRate float64, maxSamplesPerBlock int) {}

// ProcessBlock implements Engine.
func (f Func) ProcessBlock(out *audio.View, events *midi.Cursor) {
	f(out, events)
}
