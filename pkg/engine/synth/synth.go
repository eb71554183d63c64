// Package synth is a small polyphonic sine synthesizer used as the reference
// engine for the bridge.
//
// Notes, sustain, all-notes-off and pitch bend are read from the event
// cursor on every channel and applied at their sample offsets. Every output
// channel carries the same mono signal.
package synth

import (
	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/elysium-audio/elysium/pkg/audio"
	"github.com/elysium-audio/elysium/pkg/midi"
)

const (
	// DefaultSampleRate is used until the first Prepare.
	DefaultSampleRate = 44100.0
	// DefaultVoices is the polyphony of New(0).
	DefaultVoices = 16
	// DefaultGain keeps a full chord below clipping.
	DefaultGain = 0.1
)

// Controller numbers the synth reacts to.
const (
	CCSustain     = 64
	CCAllSoundOff = 120
	CCAllNotesOff = 123
)

// Synth implements engine.Engine and engine.Resetter.
type Synth struct {
	alloc      *Allocator
	sampleRate float64
	gain       float64
}

// New creates a synth with the given polyphony. A count below 1 selects
// DefaultVoices.
func New(voices int) *Synth {
	if voices < 1 {
		voices = DefaultVoices
	}
	return &Synth{
		alloc:      NewAllocator(voices, DefaultSampleRate),
		sampleRate: DefaultSampleRate,
		gain:       DefaultGain,
	}
}

// SetGain sets the output level applied to the voice mix.
func (s *Synth) SetGain(gain float64) {
	s.gain = gain
}

// SetStealingMode selects which voice is replaced when all are busy.
func (s *Synth) SetStealingMode(mode StealingMode) {
	s.alloc.SetStealingMode(mode)
}

// SampleRate returns the rate from the last Prepare.
func (s *Synth) SampleRate() float64 {
	return s.sampleRate
}

// ActiveVoices returns the number of sounding voices.
func (s *Synth) ActiveVoices() int {
	return s.alloc.ActiveVoices()
}

// Prepare retunes the voices. Sounding notes keep playing.
func (s *Synth) Prepare(sampleRate float64, maxSamplesPerBlock int) {
	s.sampleRate = sampleRate
	s.alloc.SetSampleRate(sampleRate)
}

// Reset silences every voice and centers pitch bend.
func (s *Synth) Reset() {
	s.alloc.AllNotesOff()
	s.alloc.SetPitchBend(0)
}

// ProcessBlock renders out, applying each event at its offset. Offsets past
// the block end are applied at the end; offsets earlier than an event
// already applied are applied immediately. Empty events are skipped.
func (s *Synth) ProcessBlock(out *audio.View, events *midi.Cursor) {
	n := out.NumSamples()
	pos := 0
	for {
		e, ok := events.Next()
		if !ok {
			break
		}
		if len(e.Data) == 0 {
			continue
		}
		at := min(max(int(e.SampleOffset), pos), n)
		s.render(out, pos, at)
		pos = at
		s.HandleMessage(e.Message())
	}
	s.render(out, pos, n)
}

func (s *Synth) render(out *audio.View, from, to int) {
	channels := out.Channels()
	for i := from; i < to; i++ {
		sample := float32(s.alloc.Next() * s.gain)
		for _, ch := range channels {
			ch[i] = sample
		}
	}
}

// HandleMessage applies one MIDI message immediately. Unknown messages are
// ignored.
func (s *Synth) HandleMessage(msg gomidi.Message) {
	var ch, key, vel uint8
	var rel int16
	var abs uint16

	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		s.alloc.NoteOn(key, vel)
	case msg.GetNoteEnd(&ch, &key):
		s.alloc.NoteOff(key)
	case msg.GetControlChange(&ch, &key, &vel):
		switch key {
		case CCSustain:
			s.alloc.SetSustainPedal(vel >= 64)
		case CCAllSoundOff, CCAllNotesOff:
			s.alloc.AllNotesOff()
		}
	case msg.GetPitchBend(&ch, &rel, &abs):
		s.alloc.SetPitchBend(float64(rel) / 8192.0)
	}
}
