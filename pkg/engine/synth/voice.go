package synth

import "math"

// BendSemitones is the pitch bend range in either direction.
const BendSemitones = 2

// NoteToFrequency converts a MIDI note number to Hz with A4 = 440 Hz.
func NoteToFrequency(note uint8) float64 {
	return 440.0 * math.Pow(2, (float64(note)-69.0)/12.0)
}

// Voice is a single sine voice.
type Voice struct {
	phasor   Phasor
	note     uint8
	velocity float64
	bend     float64
	playing  bool

	// sustained is set when the key was released while the pedal was down.
	sustained bool

	// started orders voices for stealing; larger is newer.
	started uint64
}

// NewVoice creates a silent voice.
func NewVoice(sampleRate float64) Voice {
	return Voice{phasor: NewPhasor(sampleRate, 0)}
}

// Playing reports whether the voice produces sound.
func (v *Voice) Playing() bool { return v.playing }

// Note returns the note last started on the voice.
func (v *Voice) Note() uint8 { return v.note }

// Sustained reports whether the voice is held only by the sustain pedal.
func (v *Voice) Sustained() bool { return v.sustained }

// Started returns the voice's allocation stamp.
func (v *Voice) Started() uint64 { return v.started }

// Frequency returns the current frequency including pitch bend.
func (v *Voice) Frequency() float64 { return v.phasor.Frequency() }

// SetSampleRate changes the voice's sampling rate and keeps its pitch.
func (v *Voice) SetSampleRate(sampleRate float64) {
	v.phasor.SetSampleRate(sampleRate)
	v.updateFrequency()
}

// Start begins playing note. Velocity maps linearly onto [0, 1].
func (v *Voice) Start(note, velocity uint8, bend float64, stamp uint64) {
	v.note = note
	v.velocity = float64(min(velocity, 127)) / 127.0
	v.bend = clampBend(bend)
	v.playing = true
	v.sustained = false
	v.started = stamp
	v.phasor.Reset()
	v.updateFrequency()
}

// Stop silences the voice immediately.
func (v *Voice) Stop() {
	v.playing = false
	v.sustained = false
}

// SetPitchBend sets the bend in [-1, 1], where 1 is BendSemitones up.
func (v *Voice) SetPitchBend(bend float64) {
	v.bend = clampBend(bend)
	v.updateFrequency()
}

func (v *Voice) updateFrequency() {
	freq := NoteToFrequency(v.note)

	steps := BendSemitones
	if v.bend < 0 {
		steps = -BendSemitones
	}
	if target := int(v.note) + steps; target >= 0 && target <= 127 {
		next := NoteToFrequency(uint8(target))
		freq += math.Abs(next-freq) * v.bend
	}
	v.phasor.SetFrequency(freq)
}

// Next returns the voice's next sample, or 0 when it is not playing.
func (v *Voice) Next() float64 {
	if !v.playing {
		return 0
	}
	return v.phasor.Sine() * v.velocity
}

func clampBend(bend float64) float64 {
	if math.IsNaN(bend) {
		return 0
	}
	return max(-1, min(1, bend))
}
