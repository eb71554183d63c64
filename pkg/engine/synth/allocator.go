package synth

// StealingMode defines how voices are stolen when all are in use
type StealingMode int

const (
	// StealOldest steals the voice that was started first
	StealOldest StealingMode = iota
	// StealHighest steals the highest pitched voice
	StealHighest
	// StealLowest steals the lowest pitched voice
	StealLowest
	// StealNone ignores new notes when every voice is busy
	StealNone
)

// Allocator assigns notes to a fixed pool of voices. It never allocates after
// construction, so every method is safe on the realtime thread.
type Allocator struct {
	voices        []Voice
	stealingMode  StealingMode
	lastTriggered int
	sustainPedal  bool
	pitchBend     float64
	clock         uint64
}

// NewAllocator creates an allocator with count voices.
func NewAllocator(count int, sampleRate float64) *Allocator {
	count = max(count, 1)
	voices := make([]Voice, count)
	for i := range voices {
		voices[i] = NewVoice(sampleRate)
	}
	return &Allocator{
		voices:        voices,
		stealingMode:  StealOldest,
		lastTriggered: count - 1,
	}
}

// SetStealingMode sets the voice stealing mode
func (a *Allocator) SetStealingMode(mode StealingMode) {
	a.stealingMode = mode
}

// SetSampleRate retunes every voice for a new sampling rate.
func (a *Allocator) SetSampleRate(sampleRate float64) {
	for i := range a.voices {
		a.voices[i].SetSampleRate(sampleRate)
	}
}

// Voices returns the voice pool. Callers may inspect but not retain it.
func (a *Allocator) Voices() []Voice {
	return a.voices
}

// NoteOn starts note on a free voice, stealing one if needed. A note that
// is already sounding is retriggered on its voice.
func (a *Allocator) NoteOn(note, velocity uint8) {
	a.clock++

	if idx := a.findNote(note); idx != -1 {
		a.voices[idx].Start(note, velocity, a.pitchBend, a.clock)
		return
	}

	idx := a.findFreeVoice()
	if idx == -1 {
		idx = a.stealVoice()
		if idx == -1 {
			return
		}
	}
	a.voices[idx].Start(note, velocity, a.pitchBend, a.clock)
}

// NoteOff releases note. While the sustain pedal is down the voice keeps
// sounding until the pedal is lifted.
func (a *Allocator) NoteOff(note uint8) {
	for i := range a.voices {
		v := &a.voices[i]
		if !v.Playing() || v.Note() != note {
			continue
		}
		if a.sustainPedal {
			v.sustained = true
		} else {
			v.Stop()
		}
	}
}

// SetSustainPedal sets the sustain pedal state
func (a *Allocator) SetSustainPedal(on bool) {
	a.sustainPedal = on
	if on {
		return
	}
	for i := range a.voices {
		if a.voices[i].Sustained() {
			a.voices[i].Stop()
		}
	}
}

// SustainPedal reports whether the sustain pedal is down.
func (a *Allocator) SustainPedal() bool {
	return a.sustainPedal
}

// SetPitchBend bends every voice, including ones started later.
func (a *Allocator) SetPitchBend(bend float64) {
	a.pitchBend = clampBend(bend)
	for i := range a.voices {
		a.voices[i].SetPitchBend(a.pitchBend)
	}
}

// AllNotesOff stops every voice and lifts the sustain pedal.
func (a *Allocator) AllNotesOff() {
	for i := range a.voices {
		a.voices[i].Stop()
	}
	a.sustainPedal = false
}

// ActiveVoices returns the number of playing voices.
func (a *Allocator) ActiveVoices() int {
	count := 0
	for i := range a.voices {
		if a.voices[i].Playing() {
			count++
		}
	}
	return count
}

// Next mixes one sample from every voice.
func (a *Allocator) Next() float64 {
	var sum float64
	for i := range a.voices {
		sum += a.voices[i].Next()
	}
	return sum
}

func (a *Allocator) findNote(note uint8) int {
	for i := range a.voices {
		if a.voices[i].Playing() && a.voices[i].Note() == note {
			return i
		}
	}
	return -1
}

// findFreeVoice finds an inactive voice, round-robin from the last one used
func (a *Allocator) findFreeVoice() int {
	n := len(a.voices)
	for i := 1; i <= n; i++ {
		idx := (a.lastTriggered + i) % n
		if !a.voices[idx].Playing() {
			a.lastTriggered = idx
			return idx
		}
	}
	return -1
}

// stealVoice stops and returns a voice chosen by the stealing mode
func (a *Allocator) stealVoice() int {
	if a.stealingMode == StealNone {
		return -1
	}

	best := -1
	for i := range a.voices {
		v := &a.voices[i]
		if !v.Playing() {
			continue
		}
		if best == -1 {
			best = i
			continue
		}
		b := &a.voices[best]
		switch a.stealingMode {
		case StealOldest:
			if v.Started() < b.Started() {
				best = i
			}
		case StealHighest:
			if v.Note() > b.Note() {
				best = i
			}
		case StealLowest:
			if v.Note() < b.Note() {
				best = i
			}
		}
	}

	if best != -1 {
		a.voices[best].Stop()
	}
	return best
}
