package synth

import "math"

// Phasor is a cyclic ramp in [0, 1) that advances by freq/sampleRate on
// every sample.
type Phasor struct {
	sampleRate float64
	freq       float64
	phase      float64
	inc        float64
}

// NewPhasor creates a phasor at phase 0.
func NewPhasor(sampleRate, freq float64) Phasor {
	p := Phasor{sampleRate: sampleRate, freq: freq}
	p.update()
	return p
}

// update recomputes the increment. Frequencies outside [0, sampleRate] are
// clamped so the ramp never runs backwards or skips whole cycles.
func (p *Phasor) update() {
	if !(p.sampleRate > 0) || math.IsInf(p.sampleRate, 0) {
		p.inc = 0
		return
	}
	if !(p.freq > 0) {
		p.freq = 0
	}
	p.freq = min(p.freq, p.sampleRate)
	p.inc = p.freq / p.sampleRate
}

// SampleRate returns the sampling rate.
func (p *Phasor) SampleRate() float64 { return p.sampleRate }

// SetSampleRate changes the sampling rate but not the frequency.
func (p *Phasor) SetSampleRate(sampleRate float64) {
	p.sampleRate = sampleRate
	p.update()
}

// Frequency returns the frequency in Hz.
func (p *Phasor) Frequency() float64 { return p.freq }

// SetFrequency changes the frequency but not the sampling rate. A frequency
// of 0 holds the phase.
func (p *Phasor) SetFrequency(freq float64) {
	p.freq = freq
	p.update()
}

// Reset returns the phase to 0.
func (p *Phasor) Reset() {
	p.phase = 0
}

// Next advances the phase and returns it.
func (p *Phasor) Next() float64 {
	p.phase += p.inc
	if p.phase >= 1.0 {
		p.phase -= math.Floor(p.phase)
	}
	return p.phase
}

// Sine advances the phase and returns the sine of it.
func (p *Phasor) Sine() float64 {
	return math.Sin(2.0 * math.Pi * p.Next())
}
