package plugin

import "github.com/elysium-audio/elysium/pkg/audio"

// Contract is the buffer shape agreed in Prepare. Every realtime block must
// have exactly Channels channels and at most MaxSamplesPerBlock samples.
type Contract struct {
	SampleRate         float64
	Channels           int
	MaxSamplesPerBlock int
}

// Prepared reports whether c came from a Prepare call.
func (c Contract) Prepared() bool {
	return c.Channels > 0 && c.MaxSamplesPerBlock > 0
}

// Check returns nil if buf honors the contract. The returned errors are
// preallocated so that checking never allocates on the realtime thread.
func (c *Contract) Check(buf *audio.Buffer, violation *ContractError) error {
	if !c.Prepared() {
		return ErrNotPrepared
	}

	switch {
	case buf.NumChannels() != c.Channels:
		*violation = ContractError{Field: "channels", Expected: c.Channels, Actual: buf.NumChannels()}
	case buf.NumSamples() > c.MaxSamplesPerBlock:
		*violation = ContractError{Field: "samples", Expected: c.MaxSamplesPerBlock, Actual: buf.NumSamples()}
	case buf.Capacity() < buf.NumSamples():
		*violation = ContractError{Field: "capacity", Expected: buf.NumSamples(), Actual: buf.Capacity()}
	default:
		return nil
	}
	return violation
}
