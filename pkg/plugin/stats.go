package plugin

import (
	"sync/atomic"
	"time"

	"github.com/sugawarayuuta/sonnet"
)

// stats are updated from the realtime thread with plain atomic operations.
type stats struct {
	blocks     atomic.Uint64
	samples    atomic.Uint64
	contended  atomic.Uint64
	violations atomic.Uint64
	prepares   atomic.Uint64

	// Engine time spent in ProcessBlock.
	busy    atomic.Int64
	maxBusy atomic.Int64
}

// record counts one completed block.
func (s *stats) record(samples int, elapsed time.Duration) {
	s.blocks.Add(1)
	s.samples.Add(uint64(samples))
	s.busy.Add(int64(elapsed))
	for {
		cur := s.maxBusy.Load()
		if int64(elapsed) <= cur || s.maxBusy.CompareAndSwap(cur, int64(elapsed)) {
			return
		}
	}
}

// Stats is a point-in-time copy of a processor's counters.
type Stats struct {
	ID           string        `json:"id"`
	Blocks       uint64        `json:"blocks"`
	Samples      uint64        `json:"samples"`
	Contended    uint64        `json:"contended"`
	Violations   uint64        `json:"violations"`
	Prepares     uint64        `json:"prepares"`
	ProcessTime  time.Duration `json:"process_time_ns"`
	MaxBlockTime time.Duration `json:"max_block_time_ns"`
}

func (s *stats) snapshot(id string) Stats {
	return Stats{
		ID:           id,
		Blocks:       s.blocks.Load(),
		Samples:      s.samples.Load(),
		Contended:    s.contended.Load(),
		Violations:   s.violations.Load(),
		Prepares:     s.prepares.Load(),
		ProcessTime:  time.Duration(s.busy.Load()),
		MaxBlockTime: time.Duration(s.maxBusy.Load()),
	}
}

// Load returns the fraction of real time spent in the engine at the given
// sample rate. Values near 1 mean the engine barely keeps up.
func (s Stats) Load(sampleRate float64) float64 {
	if s.Samples == 0 || !(sampleRate > 0) {
		return 0
	}
	audio := float64(s.Samples) / sampleRate
	return s.ProcessTime.Seconds() / audio
}

// JSON encodes the snapshot for status output.
func (s Stats) JSON() ([]byte, error) {
	return sonnet.Marshal(s)
}
