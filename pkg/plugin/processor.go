// Package plugin bridges host callbacks to an engine that must never be
// entered by two threads at once.
//
// A host drives a Processor from two places. The control thread calls
// Prepare, Reset and Close; these block until they own the engine. The
// realtime thread calls ProcessBlock for every audio block; it only ever
// tries to take the engine and treats failure as a host threading bug.
//
// The engine, the negotiated buffer contract and the per-call views all live
// inside one owning.Mutex, so a block always sees the contract of the last
// completed Prepare.
package plugin

import (
	"fmt"
	"io"
	"math"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/elysium-audio/elysium/pkg/audio"
	"github.com/elysium-audio/elysium/pkg/debug"
	"github.com/elysium-audio/elysium/pkg/engine"
	"github.com/elysium-audio/elysium/pkg/midi"
	"github.com/elysium-audio/elysium/pkg/owning"
)

// core is everything reachable only while holding the lock.
type core struct {
	engine    engine.Engine
	contract  Contract
	view      *audio.View
	events    midi.Cursor
	violation ContractError
	closed    bool
}

func (c *core) unbind() {
	c.view.Unbind()
	c.events.Invalidate()
}

// Processor owns an engine and arbitrates access to it between the control
// thread and the realtime thread.
type Processor struct {
	core   *owning.Mutex[core]
	id     uuid.UUID
	cfg    Config
	log    *debug.Logger
	stats  stats
	warned atomic.Bool
}

// New takes ownership of e. The caller must not use e afterwards.
func New(e engine.Engine, cfg Config) (*Processor, error) {
	if e == nil {
		return nil, &ConfigError{Field: "engine", Value: nil}
	}
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	return &Processor{
		core: owning.New(core{
			engine: e,
			view:   audio.NewView(cfg.Channels),
		}),
		id:  id,
		cfg: cfg,
		log: cfg.Logger.With("elysium/" + id.String()[:8]),
	}, nil
}

// ID returns the processor's instance identifier.
func (p *Processor) ID() uuid.UUID {
	return p.id
}

// Channels returns the fixed channel count.
func (p *Processor) Channels() int {
	return p.cfg.Channels
}

// Stats returns a copy of the processor's counters. Safe from any thread.
func (p *Processor) Stats() Stats {
	return p.stats.snapshot(p.id.String())
}

// Prepare negotiates a new contract and forwards it to the engine. It blocks
// until no block is being processed.
func (p *Processor) Prepare(sampleRate float64, maxSamplesPerBlock int) error {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return &ConfigError{Field: "sample rate", Value: sampleRate}
	}
	if maxSamplesPerBlock <= 0 {
		return &ConfigError{Field: "maximum samples per block", Value: maxSamplesPerBlock}
	}

	g := p.core.Lock()
	defer g.Unlock()
	c := g.Get()

	if c.closed {
		return ErrClosed
	}

	c.contract = Contract{
		SampleRate:         sampleRate,
		Channels:           p.cfg.Channels,
		MaxSamplesPerBlock: maxSamplesPerBlock,
	}
	if c.view.NumChannels() != p.cfg.Channels {
		c.view.Resize(p.cfg.Channels)
	}
	c.engine.Prepare(sampleRate, maxSamplesPerBlock)

	p.stats.prepares.Add(1)
	p.log.Info("prepared: %.0f Hz, %d channels, up to %d samples per block",
		sampleRate, p.cfg.Channels, maxSamplesPerBlock)
	return nil
}

// Reset drops the contract and lets the engine release transient state.
// ProcessBlock is a contract violation until the next Prepare.
func (p *Processor) Reset() {
	g := p.core.Lock()
	defer g.Unlock()
	c := g.Get()

	if c.closed {
		return
	}
	c.contract = Contract{}
	if r, ok := c.engine.(engine.Resetter); ok {
		r.Reset()
	}
	p.log.Debug("reset")
}

// Close drops the contract and closes the engine if it implements
// io.Closer. Calling Close again is a no-op.
func (p *Processor) Close() error {
	g := p.core.Lock()
	defer g.Unlock()
	c := g.Get()

	if c.closed {
		return nil
	}
	c.closed = true
	c.contract = Contract{}

	if closer, ok := c.engine.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("close engine: %w", err)
		}
	}
	p.log.Debug("closed")
	return nil
}

// Contract returns the current contract. It blocks like a control call.
func (p *Processor) Contract() Contract {
	g := p.core.Lock()
	defer g.Unlock()
	return g.Get().contract
}

// ProcessBlock renders one block into buf and reports whether the engine
// ran. It never blocks and does not allocate unless it is about to
// terminate.
//
// If another thread holds the engine, buf is silenced and the contention
// policy applies. If buf does not match the contract, buf is silenced and
// the process is terminated. The shape check runs after the engine is
// taken, so it always sees the contract of the last finished Prepare.
//
// When it returns false the engine has not seen events; callers that keep
// running under ContentionSilence should deliver them with a later block.
func (p *Processor) ProcessBlock(buf *audio.Buffer, events *midi.Buffer) bool {
	g, ok := p.core.TryLock()
	if !ok {
		p.contended(buf)
		return false
	}
	defer g.Unlock()
	c := g.Get()

	if err := c.contract.Check(buf, &c.violation); err != nil {
		p.violated(buf, err)
		return false
	}

	n := buf.NumSamples()
	c.view.Bind(buf, n)
	c.events.Reset(events)
	defer c.unbind()

	start := time.Now()
	c.engine.ProcessBlock(c.view, &c.events)
	p.stats.record(n, time.Since(start))
	return true
}

func (p *Processor) contended(buf *audio.Buffer) {
	buf.Clear()
	p.stats.contended.Add(1)

	switch p.cfg.Contention {
	case ContentionSilence:
		if p.warned.CompareAndSwap(false, true) {
			p.log.Warn("%v; output silenced, further occurrences are only counted", ErrContention)
		}
	default:
		p.log.Log(debug.LogLevelFatal, "%v", ErrContention)
		p.cfg.Exit(ExitContention)
	}
}

func (p *Processor) violated(buf *audio.Buffer, err error) {
	buf.Clear()
	p.stats.violations.Add(1)
	p.log.Log(debug.LogLevelFatal, "%v", err)
	p.cfg.Exit(ExitContractViolation)
}
