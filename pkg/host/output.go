package host

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// Backend names accepted by Open.
const (
	BackendBeep = "beep"
	BackendOto  = "oto"
)

// BeepStreamer plays a Renderer through a beep pipeline. The first two
// channels become left and right; a mono renderer is duplicated.
type BeepStreamer struct {
	r *Renderer
}

// NewBeepStreamer wraps r.
func NewBeepStreamer(r *Renderer) *BeepStreamer {
	return &BeepStreamer{r: r}
}

// Stream implements beep.Streamer. It never drains.
func (s *BeepStreamer) Stream(samples [][2]float64) (int, bool) {
	done := 0
	for done < len(samples) {
		block := s.r.Next(len(samples) - done)
		left := block.Channel(0)
		right := block.Channel(min(1, block.NumChannels()-1))
		for i, n := 0, block.NumSamples(); i < n; i++ {
			samples[done+i][0] = float64(left[i])
			samples[done+i][1] = float64(right[i])
		}
		done += block.NumSamples()
	}
	return len(samples), true
}

// Err implements beep.Streamer.
func (s *BeepStreamer) Err() error { return nil }

// OtoReader exposes a Renderer as interleaved little-endian float32 frames
// for an oto player.
type OtoReader struct {
	r *Renderer
}

// NewOtoReader wraps r.
func NewOtoReader(r *Renderer) *OtoReader {
	return &OtoReader{r: r}
}

// Read fills p with whole frames. A p shorter than one frame is filled with
// silence.
func (o *OtoReader) Read(p []byte) (int, error) {
	frameSize := 4 * o.r.Channels()
	frames := len(p) / frameSize
	if frames == 0 {
		clear(p)
		return len(p), nil
	}

	pos := 0
	for done := 0; done < frames; {
		block := o.r.Next(frames - done)
		n := block.NumSamples()
		for i := 0; i < n; i++ {
			for ch := 0; ch < block.NumChannels(); ch++ {
				binary.LittleEndian.PutUint32(p[pos:], math.Float32bits(block.Channel(ch)[i]))
				pos += 4
			}
		}
		done += n
	}
	return pos, nil
}

// Output is an open audio device.
type Output interface {
	Close() error
}

// Open starts playback of r on the named backend. bufferFrames is the device
// buffer size.
func Open(backend string, r *Renderer, sampleRate, bufferFrames int) (Output, error) {
	switch backend {
	case BackendBeep, "":
		return OpenBeep(r, sampleRate, bufferFrames)
	case BackendOto:
		return OpenOto(r, sampleRate, bufferFrames)
	}
	return nil, fmt.Errorf("unknown audio backend %q", backend)
}

type beepOutput struct {
	once sync.Once
}

// OpenBeep plays r through the beep speaker. The speaker is process-global,
// so only one beep output may be open at a time.
func OpenBeep(r *Renderer, sampleRate, bufferFrames int) (Output, error) {
	if err := speaker.Init(beep.SampleRate(sampleRate), bufferFrames); err != nil {
		return nil, fmt.Errorf("failed to initialize speaker: %w", err)
	}
	speaker.Play(NewBeepStreamer(r))
	return &beepOutput{}, nil
}

func (b *beepOutput) Close() error {
	b.once.Do(func() {
		speaker.Clear()
		speaker.Close()
	})
	return nil
}

type otoOutput struct {
	mu     sync.Mutex
	player *oto.Player
}

// OpenOto plays r through an oto context in float32 format.
func OpenOto(r *Renderer, sampleRate, bufferFrames int) (Output, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: r.Channels(),
		Format:       oto.FormatFloat32LE,
		BufferSize:   time.Duration(bufferFrames) * time.Second / time.Duration(sampleRate),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready

	player := ctx.NewPlayer(NewOtoReader(r))
	player.Play()
	return &otoOutput{player: player}, nil
}

func (o *otoOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player == nil {
		return nil
	}
	err := o.player.Close()
	o.player = nil
	return err
}
