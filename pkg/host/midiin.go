package host

import (
	"fmt"
	"strings"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/elysium-audio/elysium/pkg/debug"
)

// MIDIInput forwards messages from a hardware port into an Inbox.
type MIDIInput struct {
	mu    sync.Mutex
	drv   *rtmididrv.Driver
	in    drivers.In
	stop  func()
	inbox *Inbox
	log   *debug.Logger
}

// ListMIDIInputs returns the names of the available input ports.
func ListMIDIInputs() ([]string, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("failed to open MIDI driver: %w", err)
	}
	defer drv.Close()

	ins, err := drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("failed to list MIDI inputs: %w", err)
	}
	names := make([]string, len(ins))
	for i, in := range ins {
		names[i] = in.String()
	}
	return names, nil
}

// matchPort picks the port called want. An exact name wins; otherwise a
// single case-insensitive substring match is accepted.
func matchPort(names []string, want string) (int, error) {
	for i, name := range names {
		if name == want {
			return i, nil
		}
	}

	found := -1
	lower := strings.ToLower(want)
	for i, name := range names {
		if !strings.Contains(strings.ToLower(name), lower) {
			continue
		}
		if found != -1 {
			return -1, fmt.Errorf("MIDI input %q is ambiguous: %q and %q", want, names[found], name)
		}
		found = i
	}
	if found == -1 {
		return -1, fmt.Errorf("MIDI input %q not found", want)
	}
	return found, nil
}

// OpenMIDIInput opens the port matching name and starts pushing its
// messages into inbox.
func OpenMIDIInput(name string, inbox *Inbox, log *debug.Logger) (*MIDIInput, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("failed to open MIDI driver: %w", err)
	}

	ins, err := drv.Ins()
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("failed to list MIDI inputs: %w", err)
	}
	names := make([]string, len(ins))
	for i, in := range ins {
		names[i] = in.String()
	}
	idx, err := matchPort(names, name)
	if err != nil {
		drv.Close()
		return nil, err
	}
	in := ins[idx]

	if err := in.Open(); err != nil {
		drv.Close()
		return nil, fmt.Errorf("failed to open MIDI port %q: %w", in.String(), err)
	}

	m := &MIDIInput{drv: drv, in: in, inbox: inbox, log: log}
	stop, err := gomidi.ListenTo(in, m.receive, gomidi.HandleError(func(err error) {
		log.Warn("MIDI listener error on %q: %v", in.String(), err)
	}))
	if err != nil {
		in.Close()
		drv.Close()
		return nil, fmt.Errorf("failed to start MIDI listener: %w", err)
	}
	m.stop = stop

	log.Info("MIDI input connected: %s", in.String())
	return m, nil
}

func (m *MIDIInput) receive(msg gomidi.Message, timestampms int32) {
	if !m.inbox.Push(msg) {
		m.log.Debug("dropped MIDI message %s", msg)
	}
}

// Name returns the connected port name.
func (m *MIDIInput) Name() string {
	return m.in.String()
}

// Close stops listening and releases the port. Calling Close again is a
// no-op.
func (m *MIDIInput) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stop == nil {
		return nil
	}
	m.stop()
	m.stop = nil

	err := m.in.Close()
	if derr := m.drv.Close(); err == nil {
		err = derr
	}
	m.log.Info("MIDI input closed")
	return err
}
