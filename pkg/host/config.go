package host

import (
	"fmt"
	"os"

	"github.com/sugawarayuuta/sonnet"

	"github.com/elysium-audio/elysium/pkg/debug"
	"github.com/elysium-audio/elysium/pkg/plugin"
)

// Config describes a standalone session.
type Config struct {
	SampleRate   int     `json:"sample_rate"`
	BufferFrames int     `json:"buffer_frames"`
	MaxBlock     int     `json:"max_block"`
	Channels     int     `json:"channels"`
	Voices       int     `json:"voices"`
	Gain         float64 `json:"gain"`
	Backend      string  `json:"backend"`
	MIDIInput    string  `json:"midi_input,omitempty"`
	InboxSize    int     `json:"inbox_size"`
	Contention   string  `json:"contention"`
	LogLevel     string  `json:"log_level"`
	LogFile      string  `json:"log_file,omitempty"`
}

// DefaultConfig returns a 44.1 kHz stereo session on the beep backend.
func DefaultConfig() Config {
	return Config{
		SampleRate:   44100,
		BufferFrames: 2048,
		MaxBlock:     512,
		Channels:     plugin.DefaultChannels,
		Voices:       16,
		Gain:         0.1,
		Backend:      BackendBeep,
		InboxSize:    256,
		Contention:   plugin.ContentionAbort.String(),
		LogLevel:     "info",
	}
}

// LoadConfig reads a JSON file over the defaults. Fields missing from the
// file keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := sonnet.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks every field.
func (c Config) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return &plugin.ConfigError{Field: "sample rate", Value: c.SampleRate}
	case c.BufferFrames <= 0:
		return &plugin.ConfigError{Field: "buffer frames", Value: c.BufferFrames}
	case c.MaxBlock <= 0:
		return &plugin.ConfigError{Field: "maximum block", Value: c.MaxBlock}
	case c.Channels <= 0:
		return &plugin.ConfigError{Field: "channel count", Value: c.Channels}
	case c.Voices <= 0:
		return &plugin.ConfigError{Field: "voice count", Value: c.Voices}
	case c.Gain < 0:
		return &plugin.ConfigError{Field: "gain", Value: c.Gain}
	case c.InboxSize <= 0:
		return &plugin.ConfigError{Field: "inbox size", Value: c.InboxSize}
	case c.Backend != BackendBeep && c.Backend != BackendOto:
		return &plugin.ConfigError{Field: "backend", Value: c.Backend}
	}
	if _, err := plugin.ParseContentionPolicy(c.Contention); err != nil {
		return err
	}
	if _, err := debug.ParseLevel(c.LogLevel); err != nil {
		return &plugin.ConfigError{Field: "log level", Value: c.LogLevel}
	}
	return nil
}

// Logger builds the session logger. It writes to LogFile when set and to
// stderr otherwise.
func (c Config) Logger() (*debug.Logger, error) {
	level, err := debug.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}

	log := debug.Default()
	if c.LogFile != "" {
		if log, err = debug.NewFileLogger(c.LogFile, "elysium", debug.DefaultFlags); err != nil {
			return nil, err
		}
	}
	log.SetLevel(level)
	return log, nil
}

// PluginConfig converts c into a processor configuration using log.
func (c Config) PluginConfig(log *debug.Logger) (plugin.Config, error) {
	policy, err := plugin.ParseContentionPolicy(c.Contention)
	if err != nil {
		return plugin.Config{}, err
	}
	cfg := plugin.DefaultConfig()
	cfg.Channels = c.Channels
	cfg.Contention = policy
	cfg.Logger = log
	return cfg, nil
}

// JSON encodes c in the file format LoadConfig reads.
func (c Config) JSON() ([]byte, error) {
	return sonnet.MarshalIndent(c, "", "  ")
}
