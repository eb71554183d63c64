package plugin

import (
	"fmt"
	"os"
	"strings"

	"github.com/elysium-audio/elysium/pkg/debug"
)

// DefaultChannels is the fixed stereo output layout.
const DefaultChannels = 2

// Exit codes used when the bridge terminates the process.
const (
	ExitContractViolation = 70
	ExitContention        = 71
)

// ContentionPolicy selects what ProcessBlock does when the engine is held by
// another thread.
type ContentionPolicy int

const (
	// ContentionAbort silences the output and terminates the process.
	ContentionAbort ContentionPolicy = iota
	// ContentionSilence silences the output, logs once and keeps running.
	// The skipped block's events never reach the engine; see
	// Processor.ProcessBlock.
	ContentionSilence
)

// String returns the policy name used in configuration files.
func (p ContentionPolicy) String() string {
	switch p {
	case ContentionAbort:
		return "abort"
	case ContentionSilence:
		return "silence"
	default:
		return fmt.Sprintf("ContentionPolicy(%d)", int(p))
	}
}

// ParseContentionPolicy converts "abort" or "silence" to a policy.
func ParseContentionPolicy(s string) (ContentionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "abort", "":
		return ContentionAbort, nil
	case "silence":
		return ContentionSilence, nil
	}
	return ContentionAbort, &ConfigError{Field: "contention policy", Value: s}
}

// Config controls a Processor.
type Config struct {
	// Channels is the fixed channel count every block must have.
	Channels int

	// Contention decides whether realtime contention is fatal.
	// Buffer contract violations are always fatal.
	Contention ContentionPolicy

	// Logger receives diagnostics. Defaults to debug.Default().
	Logger *debug.Logger

	// Exit terminates the process after a fatal diagnostic. Defaults to
	// os.Exit. If it returns, ProcessBlock returns with the output silenced.
	Exit func(code int)
}

// DefaultConfig returns a stereo, fail-fast configuration.
func DefaultConfig() Config {
	return Config{
		Channels:   DefaultChannels,
		Contention: ContentionAbort,
		Logger:     debug.Default(),
		Exit:       os.Exit,
	}
}

func (c Config) withDefaults() (Config, error) {
	if c.Channels <= 0 {
		return c, &ConfigError{Field: "channel count", Value: c.Channels}
	}
	if c.Contention != ContentionAbort && c.Contention != ContentionSilence {
		return c, &ConfigError{Field: "contention policy", Value: c.Contention}
	}
	if c.Logger == nil {
		c.Logger = debug.Default()
	}
	if c.Exit == nil {
		c.Exit = os.Exit
	}
	return c, nil
}
