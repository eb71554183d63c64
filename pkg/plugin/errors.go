package plugin

import (
	"errors"
	"fmt"
)

var (
	// ErrContention means the realtime thread found the engine held by
	// another thread. The host called into the plugin concurrently.
	ErrContention = errors.New("the audio thread failed to get exclusive access to the engine; " +
		"the host is probably not handling data races correctly")

	// ErrContractViolation is the parent of every ContractError.
	ErrContractViolation = errors.New("buffer contract violation")

	// ErrNotPrepared means ProcessBlock was called with no negotiated
	// contract: before Prepare, or after Reset or Close.
	ErrNotPrepared = fmt.Errorf("%w: processBlock called before prepare", ErrContractViolation)

	// ErrClosed is returned by control calls on a closed processor.
	ErrClosed = errors.New("processor is closed")
)

// ContractError reports a realtime buffer whose shape disagrees with the
// contract negotiated in Prepare.
type ContractError struct {
	Field    string // "channels", "samples" or "capacity"
	Expected int
	Actual   int
}

func (e *ContractError) Error() string {
	switch e.Field {
	case "samples":
		return fmt.Sprintf("%v: sample count %d exceeds the negotiated maximum %d",
			ErrContractViolation, e.Actual, e.Expected)
	case "capacity":
		return fmt.Sprintf("%v: channels hold %d samples but %d were reported",
			ErrContractViolation, e.Actual, e.Expected)
	default:
		return fmt.Sprintf("%v: expected %d %s, got %d",
			ErrContractViolation, e.Expected, e.Field, e.Actual)
	}
}

// Unwrap lets errors.Is match ErrContractViolation.
func (e *ContractError) Unwrap() error {
	return ErrContractViolation
}

// ConfigError reports an invalid Prepare argument or Config field.
type ConfigError struct {
	Field string
	Value interface{}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Value)
}
