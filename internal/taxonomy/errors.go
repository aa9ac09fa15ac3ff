package taxonomy

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration is matched by every taxonomy structure violation
	ErrConfiguration = errors.New("invalid taxonomy")

	// ErrArtifact is returned when a taxonomy artifact cannot be located, read or parsed
	ErrArtifact = errors.New("taxonomy artifact unavailable")
)

// ConfigurationError reports a taxonomy that cannot serve as a label hierarchy
// (no unique root, cycles, unreachable nodes, bad relabel mappings).
type ConfigurationError struct {
	Reason string
	Nodes  []string
}

func (e *ConfigurationError) Error() string {
	if len(e.Nodes) == 0 {
		return fmt.Sprintf("invalid taxonomy: %s", e.Reason)
	}
	return fmt.Sprintf("invalid taxonomy: %s: %s", e.Reason, strings.Join(e.Nodes, ", "))
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

func configErr(reason string, nodes ...string) error {
	return &ConfigurationError{Reason: reason, Nodes: nodes}
}
