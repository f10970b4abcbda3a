package filter

import (
	"encoding/json"
	"fmt"
)

// Level is the severity of a content filtering decision.
// Ordering is significant: higher values always win when multiple
// categories match, and BlockHard cannot be overridden by configuration.
type Level int

const (
	Allow Level = iota
	Warn
	BlockSoft
	BlockHard
)

// String returns the wire name of the level.
func (l Level) String() string {
	switch l {
	case Allow:
		return "allow"
	case Warn:
		return "warn"
	case BlockSoft:
		return "block_soft"
	case BlockHard:
		return "block_hard"
	default:
		return "unknown"
	}
}

// ParseLevel maps a wire name back to its level.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "allow":
		return Allow, nil
	case "warn":
		return Warn, nil
	case "block_soft":
		return BlockSoft, nil
	case "block_hard":
		return BlockHard, nil
	default:
		return Allow, fmt.Errorf("unknown filter level %q", s)
	}
}

// MarshalJSON writes the level by name so wire payloads read without
// the enum table.
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON accepts the names MarshalJSON produces.
func (l *Level) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseLevel(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
