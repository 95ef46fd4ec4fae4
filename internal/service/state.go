package service

import (
	"fmt"
	"strings"
)

// State is the derived lifecycle state of a service. It is computed per
// invocation from pid-store liveness plus an optional health probe and is
// never persisted.
type State int

const (
	Stopped State = iota
	Starting
	Running
	Healthy
	Unhealthy
	Stopping
	Failed
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Healthy:
		return "healthy"
	case Unhealthy:
		return "unhealthy"
	case Stopping:
		return "stopping"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the state as its lowercase name.
func (s State) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON decodes a lowercase state name.
func (s *State) UnmarshalJSON(b []byte) error {
	name := strings.Trim(string(b), `"`)
	for st := Stopped; st <= Failed; st++ {
		if st.String() == name {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", name)
}

// Alive reports whether the state corresponds to a live process.
func (s State) Alive() bool {
	switch s {
	case Running, Healthy, Unhealthy, Starting, Stopping:
		return true
	default:
		return false
	}
}
