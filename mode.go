package msc

import (
	"encoding/json"
	"fmt"
)

// Mode specifies the initial start mode of a service in a Container.
// The mode determines when, and whether, the container starts the service
// after installation.
type Mode int

const (
	// ModeAutomatic specifies that the service starts as soon as it is
	// installed and its mandatory dependencies are available.
	ModeAutomatic Mode = iota

	// ModeActive specifies that the service was explicitly requested to be
	// up. Like ModeAutomatic it starts at install time; the distinction is
	// informational for schedulers that demand-start dependencies.
	ModeActive

	// ModePassive specifies that the service starts only on demand, when a
	// dependant requires it.
	ModePassive

	// ModeNever specifies that the service never starts. A mandatory
	// dependency on a never-started service cannot be satisfied.
	ModeNever
)

// String returns the string representation of the Mode.
func (m Mode) String() string {
	switch m {
	case ModeAutomatic:
		return "Automatic"
	case ModeActive:
		return "Active"
	case ModePassive:
		return "Passive"
	case ModeNever:
		return "Never"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// IsValid checks if the mode is one of the defined values.
func (m Mode) IsValid() bool {
	return m >= ModeAutomatic && m <= ModeNever
}

// startsAtInstall reports whether the container starts the service as part
// of batch installation.
func (m Mode) startsAtInstall() bool {
	return m == ModeAutomatic || m == ModeActive
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.IsValid() {
		return nil, &ModeError{Value: int(m)}
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Automatic", "automatic":
		*m = ModeAutomatic
	case "Active", "active":
		*m = ModeActive
	case "Passive", "passive", "OnDemand", "on_demand":
		*m = ModePassive
	case "Never", "never":
		*m = ModeNever
	default:
		return &ModeError{Value: string(text)}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (m Mode) MarshalJSON() ([]byte, error) {
	if !m.IsValid() {
		return nil, &ModeError{Value: int(m)}
	}
	return json.Marshal(m.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Mode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return m.UnmarshalText([]byte(s))
}
