package calibration

import (
	"encoding/json"
	"fmt"
	"strings"
)

// State is the phase of a calibration run as reported by the device.
type State int

const (
	Idle State = iota
	InProgress
	Completed
	Failed
)

var stateNames = map[State]string{
	Idle:       "idle",
	InProgress: "in_progress",
	Completed:  "completed",
	Failed:     "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether no further steps are accepted in this state.
func (s State) Terminal() bool {
	return s == Completed || s == Failed
}

// MarshalText encodes the state as its wire name.
func (s State) MarshalText() ([]byte, error) {
	name, ok := stateNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown calibration state %d", int(s))
	}
	return []byte(name), nil
}

// UnmarshalText accepts the wire names case-insensitively, with or without
// separators ("in_progress", "InProgress", "in-progress").
func (s *State) UnmarshalText(text []byte) error {
	normalized := strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(string(text)))
	for state, name := range stateNames {
		if strings.ReplaceAll(name, "_", "") == normalized {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown calibration state %q", string(text))
}

// Status is the device's view of a calibration run.
type Status struct {
	State       State `json:"state"`
	CurrentStep uint  `json:"current_step"`
	TotalSteps  uint  `json:"total_steps"`

	// Frame size the calibration runs at.
	Width  uint `json:"width"`
	Height uint `json:"height"`
}

type statusWire struct {
	State       *State `json:"state"`
	CurrentStep uint   `json:"current_step"`
	TotalSteps  uint   `json:"total_steps"`
	Width       uint   `json:"width"`
	Height      uint   `json:"height"`
}

// UnmarshalJSON decodes a status. Devices that do not report "state" get one
// derived from the step counters.
func (s *Status) UnmarshalJSON(data []byte) error {
	var wire statusWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*s = Status{
		CurrentStep: wire.CurrentStep,
		TotalSteps:  wire.TotalSteps,
		Width:       wire.Width,
		Height:      wire.Height,
	}
	if wire.State != nil {
		s.State = *wire.State
	} else {
		s.State = DeriveState(wire.CurrentStep, wire.TotalSteps)
	}
	return nil
}

// DeriveState infers the phase from step counters. Failed is never derived.
func DeriveState(current, total uint) State {
	switch {
	case current == 0:
		return Idle
	case total > 0 && current >= total:
		return Completed
	default:
		return InProgress
	}
}

// Progress returns completion in [0, 1]. Zero when TotalSteps is unknown.
func (s Status) Progress() float64 {
	if s.TotalSteps == 0 {
		return 0
	}
	if s.CurrentStep >= s.TotalSteps {
		return 1
	}
	return float64(s.CurrentStep) / float64(s.TotalSteps)
}

func (s Status) String() string {
	return fmt.Sprintf("%s %d/%d (%dx%d)", s.State, s.CurrentStep, s.TotalSteps, s.Width, s.Height)
}
