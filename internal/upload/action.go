package upload

import (
	"errors"
	"fmt"
)

// Action tells the uploader what the brain does once flashing completes.
type Action int

const (
	ActionNone Action = iota
	ActionScreen
	ActionRun
)

var ErrInvalidAction = errors.New("invalid upload action")

// ParseAction accepts exactly "screen", "run" and "none".
func ParseAction(s string) (Action, error) {
	switch s {
	case "screen":
		return ActionScreen, nil
	case "run":
		return ActionRun, nil
	case "none":
		return ActionNone, nil
	default:
		return ActionNone, fmt.Errorf("%w. Found: %s, expected one of: screen, run, or none", ErrInvalidAction, s)
	}
}

// String returns the value passed to the uploader's --after flag.
func (a Action) String() string {
	switch a {
	case ActionScreen:
		return "screen"
	case ActionRun:
		return "run"
	default:
		return "none"
	}
}

// Set implements pflag.Value.
func (a *Action) Set(s string) error {
	v, err := ParseAction(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Type implements pflag.Value.
func (a *Action) Type() string {
	return "screen|run|none"
}
