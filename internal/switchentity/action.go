package switchentity

import (
	"fmt"
	"strings"
)

// Action is a command that can be applied to a switch.
type Action int

const (
	ActionOn Action = iota
	ActionOff
	ActionToggle
)

// ParseAction parses "on", "off" or "toggle", ignoring case.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on":
		return ActionOn, nil
	case "off":
		return ActionOff, nil
	case "toggle":
		return ActionToggle, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidAction, s)
}

// Apply performs the action on sw.
func (a Action) Apply(sw *Switch) {
	switch a {
	case ActionOn:
		sw.TurnOn()
	case ActionOff:
		sw.TurnOff()
	case ActionToggle:
		sw.Toggle()
	}
}

func (a Action) String() string {
	switch a {
	case ActionOn:
		return "on"
	case ActionOff:
		return "off"
	case ActionToggle:
		return "toggle"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}
