package switchentity

import (
	"fmt"
	"strings"

	"github.com/larsks/switchd/internal/optional"
)

// RestoreMode controls how a switch resolves its state at boot.
type RestoreMode int

const (
	RestoreDefaultOff RestoreMode = iota
	RestoreDefaultOn
	RestoreInvertedDefaultOff
	RestoreInvertedDefaultOn
	AlwaysOff
	AlwaysOn
)

var restoreModeNames = map[RestoreMode]string{
	RestoreDefaultOff:         "RESTORE_DEFAULT_OFF",
	RestoreDefaultOn:          "RESTORE_DEFAULT_ON",
	RestoreInvertedDefaultOff: "RESTORE_INVERTED_DEFAULT_OFF",
	RestoreInvertedDefaultOn:  "RESTORE_INVERTED_DEFAULT_ON",
	AlwaysOff:                 "ALWAYS_OFF",
	AlwaysOn:                  "ALWAYS_ON",
}

// RestoreModes lists every restore mode in declaration order.
func RestoreModes() []RestoreMode {
	return []RestoreMode{
		RestoreDefaultOff,
		RestoreDefaultOn,
		RestoreInvertedDefaultOff,
		RestoreInvertedDefaultOn,
		AlwaysOff,
		AlwaysOn,
	}
}

// ParseRestoreMode parses a restore mode name such as "RESTORE_DEFAULT_OFF".
// Case is ignored and spaces or hyphens may stand in for underscores.
func ParseRestoreMode(s string) (RestoreMode, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	for mode, name := range restoreModeNames {
		if name == norm {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidRestoreMode, s)
}

// String returns the canonical name of the mode.
func (m RestoreMode) String() string {
	if name, ok := restoreModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("RestoreMode(%d)", int(m))
}

// MarshalText implements encoding.TextMarshaler.
func (m RestoreMode) MarshalText() ([]byte, error) {
	if _, ok := restoreModeNames[m]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRestoreMode, int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *RestoreMode) UnmarshalText(text []byte) error {
	mode, err := ParseRestoreMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// IsPersistent reports whether the mode reads and writes stored state.
// Only the two "always" modes do.
func (m RestoreMode) IsPersistent() bool {
	return m == AlwaysOff || m == AlwaysOn
}

// ResolveInitialState maps a restore mode and an optionally persisted value
// to the boot-time logical state.
func ResolveInitialState(mode RestoreMode, persisted optional.Optional[bool]) bool {
	switch mode {
	case RestoreDefaultOff:
		return persisted.ValueOr(false)
	case RestoreDefaultOn:
		return persisted.ValueOr(true)
	case RestoreInvertedDefaultOff:
		return !persisted.ValueOr(true)
	case RestoreInvertedDefaultOn:
		return !persisted.ValueOr(false)
	case AlwaysOff:
		return false
	case AlwaysOn:
		return true
	}
	return false
}
