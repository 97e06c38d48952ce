package switchentity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larsks/switchd/internal/optional"
)

func TestResolveInitialState(t *testing.T) {
	none := optional.None[bool]()
	on := optional.Some(true)
	off := optional.Some(false)

	tests := []struct {
		mode      RestoreMode
		persisted optional.Optional[bool]
		want      bool
	}{
		{RestoreDefaultOff, none, false},
		{RestoreDefaultOff, on, true},
		{RestoreDefaultOff, off, false},
		{RestoreDefaultOn, none, true},
		{RestoreDefaultOn, on, true},
		{RestoreDefaultOn, off, false},
		{RestoreInvertedDefaultOff, none, false},
		{RestoreInvertedDefaultOff, on, false},
		{RestoreInvertedDefaultOff, off, true},
		{RestoreInvertedDefaultOn, none, true},
		{RestoreInvertedDefaultOn, on, false},
		{RestoreInvertedDefaultOn, off, true},
		{AlwaysOff, none, false},
		{AlwaysOff, on, false},
		{AlwaysOn, none, true},
		{AlwaysOn, off, true},
	}

	for _, tt := range tests {
		got := ResolveInitialState(tt.mode, tt.persisted)
		assert.Equal(t, tt.want, got, "%s persisted=%+v", tt.mode, tt.persisted)
	}
}

func TestParseRestoreMode(t *testing.T) {
	tests := []struct {
		input string
		want  RestoreMode
	}{
		{"RESTORE_DEFAULT_OFF", RestoreDefaultOff},
		{"restore_default_on", RestoreDefaultOn},
		{"restore inverted default off", RestoreInvertedDefaultOff},
		{"Restore-Inverted-Default-On", RestoreInvertedDefaultOn},
		{" ALWAYS_OFF ", AlwaysOff},
		{"always on", AlwaysOn},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRestoreMode(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseRestoreMode("RESTORE_SOMETIMES")
	assert.ErrorIs(t, err, ErrInvalidRestoreMode)
}

func TestRestoreModeText(t *testing.T) {
	for _, mode := range RestoreModes() {
		text, err := mode.MarshalText()
		require.NoError(t, err)

		var decoded RestoreMode
		require.NoError(t, decoded.UnmarshalText(text))
		assert.Equal(t, mode, decoded)
	}

	_, err := RestoreMode(42).MarshalText()
	assert.ErrorIs(t, err, ErrInvalidRestoreMode)
	assert.Equal(t, "RestoreMode(42)", RestoreMode(42).String())
}
