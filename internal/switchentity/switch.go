// Package switchentity implements the on/off switch entity shared by every
// switch driver: inversion, restore-on-boot, deduplicated state publication
// and state observers.
//
// A Switch is not safe for concurrent use. Callers serialize access, which
// switchd does by running every switch operation on its event loop.
package switchentity

import (
	"github.com/rs/zerolog/log"

	"github.com/larsks/switchd/internal/dedup"
	"github.com/larsks/switchd/internal/entity"
	"github.com/larsks/switchd/internal/optional"
	"github.com/larsks/switchd/internal/preferences"
)

type (
	// Writer performs the physical write of a raw state. Drivers implement
	// it and report the resulting state back through PublishState.
	Writer interface {
		WriteState(state bool)
	}

	// AssumedStater is implemented by writers whose real state cannot be
	// read back from the device.
	AssumedStater interface {
		HasAssumedState() bool
	}
)

// Switch is a named on/off entity.
type Switch struct {
	entity.Entity

	writer Writer
	store  preferences.Store
	pref   preferences.Preference

	state       bool
	inverted    bool
	restoreMode RestoreMode
	deviceClass optional.Optional[string]

	publishDedup dedup.Deduplicator[bool]
	callbacks    []func(state bool)
}

// New creates a switch that writes through writer and persists its state in
// store. store may be nil, in which case persistent restore modes behave as
// if storage were unavailable.
func New(name string, writer Writer, store preferences.Store) *Switch {
	return &Switch{
		Entity: entity.New(name),
		writer: writer,
		store:  store,
	}
}

// TurnOn writes the raw value that yields a logical ON.
func (s *Switch) TurnOn() {
	log.Debug().Str("switch", s.Name()).Msg("Turning ON")
	s.write(!s.inverted)
}

// TurnOff writes the raw value that yields a logical OFF.
func (s *Switch) TurnOff() {
	log.Debug().Str("switch", s.Name()).Msg("Turning OFF")
	s.write(s.inverted)
}

// Toggle writes the raw value that flips the current logical state.
func (s *Switch) Toggle() {
	log.Debug().Str("switch", s.Name()).Str("to", onOff(!s.state)).Msg("Toggling")
	s.write(s.inverted == s.state)
}

func (s *Switch) write(state bool) {
	if s.writer == nil {
		log.Warn().Str("switch", s.Name()).Msg("switch has no writer")
		return
	}
	s.writer.WriteState(state)
}

// InitialState returns the persisted state, if the restore mode is
// persistent and a value was previously stored.
func (s *Switch) InitialState() optional.Optional[bool] {
	if !s.IsRestoreModePersistent() {
		return optional.None[bool]()
	}

	pref := s.preference()
	if pref == nil {
		return optional.None[bool]()
	}

	var state bool
	if err := pref.Load(&state); err != nil {
		log.Debug().Err(err).Str("switch", s.Name()).Msg("no stored state")
		return optional.None[bool]()
	}
	return optional.Some(state)
}

// InitialStateWithRestoreMode resolves the boot-time logical state from the
// restore mode.
func (s *Switch) InitialStateWithRestoreMode() bool {
	restored := s.InitialState()
	if state, ok := restored.Get(); ok {
		log.Debug().Str("switch", s.Name()).Bool("state", state).Msg("restoring stored state")
	}
	return ResolveInitialState(s.restoreMode, restored)
}

// PublishState reports a new raw state. Repeats of the previously published
// raw value are dropped. Otherwise the logical state is updated, stored when
// the restore mode is persistent, and passed to every state callback.
func (s *Switch) PublishState(state bool) {
	if !s.publishDedup.Next(state) {
		return
	}
	s.state = state != s.inverted

	if s.IsRestoreModePersistent() {
		if pref := s.preference(); pref != nil {
			if err := pref.Save(s.state); err != nil {
				log.Warn().Err(err).Str("switch", s.Name()).Msg("failed to store state")
			}
		}
	}

	log.Debug().Str("switch", s.Name()).Str("state", onOff(s.state)).Msg("Sending state")
	for _, cb := range s.callbacks {
		cb(s.state)
	}
}

// preference binds the preference handle on first use.
func (s *Switch) preference() preferences.Preference {
	if s.pref == nil && s.store != nil {
		s.pref = s.store.MakePreference(s.ObjectIDHash())
	}
	return s.pref
}

// State returns the logical state. It is false until the first publish.
func (s *Switch) State() bool {
	return s.state
}

// HasState reports whether a state has ever been published.
func (s *Switch) HasState() bool {
	return s.publishDedup.HasValue()
}

// AssumedState reports whether the switch state is assumed rather than read
// back from the device.
func (s *Switch) AssumedState() bool {
	if a, ok := s.writer.(AssumedStater); ok {
		return a.HasAssumedState()
	}
	return false
}

// IsRestoreModePersistent reports whether the restore mode stores state.
func (s *Switch) IsRestoreModePersistent() bool {
	return s.restoreMode.IsPersistent()
}

// AddOnStateCallback registers a callback invoked with the logical state on
// every published change, in registration order.
func (s *Switch) AddOnStateCallback(callback func(state bool)) {
	s.callbacks = append(s.callbacks, callback)
}

func (s *Switch) SetWriter(writer Writer) { s.writer = writer }

func (s *Switch) SetInverted(inverted bool) { s.inverted = inverted }
func (s *Switch) IsInverted() bool          { return s.inverted }

func (s *Switch) SetRestoreMode(mode RestoreMode) { s.restoreMode = mode }
func (s *Switch) RestoreMode() RestoreMode        { return s.restoreMode }

func (s *Switch) SetDeviceClass(deviceClass string) {
	s.deviceClass = optional.Some(deviceClass)
}

// DeviceClass returns the device class, or "" when none was set.
func (s *Switch) DeviceClass() string {
	return s.deviceClass.ValueOr("")
}

func onOff(state bool) string {
	if state {
		return "ON"
	}
	return "OFF"
}
