// File: control/config.go
// Author: momentics <momentics@gmail.com>
//
// Lock-free configuration store: readers get a consistent snapshot with a
// single atomic load, writers install a new snapshot with a single atomic
// store (spec §4.1 "config_load returns one atomically-consistent snapshot
// per call; concurrent config_update never tears a read"). Generalizes the
// teacher's map-based ConfigStore to the fixed api.Config shape and keeps
// its reload-hook notification pattern (control/hotreload.go) for
// components that must react to a change rather than just read lazily.

package control

import (
	"sync/atomic"

	"github.com/momentics/packetengine/api"
)

// ConfigStore holds the engine's live configuration snapshot.
type ConfigStore struct {
	current atomic.Pointer[api.Config]
	hooks   ReloadHooks
}

// NewConfigStore creates a store seeded with initial.
func NewConfigStore(initial api.Config) *ConfigStore {
	cs := &ConfigStore{}
	cs.current.Store(&initial)
	return cs
}

// Load returns the current configuration snapshot (spec §4.1 config_load).
// Safe to call from the classifier hot path: a single atomic pointer load,
// no locking.
func (cs *ConfigStore) Load() api.Config {
	return *cs.current.Load()
}

// Update installs a new configuration snapshot and notifies any registered
// reload hooks (spec §4.5 control_update_config). Readers that already
// loaded the previous snapshot keep using it to completion; there is no
// tearing.
func (cs *ConfigStore) Update(next api.Config) {
	cs.current.Store(&next)
	cs.hooks.dispatch(next)
}

// OnReload registers fn to run (in its own goroutine) after every Update.
func (cs *ConfigStore) OnReload(fn func(api.Config)) {
	cs.hooks.register(fn)
}
