// File: control/hotreload.go
// Author: momentics <momentics@gmail.com>
//
// Reload-hook dispatch used by ConfigStore.OnReload/Update. Scoped to a
// single ConfigStore instance rather than the teacher's package-level
// global, since more than one engine instance can exist in a test process.

package control

import (
	"sync"

	"github.com/momentics/packetengine/api"
)

// ReloadHooks is a registry of functions invoked after every configuration
// update, each receiving the newly installed snapshot.
type ReloadHooks struct {
	mu    sync.Mutex
	funcs []func(api.Config)
}

func (h *ReloadHooks) register(fn func(api.Config)) {
	h.mu.Lock()
	h.funcs = append(h.funcs, fn)
	h.mu.Unlock()
}

// dispatch runs every registered hook with next, each in its own goroutine
// so a slow listener never delays the writer that called Update.
func (h *ReloadHooks) dispatch(next api.Config) {
	h.mu.Lock()
	funcs := make([]func(api.Config), len(h.funcs))
	copy(funcs, h.funcs)
	h.mu.Unlock()

	for _, fn := range funcs {
		go fn(next)
	}
}
