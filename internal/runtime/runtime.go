// Package runtime holds the process-wide singleton built once at startup
// and shared by every tool invocation for the lifetime of the process.
package runtime

import (
	"sync"

	"github.com/augmentcode/codesync/internal/api"
	"github.com/augmentcode/codesync/internal/debug"
	"github.com/augmentcode/codesync/internal/startup"
)

// Runtime is the set-once, read-many state shared across tool calls: the
// validated startup state and the authenticated API client built from it.
type Runtime struct {
	State  *startup.State
	Client *api.Client
}

var (
	mu       sync.RWMutex
	instance *Runtime
)

// Set installs the process-wide Runtime. Only the first call takes effect;
// later calls are logged and ignored.
func Set(r *Runtime) {
	mu.Lock()
	defer mu.Unlock()
	if instance != nil {
		debug.Log("runtime already set, ignoring new instance")
		return
	}
	instance = r
}

// Get returns the process-wide Runtime, or nil if Set has not yet been
// called.
func Get() *Runtime {
	mu.RLock()
	defer mu.RUnlock()
	return instance
}
