// Package registry holds the process-wide handle to C3 (the executor),
// mirroring the global session store singleton pattern. C5 sets it on start
// and clears it on stop. The httpapi handlers, the dispatcher and the CLI
// subcommands do not read it: C5 hands the executor to the first two
// directly, and the "stats" subcommand opens the store itself.
package registry

import (
	"errors"
	"sync"

	"github.com/doumanash/roseline/internal/executor"
)

var (
	mu  sync.RWMutex
	exe *executor.Executor
)

// ErrNotReady is returned by Executor before C5 has finished starting up.
var ErrNotReady = errors.New("registry: executor not set")

// SetExecutor installs the running executor. C5 calls this once, after C1
// and C2 have both started successfully.
func SetExecutor(e *executor.Executor) {
	mu.Lock()
	defer mu.Unlock()
	exe = e
}

// Executor returns the installed executor, or ErrNotReady if C5 has not
// called SetExecutor yet.
func Executor() (*executor.Executor, error) {
	mu.RLock()
	defer mu.RUnlock()
	if exe == nil {
		return nil, ErrNotReady
	}
	return exe, nil
}

// Reset clears the installed executor. Used by tests and by C5 on shutdown.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	exe = nil
}
