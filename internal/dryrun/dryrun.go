// Package dryrun holds the process-wide dry-run state consulted by the
// recipe executor. Dry-run can be requested by flag or through the
// MDMAKE_DRYRUN environment variable.
package dryrun

import (
	"os"
	"sync"
)

// Env is the environment variable that requests dry-run mode.
const Env = "MDMAKE_DRYRUN"

//nolint:gochecknoglobals // package-level state guarded by sync.Once
var (
	requested bool
	envOnce   sync.Once
	envValue  bool
)

// Set records an explicit dry-run request (usually from the -n flag).
func Set(value bool) {
	requested = value
}

// Active reports whether dry-run mode is in effect, either via Set or the
// environment.
func Active() bool {
	envOnce.Do(func() {
		envValue = os.Getenv(Env) != ""
	})
	return requested || envValue
}
