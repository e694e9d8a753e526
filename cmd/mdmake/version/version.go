// Package version resolves the mdmake binary version.
package version

import (
	"runtime/debug"
	"strings"
)

// Version is the CLI version. It can be overridden at build time via:
//
//	-ldflags "-X github.com/yaklabco/mdmake/cmd/mdmake/version.Version=v0.0.0"
var Version = "dev" //nolint:gochecknoglobals // Populated by goreleaser ldflags.

// Effective returns the best-effort version string for the binary: the
// ldflags-injected version, the module version for `go install pkg@version`
// builds, the VCS revision, or "dev".
func Effective() string {
	v := strings.TrimSpace(Version)
	if v != "" && v != "dev" {
		return v
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		if mv := strings.TrimSpace(bi.Main.Version); mv != "" && mv != "(devel)" {
			return mv
		}
		var rev, dirty string
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				rev = s.Value
			case "vcs.modified":
				if s.Value == "true" {
					dirty = "-dirty"
				}
			}
		}
		if rev != "" {
			if len(rev) > 12 {
				rev = rev[:12]
			}
			return rev + dirty
		}
	}
	return "dev"
}
