// Package version holds build metadata injected via ldflags:
//
//	-X github.com/kailas-cloud/b2bsearch/internal/version.Version=v1.2.0
package version

import (
	"runtime/debug"
	"sync"
)

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

var fillOnce sync.Once

// Info returns the build metadata. When ldflags left Commit unset, the VCS
// revision stamped by the go tool is used instead.
func Info() (version, commit, date string) {
	fillOnce.Do(func() {
		if Commit != "unknown" {
			return
		}
		bi, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				Commit = s.Value
			case "vcs.time":
				if Date == "unknown" {
					Date = s.Value
				}
			}
		}
	})
	return Version, Commit, Date
}
