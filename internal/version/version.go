// Package version carries build identification, set via ldflags.
package version

var (
	Version   = "dev"
	BuildTime = "unknown"
)
