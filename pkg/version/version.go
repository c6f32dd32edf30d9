// Package version holds the build version, set at link time via
// -ldflags "-X .../pkg/version.Version=...".
package version

var Version = "dev"
