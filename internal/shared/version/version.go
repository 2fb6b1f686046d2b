// Package version holds the build version, set at link time with
// -ldflags "-X loadscript/internal/shared/version.Version=...".
package version

var Version = "dev"
