// Package version holds the build version, overridable with
// -ldflags "-X umlc/internal/shared/version.Version=...".
package version

var Version = "0.1.0"
