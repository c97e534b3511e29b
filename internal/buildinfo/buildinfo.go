// Package buildinfo carries the release version of the assetgate binary.
package buildinfo

// Version is the canonical release version.
const Version = "0.3.0"

// Commit is set via ldflags at build time.
var Commit = "unknown"

// UserAgent is sent on every outbound HTTP request.
func UserAgent() string {
	return "assetgate/" + Version
}
