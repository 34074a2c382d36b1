package version

import (
	"fmt"
	"strings"
)

// Set through -ldflags at build time.
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// Summary returns a human-friendly version string for CLI output.
func Summary() string {
	return SafeValue(Version, "dev")
}

// Details returns the version with commit and build date.
func Details() string {
	return fmt.Sprintf("%s (commit %s, built %s)",
		Summary(),
		SafeValue(CommitHash, "unknown"),
		SafeValue(BuildDate, "unknown"))
}

// SafeValue returns value trimmed, or fallback when it is blank.
func SafeValue(value, fallback string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	return trimmed
}
