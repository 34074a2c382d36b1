package service

import "time"

// Timeout constants for service operations
const (
	// DefaultHookTimeout bounds a single lifecycle hook, including referenced scripts
	DefaultHookTimeout = 10 * time.Minute
)

// Environment variables exported to hook commands
const (
	EnvPackageVersion = "VERBUMP_PACKAGE_VERSION"
	EnvManifest       = "VERBUMP_MANIFEST"
)
