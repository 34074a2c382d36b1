package repository

import "context"

// ManifestRepository reads and rewrites the package manifest holding the version.
type ManifestRepository interface {
	Path() string
	Name(ctx context.Context) (string, error)
	// ReadVersion returns the raw version member and whether it is present.
	ReadVersion(ctx context.Context) (string, bool, error)
	// WriteVersion sets the version member and persists the manifest.
	WriteVersion(ctx context.Context, version string) error
	// Reload drops any cached manifest content so the next read hits storage.
	Reload(ctx context.Context) error
	Scripts(ctx context.Context) (map[string][]string, error)
}
