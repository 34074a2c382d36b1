package repository

import "context"

// GitExtendedRepository extends GitRepository with the write operations used to record a release.
type GitExtendedRepository interface {
	GitRepository
	// Staging operations
	AddFiles(ctx context.Context, paths ...string) error
	// Commit operations
	Commit(ctx context.Context, message string) error
	// Rollback operations
	ResetMixed(ctx context.Context, ref string) error
	GetFileStatus(ctx context.Context, path string) (string, error)
}
