package repository

import "github.com/spf13/afero"

// FileSystemRepository is the storage backing manifests and the journal.

type FileSystemRepository interface {
	afero.Fs
}

// NewOSFileSystem returns the host filesystem.
func NewOSFileSystem() FileSystemRepository {
	return afero.NewOsFs()
}
