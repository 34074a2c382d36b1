package repository

import "context"

// GitRepository defines the interface for the tag queries a bump needs.

type GitRepository interface {
	TagsAtHead(ctx context.Context) ([]string, error)
	TagExists(ctx context.Context, tag string) (bool, error)
	CreateTag(ctx context.Context, tag, msg string) error
	GetHeadCommit(ctx context.Context) (string, error)
}
