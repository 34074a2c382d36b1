package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/compozy/verbump/internal/repository"
)

// CommitReleaseUseCase stages the manifest and commits it.

type CommitReleaseUseCase struct {
	GitRepo repository.GitExtendedRepository
}

// Execute returns the HEAD commit from before the new commit so callers can undo it.
// The previous HEAD is empty when the release is the branch's first commit. A
// failure after staging unstages the manifest again.
func (uc *CommitReleaseUseCase) Execute(ctx context.Context, manifestPath, message string) (string, error) {
	previousHead, err := uc.GitRepo.GetHeadCommit(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD commit: %w", err)
	}
	if err := uc.GitRepo.AddFiles(ctx, manifestPath); err != nil {
		return "", fmt.Errorf("failed to stage manifest: %w", err)
	}
	status, err := uc.GitRepo.GetFileStatus(ctx, manifestPath)
	if err != nil {
		return "", uc.unstage(ctx, previousHead, fmt.Errorf("failed to get manifest status: %w", err))
	}
	if status == "clean" {
		return "", fmt.Errorf("nothing to commit: %s is unchanged", manifestPath)
	}
	if err := uc.GitRepo.Commit(ctx, message); err != nil {
		return "", uc.unstage(ctx, previousHead, fmt.Errorf("failed to commit release: %w", err))
	}
	return previousHead, nil
}

func (uc *CommitReleaseUseCase) unstage(ctx context.Context, previousHead string, cause error) error {
	if err := uc.GitRepo.ResetMixed(ctx, previousHead); err != nil {
		return errors.Join(cause, fmt.Errorf("failed to unstage manifest: %w", err))
	}
	return cause
}

// TagReleaseUseCase tags the release commit.
type TagReleaseUseCase struct {
	GitRepo repository.GitRepository
}

// Execute creates a lightweight tag at HEAD.
func (uc *TagReleaseUseCase) Execute(ctx context.Context, tagName string) error {
	if err := uc.GitRepo.CreateTag(ctx, tagName, ""); err != nil {
		return fmt.Errorf("failed to create tag %s: %w", tagName, err)
	}
	return nil
}
