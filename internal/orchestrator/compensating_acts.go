package orchestrator

import (
	"context"
	"fmt"

	"github.com/compozy/verbump/internal/repository"
	"go.uber.org/zap"
)

// Rollback data keys
const (
	rollbackKeyPreviousVersion = "previous_version"
	rollbackKeyPreviousHead    = "previous_head"
)

// CompensatingActions provides idempotent rollback operations for bump steps
type CompensatingActions struct {
	manifestRepo repository.ManifestRepository
	gitRepo      repository.GitExtendedRepository
	logger       *zap.Logger
}

// NewCompensatingActions creates a new compensating actions handler
func NewCompensatingActions(
	manifestRepo repository.ManifestRepository,
	gitRepo repository.GitExtendedRepository,
	logger *zap.Logger,
) *CompensatingActions {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompensatingActions{
		manifestRepo: manifestRepo,
		gitRepo:      gitRepo,
		logger:       logger,
	}
}

// RestoreManifest rewrites the version recorded before the bump
func (ca *CompensatingActions) RestoreManifest(ctx context.Context, rollbackData map[string]any) error {
	previous, ok := rollbackData[rollbackKeyPreviousVersion].(string)
	if !ok || previous == "" {
		return fmt.Errorf("%s not found in rollback data", rollbackKeyPreviousVersion)
	}
	current, _, err := ca.manifestRepo.ReadVersion(ctx)
	if err == nil && current == previous {
		ca.logger.Debug("manifest already at previous version", zap.String("version", previous))
		return nil
	}
	if err := ca.manifestRepo.WriteVersion(ctx, previous); err != nil {
		return fmt.Errorf("failed to restore manifest version %s: %w", previous, err)
	}
	if err := ca.manifestRepo.Reload(ctx); err != nil {
		return fmt.Errorf("failed to reload manifest: %w", err)
	}
	return nil
}

// ResetCommit idempotently undoes the release commit, keeping the worktree. An
// empty previous head means the release was the root commit.
func (ca *CompensatingActions) ResetCommit(ctx context.Context, rollbackData map[string]any) error {
	previousHead, ok := rollbackData[rollbackKeyPreviousHead].(string)
	if !ok {
		// No commit to undo
		return nil
	}
	currentHead, err := ca.gitRepo.GetHeadCommit(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current HEAD: %w", err)
	}
	if currentHead == previousHead {
		ca.logger.Debug("commit already reset", zap.String("head", previousHead))
		return nil
	}
	if err := ca.gitRepo.ResetMixed(ctx, previousHead); err != nil {
		return fmt.Errorf("failed to reset to %s: %w", previousHead, err)
	}
	return nil
}
