package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/compozy/verbump/internal/domain"
	"github.com/compozy/verbump/internal/repository"
	"github.com/compozy/verbump/internal/service"
	"github.com/compozy/verbump/internal/usecase"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// ToolName prefixes the build version line of a version query
const ToolName = "verbump"

// ErrNoRepository is returned when tagging is requested outside a git repository
var ErrNoRepository = errors.New("not a git repository")

// BumpConfig contains configuration for the bump workflow.
type BumpConfig struct {
	NewVersion    string // positional argument; empty means query
	PreID         string
	DryRun        bool
	GitTagVersion bool   // commit and tag the new version
	CommitMessage string // %s is replaced by the new version
	TagPrefix     string
	Journal       bool // persist saga state for inspection
}

// BumpOrchestrator orchestrates the version bump workflow.
type BumpOrchestrator struct {
	manifestRepo repository.ManifestRepository
	gitRepo      repository.GitExtendedRepository
	hookSvc      service.HookService
	reporter     service.Reporter
	journal      repository.JournalRepository
	logger       *zap.Logger
	toolVersion  string
}

// NewBumpOrchestrator creates a new bump orchestrator. gitRepo may be nil when
// the manifest is not inside a git repository; journal may be nil when
// journaling is never requested.
func NewBumpOrchestrator(
	manifestRepo repository.ManifestRepository,
	gitRepo repository.GitExtendedRepository,
	hookSvc service.HookService,
	reporter service.Reporter,
	journal repository.JournalRepository,
	logger *zap.Logger,
	toolVersion string,
) *BumpOrchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BumpOrchestrator{
		manifestRepo: manifestRepo,
		gitRepo:      gitRepo,
		hookSvc:      hookSvc,
		reporter:     reporter,
		journal:      journal,
		logger:       logger,
		toolVersion:  toolVersion,
	}
}

// Execute runs the bump workflow and returns what it did. Query and dry-run
// requests return before any side effect.
func (o *BumpOrchestrator) Execute(ctx context.Context, cfg BumpConfig) (*domain.Release, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultWorkflowTimeout)
	defer cancel()
	// preid is checked for every request, queries included
	preid, err := domain.NormalizePreID(cfg.PreID)
	if err != nil {
		return nil, err
	}
	req := domain.NewBumpRequest(cfg.NewVersion)
	current, err := o.resolveCurrentVersion(ctx)
	if err != nil {
		return nil, err
	}
	if req.IsQuery() {
		return o.query(ctx, current, req)
	}
	next, err := o.computeVersion(ctx, current, req, preid, cfg.TagPrefix)
	if err != nil {
		return nil, err
	}
	release := &domain.Release{
		PreviousVersion: current,
		Version:         next,
		Request:         req,
		TagName:         cfg.TagPrefix + next.String(),
		CommitMessage:   FormatCommitMessage(cfg.CommitMessage, next.String()),
		DryRun:          cfg.DryRun,
	}
	o.logger.Debug("computed version",
		zap.String("request", req.String()),
		zap.String("previous", current.String()),
		zap.String("next", next.String()))
	if cfg.DryRun {
		o.reporter.Info(fmt.Sprintf("%s -> %s", current, next))
		return release, nil
	}
	if cfg.GitTagVersion {
		if err := o.checkTagAvailable(ctx, release.TagName); err != nil {
			return nil, err
		}
	}
	hooks, err := o.definedHooks(ctx)
	if err != nil {
		return nil, err
	}
	if err := o.publish(ctx, release, cfg, hooks); err != nil {
		return nil, err
	}
	o.runPostVersionHook(ctx, release, hooks)
	o.reporter.Info("New version: " + next.String())
	return release, nil
}

func (o *BumpOrchestrator) resolveCurrentVersion(ctx context.Context) (*domain.Version, error) {
	uc := &usecase.ResolveCurrentVersionUseCase{
		ManifestRepo: o.manifestRepo,
		Reporter:     o.reporter,
	}
	return uc.Execute(ctx)
}

func (o *BumpOrchestrator) computeVersion(
	ctx context.Context,
	current *domain.Version,
	req domain.BumpRequest,
	preid, tagPrefix string,
) (*domain.Version, error) {
	uc := &usecase.ComputeVersionUseCase{TagPrefix: tagPrefix}
	if o.gitRepo != nil {
		uc.GitRepo = o.gitRepo
	}
	return uc.Execute(ctx, current, req, preid)
}

// query reports the package and tool versions without touching anything
func (o *BumpOrchestrator) query(
	ctx context.Context,
	current *domain.Version,
	req domain.BumpRequest,
) (*domain.Release, error) {
	name, err := o.manifestRepo.Name(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read package name: %w", err)
	}
	o.reporter.Info(fmt.Sprintf("%s: %s", name, current))
	o.reporter.Info(fmt.Sprintf("%s: %s", ToolName, o.toolVersion))
	return &domain.Release{PreviousVersion: current, Version: current, Request: req}, nil
}

// checkTagAvailable fails before any hook runs when the tag cannot be created
func (o *BumpOrchestrator) checkTagAvailable(ctx context.Context, tagName string) error {
	if o.gitRepo == nil {
		return fmt.Errorf("cannot commit and tag the new version: %w", ErrNoRepository)
	}
	if err := ValidateTagName(tagName); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidVersion, err)
	}
	exists, err := o.gitRepo.TagExists(ctx, tagName)
	if err != nil {
		return fmt.Errorf("failed to check tag %s: %w", tagName, err)
	}
	if exists {
		return fmt.Errorf("%w: %s", domain.ErrTagExists, tagName)
	}
	return nil
}

// publish runs the side-effecting sequence as a saga so a failure after the
// manifest write restores the previous version.
func (o *BumpOrchestrator) publish(
	ctx context.Context,
	release *domain.Release,
	cfg BumpConfig,
	hooks map[string]bool,
) error {
	var journal repository.JournalRepository
	if cfg.Journal {
		journal = o.journal
	}
	saga := NewSagaExecutor(journal, o.logger)
	saga.SetVersions(release.PreviousVersion.String(), release.Version.String())
	saga.SetManifestPath(o.manifestRepo.Path())
	compensating := NewCompensatingActions(o.manifestRepo, o.gitRepo, o.logger)
	o.reporter.Info(release.PreviousVersion.String())
	if hooks[domain.HookPreVersion] {
		saga.AddStep(o.hookStep(domain.HookPreVersion, domain.OperationTypePreVersionHook))
	}
	saga.AddStep(SagaStep{
		Name: "write manifest",
		Type: domain.OperationTypeWriteManifest,
		Execute: func(ctx context.Context) (map[string]any, error) {
			o.reporter.Info(release.Version.String())
			if err := o.writeManifest(ctx, release.Version.String()); err != nil {
				return nil, err
			}
			return map[string]any{rollbackKeyPreviousVersion: release.PreviousVersion.String()}, nil
		},
		Compensate: compensating.RestoreManifest,
	})
	saga.AddStep(SagaStep{
		Name: "reload manifest",
		Type: domain.OperationTypeReloadManifest,
		Execute: func(ctx context.Context) (map[string]any, error) {
			if err := o.manifestRepo.Reload(ctx); err != nil {
				return nil, fmt.Errorf("failed to reload manifest: %w", err)
			}
			return nil, nil
		},
	})
	if hooks[domain.HookPreVersionCommit] {
		saga.AddStep(o.hookStep(domain.HookPreVersionCommit, domain.OperationTypePreVersionCommitHook))
	}
	if cfg.GitTagVersion {
		o.addGitSteps(saga, compensating, release)
	}
	if err := saga.Execute(ctx); err != nil {
		state := saga.GetState()
		o.logger.Info("bump failed",
			zap.String("session_id", saga.SessionID()),
			zap.String("status", string(state.Status)),
			zap.Bool("journaled", journal != nil))
		return err
	}
	return nil
}

func (o *BumpOrchestrator) addGitSteps(saga *SagaExecutor, compensating *CompensatingActions, release *domain.Release) {
	saga.AddStep(SagaStep{
		Name: "commit changes",
		Type: domain.OperationTypeCommitChanges,
		Execute: func(ctx context.Context) (map[string]any, error) {
			uc := &usecase.CommitReleaseUseCase{GitRepo: o.gitRepo}
			previousHead, err := uc.Execute(ctx, o.manifestRepo.Path(), release.CommitMessage)
			if err != nil {
				return nil, err
			}
			release.Committed = true
			return map[string]any{rollbackKeyPreviousHead: previousHead}, nil
		},
		Compensate: func(ctx context.Context, rollbackData map[string]any) error {
			if err := compensating.ResetCommit(ctx, rollbackData); err != nil {
				return err
			}
			release.Committed = false
			return nil
		},
	})
	// The tag is the last fallible step, so it never needs undoing
	saga.AddStep(SagaStep{
		Name: "create tag",
		Type: domain.OperationTypeCreateTag,
		Execute: func(ctx context.Context) (map[string]any, error) {
			uc := &usecase.TagReleaseUseCase{GitRepo: o.gitRepo}
			return nil, uc.Execute(ctx, release.TagName)
		},
	})
}

// definedHooks looks up every lifecycle hook before anything is written. A
// scripts section that cannot be read fails the bump instead of skipping hooks.
func (o *BumpOrchestrator) definedHooks(ctx context.Context) (map[string]bool, error) {
	hooks := make(map[string]bool, 3)
	for _, hook := range []string{domain.HookPreVersion, domain.HookPreVersionCommit, domain.HookPostVersion} {
		defined, err := o.hookSvc.HasHook(ctx, hook)
		if err != nil {
			return nil, err
		}
		hooks[hook] = defined
	}
	return hooks, nil
}

func (o *BumpOrchestrator) hookStep(hook string, opType domain.OperationType) SagaStep {
	return SagaStep{
		Name: hook + " hook",
		Type: opType,
		Execute: func(ctx context.Context) (map[string]any, error) {
			return nil, o.hookSvc.RunHook(ctx, hook)
		},
	}
}

// writeManifest retries transient write failures
func (o *BumpOrchestrator) writeManifest(ctx context.Context, version string) error {
	retryStrategy := retry.WithMaxRetries(DefaultRetryCount, retry.NewExponential(DefaultRetryDelay))
	err := retry.Do(ctx, retryStrategy, func(retryCtx context.Context) error {
		if err := o.manifestRepo.WriteVersion(retryCtx, version); err != nil {
			o.logger.Debug("manifest write failed", zap.Error(err))
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// runPostVersionHook only warns on failure because the commit and tag already exist
func (o *BumpOrchestrator) runPostVersionHook(ctx context.Context, release *domain.Release, hooks map[string]bool) {
	if !hooks[domain.HookPostVersion] {
		return
	}
	if err := o.hookSvc.RunHook(ctx, domain.HookPostVersion); err != nil {
		release.PostHookFailed = true
		o.reporter.Warning(err.Error())
	}
}
