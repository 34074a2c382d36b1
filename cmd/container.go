package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/compozy/verbump/internal/config"
	"github.com/compozy/verbump/internal/orchestrator"
	"github.com/compozy/verbump/internal/repository"
	"github.com/compozy/verbump/internal/service"
	"github.com/compozy/verbump/pkg/version"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// container holds all the dependencies for the application.

type container struct {
	cfg    *config.Config
	logger *zap.Logger

	manifestRepo repository.ManifestRepository
	gitRepo      repository.GitExtendedRepository
	journalRepo  repository.JournalRepository
	hookSvc      service.HookService
	reporter     service.Reporter
}

// newContainer loads the configuration through v and creates all the dependencies.
func newContainer(opts *rootOptions, v *viper.Viper, stdout, stderr io.Writer) (*container, error) {
	logger, err := newLogger(opts.verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	cfg, err := config.Load(v, opts.configFile)
	if err != nil {
		return nil, err
	}
	manifestPath, err := filepath.Abs(cfg.Manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve manifest path: %w", err)
	}
	manifestDir := filepath.Dir(manifestPath)

	fsRepo := repository.NewOSFileSystem()
	manifestRepo := repository.NewManifestRepository(fsRepo, manifestPath)

	// Git is optional until a commit or tag is requested
	var gitRepo repository.GitExtendedRepository
	if repo, err := repository.NewGitExtendedRepository(manifestDir); err != nil {
		logger.Debug("no git repository for manifest", zap.String("dir", manifestDir), zap.Error(err))
	} else {
		gitRepo = repo
	}

	stateDir := cfg.StateDir
	if !filepath.IsAbs(stateDir) {
		stateDir = filepath.Join(manifestDir, stateDir)
	}
	logger.Debug("configuration loaded",
		zap.String("manifest", manifestPath),
		zap.String("preid", cfg.PreID),
		zap.String("tag_prefix", cfg.TagPrefix),
		zap.Bool("git_tag_version", cfg.GitTagVersion),
		zap.String("state_dir", stateDir))

	return &container{
		cfg:          cfg,
		logger:       logger,
		manifestRepo: manifestRepo,
		gitRepo:      gitRepo,
		journalRepo:  repository.NewJSONJournalRepository(fsRepo, stateDir, logger),
		hookSvc:      service.NewHookService(manifestRepo, stdout, stderr, logger),
		reporter:     service.NewConsoleReporter(stdout, stderr),
	}, nil
}

func (c *container) bumpOrchestrator() *orchestrator.BumpOrchestrator {
	return orchestrator.NewBumpOrchestrator(
		c.manifestRepo,
		c.gitRepo,
		c.hookSvc,
		c.reporter,
		c.journalRepo,
		c.logger,
		version.Summary(),
	)
}

func (c *container) close() {
	//nolint:errcheck // Sync fails on terminals and there is nothing left to flush to
	c.logger.Sync()
}

// bindFlags lets flags override config keys; unset flags fall through to env,
// the config file and defaults.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}
