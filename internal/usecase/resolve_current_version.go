package usecase

import (
	"context"
	"fmt"

	"github.com/compozy/verbump/internal/domain"
	"github.com/compozy/verbump/internal/repository"
	"github.com/compozy/verbump/internal/service"
)

const versionNotDefinedNotice = "Version not currently defined, assuming 0.0.0"

// ResolveCurrentVersionUseCase reads the version currently recorded in the manifest.
type ResolveCurrentVersionUseCase struct {
	ManifestRepo repository.ManifestRepository
	Reporter     service.Reporter
}

// Execute returns the manifest version. A missing or unparseable version is
// reported and treated as 0.0.0; only an unreadable manifest is an error.
func (uc *ResolveCurrentVersionUseCase) Execute(ctx context.Context) (*domain.Version, error) {
	raw, ok, err := uc.ManifestRepo.ReadVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest version: %w", err)
	}
	if !ok {
		uc.Reporter.Info(versionNotDefinedNotice)
		return domain.ZeroVersion(), nil
	}
	version, err := domain.ParseVersion(raw)
	if err != nil {
		uc.Reporter.Info(versionNotDefinedNotice)
		return domain.ZeroVersion(), nil
	}
	return version, nil
}
