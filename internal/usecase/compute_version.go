package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/compozy/verbump/internal/domain"
	"github.com/compozy/verbump/internal/repository"
)

// ComputeVersionUseCase turns the current version and a bump request into the next version.

type ComputeVersionUseCase struct {
	GitRepo   repository.GitRepository
	TagPrefix string
}

// Execute never mutates current. preid must already be normalized.
func (uc *ComputeVersionUseCase) Execute(
	ctx context.Context,
	current *domain.Version,
	req domain.BumpRequest,
	preid string,
) (*domain.Version, error) {
	switch req.Kind {
	case domain.BumpLiteral:
		return domain.ParseVersion(req.Literal)
	case domain.BumpKeyword:
		if req.Keyword == domain.KeywordFromGit {
			return uc.versionFromGit(ctx)
		}
		next := current.Clone()
		if err := domain.ApplyKeyword(next, req.Keyword, preid); err != nil {
			return nil, fmt.Errorf("failed to apply %s: %w", req.Keyword, err)
		}
		return next, nil
	default:
		return nil, fmt.Errorf("cannot compute a version for a %s request", req)
	}
}

// versionFromGit picks the highest semantic version among the tags at HEAD.
func (uc *ComputeVersionUseCase) versionFromGit(ctx context.Context) (*domain.Version, error) {
	if uc.GitRepo == nil {
		return nil, domain.ErrVersionTagNotFound
	}
	tags, err := uc.GitRepo.TagsAtHead(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrVersionTagNotFound, err)
	}
	var best *domain.Version
	for _, tag := range tags {
		version, err := domain.ParseVersion(strings.TrimPrefix(strings.TrimSpace(tag), uc.TagPrefix))
		if err != nil {
			continue
		}
		if best == nil || version.Compare(best) > 0 {
			best = version
		}
	}
	if best == nil {
		return nil, domain.ErrVersionTagNotFound
	}
	return best, nil
}
