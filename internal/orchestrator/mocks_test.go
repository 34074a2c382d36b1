package orchestrator

import (
	"context"
	"sync"

	"github.com/compozy/verbump/internal/domain"
	"github.com/stretchr/testify/mock"
)

// Mock for GitExtendedRepository - implements ALL methods from GitExtendedRepository interface
type mockGitExtendedRepository struct{ mock.Mock }

// GitRepository methods
func (m *mockGitExtendedRepository) TagsAtHead(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
func (m *mockGitExtendedRepository) TagExists(ctx context.Context, tag string) (bool, error) {
	args := m.Called(ctx, tag)
	return args.Bool(0), args.Error(1)
}
func (m *mockGitExtendedRepository) CreateTag(ctx context.Context, tag, msg string) error {
	args := m.Called(ctx, tag, msg)
	return args.Error(0)
}
func (m *mockGitExtendedRepository) GetHeadCommit(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// GitExtendedRepository specific methods
func (m *mockGitExtendedRepository) AddFiles(ctx context.Context, paths ...string) error {
	args := m.Called(ctx, paths)
	return args.Error(0)
}
func (m *mockGitExtendedRepository) Commit(ctx context.Context, message string) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}
func (m *mockGitExtendedRepository) ResetMixed(ctx context.Context, ref string) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}
func (m *mockGitExtendedRepository) GetFileStatus(ctx context.Context, path string) (string, error) {
	args := m.Called(ctx, path)
	return args.String(0), args.Error(1)
}

// Mock for HookService
type mockHookService struct{ mock.Mock }

func (m *mockHookService) HasHook(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}
func (m *mockHookService) RunHook(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

// Mock for JournalRepository
type mockJournalRepository struct{ mock.Mock }

func (m *mockJournalRepository) Save(ctx context.Context, state *domain.RollbackState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}
func (m *mockJournalRepository) Load(ctx context.Context, sessionID string) (*domain.RollbackState, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RollbackState), args.Error(1)
}
func (m *mockJournalRepository) LoadLatest(ctx context.Context) (*domain.RollbackState, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RollbackState), args.Error(1)
}
func (m *mockJournalRepository) Delete(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}
func (m *mockJournalRepository) Exists(ctx context.Context, sessionID string) (bool, error) {
	args := m.Called(ctx, sessionID)
	return args.Bool(0), args.Error(1)
}

// recordingReporter keeps every reported line for assertions
type recordingReporter struct {
	mu       sync.Mutex
	infos    []string
	warnings []string
	errors   []string
}

func (r *recordingReporter) Info(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.infos = append(r.infos, msg)
}
func (r *recordingReporter) Warning(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings = append(r.warnings, msg)
}
func (r *recordingReporter) Error(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, msg)
}
