package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// Mock for GitExtendedRepository
type mockGitRepository struct {
	mock.Mock
}

func (m *mockGitRepository) TagsAtHead(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockGitRepository) TagExists(ctx context.Context, tag string) (bool, error) {
	args := m.Called(ctx, tag)
	return args.Bool(0), args.Error(1)
}

func (m *mockGitRepository) CreateTag(ctx context.Context, tag, msg string) error {
	args := m.Called(ctx, tag, msg)
	return args.Error(0)
}

func (m *mockGitRepository) GetHeadCommit(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockGitRepository) AddFiles(ctx context.Context, paths ...string) error {
	args := m.Called(ctx, paths)
	return args.Error(0)
}

func (m *mockGitRepository) Commit(ctx context.Context, message string) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *mockGitRepository) ResetMixed(ctx context.Context, ref string) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

func (m *mockGitRepository) GetFileStatus(ctx context.Context, path string) (string, error) {
	args := m.Called(ctx, path)
	return args.String(0), args.Error(1)
}

// Mock for ManifestRepository
type mockManifestRepository struct {
	mock.Mock
}

func (m *mockManifestRepository) Path() string {
	args := m.Called()
	return args.String(0)
}

func (m *mockManifestRepository) Name(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockManifestRepository) ReadVersion(ctx context.Context) (string, bool, error) {
	args := m.Called(ctx)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *mockManifestRepository) WriteVersion(ctx context.Context, version string) error {
	args := m.Called(ctx, version)
	return args.Error(0)
}

func (m *mockManifestRepository) Reload(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockManifestRepository) Scripts(ctx context.Context) (map[string][]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string][]string), args.Error(1)
}

// Mock for Reporter
type mockReporter struct {
	mock.Mock
}

func (m *mockReporter) Info(msg string) {
	m.Called(msg)
}

func (m *mockReporter) Warning(msg string) {
	m.Called(msg)
}

func (m *mockReporter) Error(msg string) {
	m.Called(msg)
}
