package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/compozy/verbump/internal/domain"
	"github.com/gofrs/flock"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	// JournalSchemaVersion defines the current schema version for journal files
	JournalSchemaVersion = "1.0.0"
	// JournalFilePermissions defines the permissions for journal files
	JournalFilePermissions = 0600
	// JournalDirPermissions defines the permissions for the journal directory
	JournalDirPermissions = 0700
	// LockTimeout defines the maximum time to wait for a lock
	LockTimeout = 30 * time.Second
	// LockRetryInterval defines the interval between lock retry attempts
	LockRetryInterval = 100 * time.Millisecond
)

// JournalRepository persists bump sessions for later inspection
type JournalRepository interface {
	Save(ctx context.Context, state *domain.RollbackState) error
	Load(ctx context.Context, sessionID string) (*domain.RollbackState, error)
	LoadLatest(ctx context.Context) (*domain.RollbackState, error)
	Delete(ctx context.Context, sessionID string) error
	Exists(ctx context.Context, sessionID string) (bool, error)
}

// JournalMetadata contains metadata about the journal file
type JournalMetadata struct {
	SchemaVersion string    `json:"schema_version"`
	Checksum      string    `json:"checksum"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// JournalEntry wraps the session state with metadata
type JournalEntry struct {
	Metadata JournalMetadata       `json:"metadata"`
	State    *domain.RollbackState `json:"state"`
}

// JSONJournalRepository implements JournalRepository using JSON files. Lock
// files are taken on the host filesystem, so stateDir must be a real path when
// fs is not an OS filesystem.
type JSONJournalRepository struct {
	fs       afero.Fs
	stateDir string
	logger   *zap.Logger
	mu       sync.RWMutex
}

// NewJSONJournalRepository creates a new JSON-based journal repository
func NewJSONJournalRepository(fs afero.Fs, stateDir string, logger *zap.Logger) JournalRepository {
	if stateDir == "" {
		stateDir = ".verbump-state"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JSONJournalRepository{
		fs:       fs,
		stateDir: stateDir,
		logger:   logger,
	}
}

// Save persists the session state with an exclusive lock
func (r *JSONJournalRepository) Save(ctx context.Context, state *domain.RollbackState) error {
	if err := r.ensureStateDir(); err != nil {
		return fmt.Errorf("failed to ensure journal directory: %w", err)
	}
	filename := r.entryFilename(state.SessionID)
	unlock, err := r.lock(ctx, state.SessionID, false)
	if err != nil {
		return err
	}
	defer unlock()
	entry := JournalEntry{
		Metadata: JournalMetadata{
			SchemaVersion: JournalSchemaVersion,
			CreatedAt:     state.StartedAt,
			UpdatedAt:     time.Now(),
		},
		State: state,
	}
	stateData, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state for checksum: %w", err)
	}
	entry.Metadata.Checksum = calculateChecksum(stateData)
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal journal entry: %w", err)
	}
	// Write atomically using temp file
	tempFile := filename + ".tmp"
	if err := afero.WriteFile(r.fs, tempFile, data, JournalFilePermissions); err != nil {
		return fmt.Errorf("failed to write temp journal file: %w", err)
	}
	if err := r.fs.Rename(tempFile, filename); err != nil {
		if removeErr := r.fs.Remove(tempFile); removeErr != nil {
			r.logger.Warn("failed to remove temp journal file", zap.String("file", tempFile), zap.Error(removeErr))
		}
		return fmt.Errorf("failed to rename journal file: %w", err)
	}
	if err := r.updateLatestLink(filename); err != nil {
		return fmt.Errorf("failed to update latest link: %w", err)
	}
	return nil
}

// Load retrieves a session by id and verifies its schema and checksum
func (r *JSONJournalRepository) Load(ctx context.Context, sessionID string) (*domain.RollbackState, error) {
	filename := r.entryFilename(sessionID)
	unlock, err := r.lock(ctx, sessionID, true)
	if err != nil {
		return nil, err
	}
	defer unlock()
	data, err := afero.ReadFile(r.fs, filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("journal not found for session %s", sessionID)
		}
		return nil, fmt.Errorf("failed to read journal file: %w", err)
	}
	var entry JournalEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal journal entry: %w", err)
	}
	if entry.Metadata.SchemaVersion != JournalSchemaVersion {
		return nil, fmt.Errorf("incompatible schema version: expected %s, got %s",
			JournalSchemaVersion, entry.Metadata.SchemaVersion)
	}
	if entry.State == nil {
		return nil, fmt.Errorf("journal entry for session %s has no state", sessionID)
	}
	stateData, err := json.Marshal(entry.State)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state for checksum validation: %w", err)
	}
	if entry.Metadata.Checksum != calculateChecksum(stateData) {
		return nil, fmt.Errorf("journal checksum mismatch: data may be corrupted")
	}
	return entry.State, nil
}

// LoadLatest retrieves the most recently saved session
func (r *JSONJournalRepository) LoadLatest(ctx context.Context) (*domain.RollbackState, error) {
	r.mu.RLock()
	data, err := afero.ReadFile(r.fs, r.latestLink())
	r.mu.RUnlock()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no journal entries found")
		}
		return nil, fmt.Errorf("failed to read latest link: %w", err)
	}
	target := strings.TrimSpace(string(data))
	sessionID := extractSessionID(target)
	if sessionID == "" {
		return nil, fmt.Errorf("invalid latest link target: %s", target)
	}
	return r.Load(ctx, sessionID)
}

// Delete removes a session and its lock file
func (r *JSONJournalRepository) Delete(ctx context.Context, sessionID string) error {
	filename := r.entryFilename(sessionID)
	unlock, err := r.lock(ctx, sessionID, false)
	if err != nil {
		return err
	}
	if err := r.fs.Remove(filename); err != nil && !os.IsNotExist(err) {
		unlock()
		return fmt.Errorf("failed to delete journal file: %w", err)
	}
	unlock()
	// Lock file cleanup is best effort
	lockFile := r.lockFilename(sessionID)
	if err := os.Remove(lockFile); err != nil && !os.IsNotExist(err) {
		r.logger.Warn("failed to remove lock file", zap.String("file", lockFile), zap.Error(err))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if data, err := afero.ReadFile(r.fs, r.latestLink()); err == nil &&
		extractSessionID(strings.TrimSpace(string(data))) == sessionID {
		if err := r.fs.Remove(r.latestLink()); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove latest link: %w", err)
		}
	}
	return nil
}

// Exists checks if a session has been journaled
func (r *JSONJournalRepository) Exists(_ context.Context, sessionID string) (bool, error) {
	_, err := r.fs.Stat(r.entryFilename(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check journal file: %w", err)
	}
	return true, nil
}

// lock acquires a per-session file lock and returns its release function
func (r *JSONJournalRepository) lock(ctx context.Context, sessionID string, shared bool) (func(), error) {
	lockFile := r.lockFilename(sessionID)
	if err := os.MkdirAll(filepath.Dir(lockFile), JournalDirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	fileLock := flock.New(lockFile)
	lockCtx, cancel := context.WithTimeout(ctx, LockTimeout)
	defer cancel()
	try := fileLock.TryLock
	if shared {
		try = fileLock.TryRLock
	}
	if err := acquireWithContext(lockCtx, try); err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	return func() {
		if err := fileLock.Unlock(); err != nil {
			r.logger.Warn("failed to unlock journal file", zap.String("file", lockFile), zap.Error(err))
		}
	}, nil
}

// acquireWithContext polls try until it succeeds or ctx is done
func acquireWithContext(ctx context.Context, try func() (bool, error)) error {
	ticker := time.NewTicker(LockRetryInterval)
	defer ticker.Stop()
	for {
		locked, err := try()
		if err != nil {
			return err
		}
		if locked {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// calculateChecksum calculates SHA-256 checksum of data
func calculateChecksum(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

func (r *JSONJournalRepository) ensureStateDir() error {
	return r.fs.MkdirAll(r.stateDir, JournalDirPermissions)
}

func (r *JSONJournalRepository) entryFilename(sessionID string) string {
	return filepath.Join(r.stateDir, fmt.Sprintf("bump-%s.json", sessionID))
}

func (r *JSONJournalRepository) lockFilename(sessionID string) string {
	return filepath.Join(r.stateDir, fmt.Sprintf(".bump-%s.lock", sessionID))
}

func (r *JSONJournalRepository) latestLink() string {
	return filepath.Join(r.stateDir, "latest.txt")
}

// updateLatestLink points latest.txt at target
func (r *JSONJournalRepository) updateLatestLink(target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	link := r.latestLink()
	tempLink := link + ".tmp"
	if err := afero.WriteFile(r.fs, tempLink, []byte(target), JournalFilePermissions); err != nil {
		return fmt.Errorf("failed to write temp latest link: %w", err)
	}
	if err := r.fs.Rename(tempLink, link); err != nil {
		if removeErr := r.fs.Remove(tempLink); removeErr != nil {
			r.logger.Warn("failed to remove temp latest link", zap.Error(removeErr))
		}
		return fmt.Errorf("failed to update latest link: %w", err)
	}
	return nil
}

// extractSessionID extracts the session id from a journal filename
func extractSessionID(filename string) string {
	base := filepath.Base(filename)
	if strings.HasPrefix(base, "bump-") && strings.HasSuffix(base, ".json") && len(base) > len("bump-.json") {
		return strings.TrimSuffix(strings.TrimPrefix(base, "bump-"), ".json")
	}
	return ""
}
