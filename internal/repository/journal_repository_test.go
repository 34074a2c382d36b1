package repository

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/compozy/verbump/internal/domain"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJournal(t *testing.T) (afero.Fs, string, JournalRepository) {
	t.Helper()
	fs := afero.NewOsFs()
	dir := filepath.Join(t.TempDir(), ".verbump-state")
	return fs, dir, NewJSONJournalRepository(fs, dir, nil)
}

func sampleState(sessionID string) *domain.RollbackState {
	state := domain.NewRollbackState(sessionID)
	state.PreviousVersion = "1.2.3"
	state.Version = "1.3.0"
	state.ManifestPath = "/project/composer.json"
	state.AddOperation(domain.OperationTypeWriteManifest)
	state.MarkOperationStarted(domain.OperationTypeWriteManifest)
	state.MarkOperationCompleted(domain.OperationTypeWriteManifest, map[string]any{"previous_version": "1.2.3"})
	return state
}

func TestJSONJournalRepository(t *testing.T) {
	ctx := context.Background()
	t.Run("Should save and load a session", func(t *testing.T) {
		_, _, journal := newTestJournal(t)
		require.NoError(t, journal.Save(ctx, sampleState("abc")))
		loaded, err := journal.Load(ctx, "abc")
		require.NoError(t, err)
		assert.Equal(t, "1.3.0", loaded.Version)
		assert.Equal(t, "1.2.3", loaded.PreviousVersion)
		require.Len(t, loaded.Operations, 1)
		assert.Equal(t, "1.2.3", loaded.Operations[0].RollbackData["previous_version"])
		exists, err := journal.Exists(ctx, "abc")
		require.NoError(t, err)
		assert.True(t, exists)
	})
	t.Run("Should load the latest session", func(t *testing.T) {
		_, _, journal := newTestJournal(t)
		require.NoError(t, journal.Save(ctx, sampleState("first")))
		require.NoError(t, journal.Save(ctx, sampleState("second")))
		latest, err := journal.LoadLatest(ctx)
		require.NoError(t, err)
		assert.Equal(t, "second", latest.SessionID)
	})
	t.Run("Should fail when no session exists", func(t *testing.T) {
		_, _, journal := newTestJournal(t)
		_, err := journal.LoadLatest(ctx)
		assert.Error(t, err)
		_, err = journal.Load(ctx, "missing")
		assert.Error(t, err)
	})
	t.Run("Should detect tampered entries", func(t *testing.T) {
		fs, dir, journal := newTestJournal(t)
		require.NoError(t, journal.Save(ctx, sampleState("abc")))
		path := filepath.Join(dir, "bump-abc.json")
		data, err := afero.ReadFile(fs, path)
		require.NoError(t, err)
		tampered := []byte(strings.Replace(string(data), `"1.3.0"`, `"9.9.9"`, 1))
		require.NoError(t, afero.WriteFile(fs, path, tampered, 0o600))
		_, err = journal.Load(ctx, "abc")
		assert.ErrorContains(t, err, "checksum mismatch")
	})
	t.Run("Should delete a session and its latest link", func(t *testing.T) {
		fs, dir, journal := newTestJournal(t)
		require.NoError(t, journal.Save(ctx, sampleState("abc")))
		require.NoError(t, journal.Delete(ctx, "abc"))
		exists, err := journal.Exists(ctx, "abc")
		require.NoError(t, err)
		assert.False(t, exists)
		linkExists, err := afero.Exists(fs, filepath.Join(dir, "latest.txt"))
		require.NoError(t, err)
		assert.False(t, linkExists)
	})
}

func TestExtractSessionID(t *testing.T) {
	t.Run("Should extract ids from journal filenames only", func(t *testing.T) {
		assert.Equal(t, "abc-123", extractSessionID("/tmp/state/bump-abc-123.json"))
		assert.Empty(t, extractSessionID("/tmp/state/bump-.json"))
		assert.Empty(t, extractSessionID("/tmp/state/state-abc.json"))
	})
}
