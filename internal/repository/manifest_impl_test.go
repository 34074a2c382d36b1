package repository

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testManifest = `{
  "name": "acme/widget",
  "version": "1.2.3",
  "require": {"php": ">=8.1", "acme/http": "^2.0"},
  "homepage": "https://example.com/widget",
  "keywords": [],
  "scripts": {
    "pre-version": "make test",
    "pre-version-commit": ["make docs", "@lint"],
    "lint": "php-cs-fixer fix --dry-run"
  }
}`

func newTestManifest(t *testing.T, content string) (afero.Fs, ManifestRepository) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/project/composer.json", []byte(content), 0o644))
	return fs, NewManifestRepository(fs, "/project/composer.json")
}

func TestManifestRepository_Read(t *testing.T) {
	ctx := context.Background()
	t.Run("Should read name and version", func(t *testing.T) {
		_, manifest := newTestManifest(t, testManifest)
		name, err := manifest.Name(ctx)
		require.NoError(t, err)
		assert.Equal(t, "acme/widget", name)
		version, ok, err := manifest.ReadVersion(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "1.2.3", version)
		assert.Equal(t, "/project/composer.json", manifest.Path())
	})
	t.Run("Should report a missing version", func(t *testing.T) {
		_, manifest := newTestManifest(t, `{"name": "acme/widget"}`)
		_, ok, err := manifest.ReadVersion(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
	})
	t.Run("Should fail on invalid JSON", func(t *testing.T) {
		_, manifest := newTestManifest(t, `{"name": `)
		_, _, err := manifest.ReadVersion(ctx)
		assert.Error(t, err)
	})
	t.Run("Should fail on a missing file", func(t *testing.T) {
		manifest := NewManifestRepository(afero.NewMemMapFs(), "/nope/composer.json")
		_, _, err := manifest.ReadVersion(ctx)
		assert.Error(t, err)
	})
}

func TestManifestRepository_WriteVersion(t *testing.T) {
	ctx := context.Background()
	t.Run("Should change only the version and keep member order", func(t *testing.T) {
		fs, manifest := newTestManifest(t, testManifest)
		require.NoError(t, manifest.WriteVersion(ctx, "2.0.0-rc.0"))
		content, err := afero.ReadFile(fs, "/project/composer.json")
		require.NoError(t, err)
		expected := `{
    "name": "acme/widget",
    "version": "2.0.0-rc.0",
    "require": {
        "php": ">=8.1",
        "acme/http": "^2.0"
    },
    "homepage": "https://example.com/widget",
    "keywords": [],
    "scripts": {
        "pre-version": "make test",
        "pre-version-commit": [
            "make docs",
            "@lint"
        ],
        "lint": "php-cs-fixer fix --dry-run"
    }
}
`
		assert.Equal(t, expected, string(content))
	})
	t.Run("Should append the version when it is absent", func(t *testing.T) {
		fs, manifest := newTestManifest(t, `{"name": "acme/widget"}`)
		require.NoError(t, manifest.WriteVersion(ctx, "0.1.0"))
		content, err := afero.ReadFile(fs, "/project/composer.json")
		require.NoError(t, err)
		assert.Equal(t, "{\n    \"name\": \"acme/widget\",\n    \"version\": \"0.1.0\"\n}\n", string(content))
		version, ok, err := manifest.ReadVersion(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "0.1.0", version)
	})
	t.Run("Should not leave a temp file behind", func(t *testing.T) {
		fs, manifest := newTestManifest(t, testManifest)
		require.NoError(t, manifest.WriteVersion(ctx, "1.2.4"))
		exists, err := afero.Exists(fs, "/project/composer.json.tmp")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestManifestRepository_Reload(t *testing.T) {
	t.Run("Should pick up external changes after reload", func(t *testing.T) {
		ctx := context.Background()
		fs, manifest := newTestManifest(t, testManifest)
		_, _, err := manifest.ReadVersion(ctx)
		require.NoError(t, err)
		require.NoError(t, afero.WriteFile(fs, "/project/composer.json", []byte(`{"version": "9.9.9"}`), 0o644))
		version, _, err := manifest.ReadVersion(ctx)
		require.NoError(t, err)
		assert.Equal(t, "1.2.3", version)
		require.NoError(t, manifest.Reload(ctx))
		version, _, err = manifest.ReadVersion(ctx)
		require.NoError(t, err)
		assert.Equal(t, "9.9.9", version)
	})
}

func TestManifestRepository_Scripts(t *testing.T) {
	ctx := context.Background()
	t.Run("Should normalize string and array scripts", func(t *testing.T) {
		_, manifest := newTestManifest(t, testManifest)
		scripts, err := manifest.Scripts(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"make test"}, scripts["pre-version"])
		assert.Equal(t, []string{"make docs", "@lint"}, scripts["pre-version-commit"])
		assert.Len(t, scripts, 3)
	})
	t.Run("Should return an empty map without a scripts section", func(t *testing.T) {
		_, manifest := newTestManifest(t, `{"name": "acme/widget"}`)
		scripts, err := manifest.Scripts(ctx)
		require.NoError(t, err)
		assert.Empty(t, scripts)
	})
	t.Run("Should reject scripts of other types", func(t *testing.T) {
		_, manifest := newTestManifest(t, `{"scripts": {"pre-version": 3}}`)
		_, err := manifest.Scripts(ctx)
		assert.Error(t, err)
	})
}
