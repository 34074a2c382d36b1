package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	// ManifestFilePermissions is used when the manifest mode cannot be read
	ManifestFilePermissions = 0644
	manifestIndent          = "    "
)

// jsonManifestRepository implements ManifestRepository over a JSON file.
type jsonManifestRepository struct {
	fs   afero.Fs
	path string
	mu   sync.Mutex
	data []byte
}

// NewManifestRepository creates a ManifestRepository for the JSON file at path.
func NewManifestRepository(fs afero.Fs, path string) ManifestRepository {
	return &jsonManifestRepository{fs: fs, path: path}
}

func (r *jsonManifestRepository) Path() string {
	return r.path
}

// Name returns the package name, or an empty string when the manifest has none.
func (r *jsonManifestRepository) Name(_ context.Context) (string, error) {
	data, err := r.load()
	if err != nil {
		return "", err
	}
	return gjson.GetBytes(data, "name").String(), nil
}

func (r *jsonManifestRepository) ReadVersion(_ context.Context) (string, bool, error) {
	data, err := r.load()
	if err != nil {
		return "", false, err
	}
	result := gjson.GetBytes(data, "version")
	if !result.Exists() || result.Type == gjson.Null {
		return "", false, nil
	}
	return result.String(), true, nil
}

// WriteVersion rewrites only the version member; the order of every other
// member is kept. Output uses four-space indentation and a trailing newline.
func (r *jsonManifestRepository) WriteVersion(_ context.Context, version string) error {
	data, err := r.load()
	if err != nil {
		return err
	}
	updated, err := sjson.SetBytes(data, "version", version)
	if err != nil {
		return fmt.Errorf("failed to set manifest version: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, updated, "", manifestIndent); err != nil {
		return fmt.Errorf("failed to format manifest: %w", err)
	}
	buf.WriteByte('\n')
	if err := r.writeAtomic(buf.Bytes()); err != nil {
		return err
	}
	r.mu.Lock()
	r.data = buf.Bytes()
	r.mu.Unlock()
	return nil
}

func (r *jsonManifestRepository) Reload(_ context.Context) error {
	r.mu.Lock()
	r.data = nil
	r.mu.Unlock()
	_, err := r.load()
	return err
}

// Scripts returns the scripts section. A script may be a single command or a
// list of commands; other value types are rejected.
func (r *jsonManifestRepository) Scripts(_ context.Context) (map[string][]string, error) {
	data, err := r.load()
	if err != nil {
		return nil, err
	}
	scripts := make(map[string][]string)
	section := gjson.GetBytes(data, "scripts")
	if !section.Exists() {
		return scripts, nil
	}
	if !section.IsObject() {
		return nil, fmt.Errorf("manifest scripts must be an object")
	}
	var parseErr error
	section.ForEach(func(key, value gjson.Result) bool {
		switch {
		case value.Type == gjson.String:
			scripts[key.String()] = []string{value.String()}
		case value.IsArray():
			var commands []string
			for _, item := range value.Array() {
				if item.Type != gjson.String {
					parseErr = fmt.Errorf("script %q must contain only strings", key.String())
					return false
				}
				commands = append(commands, item.String())
			}
			scripts[key.String()] = commands
		default:
			parseErr = fmt.Errorf("script %q must be a string or an array of strings", key.String())
			return false
		}
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return scripts, nil
}

func (r *jsonManifestRepository) load() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.data != nil {
		return r.data, nil
	}
	data, err := afero.ReadFile(r.fs, r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("manifest %s not found: %w", r.path, err)
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return nil, fmt.Errorf("manifest %s is not a valid JSON object", r.path)
	}
	r.data = data
	return data, nil
}

// writeAtomic writes through a temp file and rename, keeping the file mode.
func (r *jsonManifestRepository) writeAtomic(data []byte) error {
	perm := os.FileMode(ManifestFilePermissions)
	if info, err := r.fs.Stat(r.path); err == nil {
		perm = info.Mode().Perm()
	}
	tempFile := r.path + ".tmp"
	if err := afero.WriteFile(r.fs, tempFile, data, perm); err != nil {
		return fmt.Errorf("failed to write temp manifest: %w", err)
	}
	if err := r.fs.Rename(tempFile, r.path); err != nil {
		_ = r.fs.Remove(tempFile)
		return fmt.Errorf("failed to replace manifest: %w", err)
	}
	return nil
}
