package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/compozy/verbump/internal/domain"
	"go.uber.org/zap"
)

const scriptReferencePrefix = "@"

// hookService is the implementation of the HookService interface.
type hookService struct {
	source  ScriptSource
	stdout  io.Writer
	stderr  io.Writer
	logger  *zap.Logger
	timeout time.Duration
}

// NewHookService creates a HookService running scripts from source. Command
// output is streamed to stdout and stderr.
func NewHookService(source ScriptSource, stdout, stderr io.Writer, logger *zap.Logger) HookService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &hookService{
		source:  source,
		stdout:  stdout,
		stderr:  stderr,
		logger:  logger,
		timeout: DefaultHookTimeout,
	}
}

// HasHook reports whether the manifest defines name. An unreadable scripts
// section is a failure of that hook.
func (s *hookService) HasHook(ctx context.Context, name string) (bool, error) {
	scripts, err := s.source.Scripts(ctx)
	if err != nil {
		return false, &domain.HookError{Hook: name, Err: err}
	}
	_, ok := scripts[name]
	return ok, nil
}

// RunHook runs every command of the named script in order and stops at the
// first failure. A missing script is a no-op.
func (s *hookService) RunHook(ctx context.Context, name string) error {
	scripts, err := s.source.Scripts(ctx)
	if err != nil {
		return &domain.HookError{Hook: name, Err: err}
	}
	if _, ok := scripts[name]; !ok {
		return nil
	}
	env, err := s.environment(ctx)
	if err != nil {
		return &domain.HookError{Hook: name, Err: err}
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.runScript(ctx, name, scripts, env, map[string]bool{}); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("script timed out after %v: %w", s.timeout, err)
		}
		return &domain.HookError{Hook: name, Err: err}
	}
	return nil
}

// runScript expands @name references; visiting guards against reference cycles.
func (s *hookService) runScript(
	ctx context.Context,
	name string,
	scripts map[string][]string,
	env []string,
	visiting map[string]bool,
) error {
	if visiting[name] {
		return fmt.Errorf("script %q references itself", name)
	}
	visiting[name] = true
	defer delete(visiting, name)
	for _, command := range scripts[name] {
		if ref, ok := strings.CutPrefix(command, scriptReferencePrefix); ok {
			ref = strings.TrimSpace(ref)
			if _, exists := scripts[ref]; !exists {
				return fmt.Errorf("script %q referenced by %q is not defined", ref, name)
			}
			if err := s.runScript(ctx, ref, scripts, env, visiting); err != nil {
				return err
			}
			continue
		}
		if err := s.executeCommand(ctx, command, env); err != nil {
			return err
		}
	}
	return nil
}

// executeCommand runs one command line through the platform shell in the manifest directory.
func (s *hookService) executeCommand(ctx context.Context, command string, env []string) error {
	shell, flag := platformShell()
	cmd := exec.CommandContext(ctx, shell, flag, command)
	cmd.Dir = filepath.Dir(s.source.Path())
	cmd.Env = env
	cmd.Stdout = s.stdout
	cmd.Stderr = s.stderr
	s.logger.Debug("running hook command", zap.String("command", command), zap.String("dir", cmd.Dir))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("command %q failed: %w", command, err)
	}
	return nil
}

// environment extends the process environment with the package context and
// puts the project's vendor/bin first on PATH when it exists.
func (s *hookService) environment(ctx context.Context) ([]string, error) {
	version, _, err := s.source.ReadVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest version: %w", err)
	}
	manifestPath, err := filepath.Abs(s.source.Path())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve manifest path: %w", err)
	}
	env := os.Environ()
	binDir := filepath.Join(filepath.Dir(manifestPath), "vendor", "bin")
	if info, err := os.Stat(binDir); err == nil && info.IsDir() {
		env = append(env, "PATH="+binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
	env = append(env,
		EnvPackageVersion+"="+version,
		EnvManifest+"="+manifestPath,
	)
	return env, nil
}

func platformShell() (string, string) {
	if runtime.GOOS == "windows" {
		return "cmd", "/C"
	}
	return "sh", "-c"
}
