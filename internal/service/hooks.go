package service

import "context"

// HookService defines the interface for running manifest lifecycle scripts.

type HookService interface {
	HasHook(ctx context.Context, name string) (bool, error)
	RunHook(ctx context.Context, name string) error
}

// ScriptSource provides the scripts section and context of a manifest.
type ScriptSource interface {
	Path() string
	ReadVersion(ctx context.Context) (string, bool, error)
	Scripts(ctx context.Context) (map[string][]string, error)
}
