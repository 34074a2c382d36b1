package domain

// Lifecycle hook names, in the order the workflow runs them.
const (
	HookPreVersion       = "pre-version"
	HookPreVersionCommit = "pre-version-commit"
	HookPostVersion      = "post-version"
)
