package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidVersion     = errors.New("invalid semantic version")
	ErrInvalidPreID       = errors.New("invalid prerelease identifier")
	ErrVersionTagNotFound = errors.New("current commit does not have a valid version tag")
	ErrHookFailed         = errors.New("lifecycle hook failed")
	ErrTagExists          = errors.New("tag already exists")
)

// HookError reports a lifecycle hook that exited unsuccessfully.
type HookError struct {
	Hook string
	Err  error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("%s script failed: %v", e.Hook, e.Err)
}

func (e *HookError) Unwrap() []error {
	return []error{ErrHookFailed, e.Err}
}

// IsUsageError reports whether err is a bad-input failure that happened before
// any side effect.
func IsUsageError(err error) bool {
	return errors.Is(err, ErrInvalidPreID) || errors.Is(err, ErrInvalidVersion) || errors.Is(err, ErrTagExists)
}
