package domain

// Release describes the outcome of one bump invocation.

type Release struct {
	PreviousVersion *Version
	Version         *Version
	Request         BumpRequest
	TagName         string
	CommitMessage   string
	Committed       bool
	DryRun          bool
	PostHookFailed  bool
}
