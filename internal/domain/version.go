package domain

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Version wraps semver.Version with in-place increment operations.
type Version struct {
	*semver.Version
}

// ParseVersion strictly parses MAJOR.MINOR.PATCH[-PRERELEASE][+BUILD].
// A single leading "v" is accepted and dropped.
func ParseVersion(s string) (*Version, error) {
	v, err := semver.StrictNewVersion(strings.TrimPrefix(s, "v"))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, s, err)
	}
	return &Version{v}, nil
}

// ZeroVersion returns 0.0.0.
func ZeroVersion() *Version {
	return &Version{semver.New(0, 0, 0, "", "")}
}

// Clone returns an independent copy of v.
func (v *Version) Clone() *Version {
	return &Version{semver.New(v.Major(), v.Minor(), v.Patch(), v.Prerelease(), v.Metadata())}
}

// IncrementMajor bumps major and resets minor, patch and the prerelease.
func (v *Version) IncrementMajor() {
	v.Version = semver.New(v.Major()+1, 0, 0, "", "")
}

// IncrementMinor bumps minor and resets patch and the prerelease.
func (v *Version) IncrementMinor() {
	v.Version = semver.New(v.Major(), v.Minor()+1, 0, "", "")
}

// IncrementPatch bumps patch and clears the prerelease.
//
// semver.Version.IncPatch only drops the prerelease of 1.2.3-rc.1; this always
// moves to 1.2.4.
func (v *Version) IncrementPatch() {
	v.Version = semver.New(v.Major(), v.Minor(), v.Patch()+1, "", "")
}

// SetPrerelease replaces the prerelease label.
func (v *Version) SetPrerelease(label string) error {
	if label == "" {
		return fmt.Errorf("%w: prerelease label cannot be empty", ErrInvalidVersion)
	}
	next, err := v.Version.SetPrerelease(label)
	if err != nil {
		return fmt.Errorf("%w: prerelease %q: %v", ErrInvalidVersion, label, err)
	}
	v.Version = &next
	return nil
}

// Compare compares two versions.
func (v *Version) Compare(other *Version) int {
	return v.Version.Compare(other.Version)
}

// String returns the canonical MAJOR.MINOR.PATCH[-PRERELEASE] form.
func (v *Version) String() string {
	return v.Version.String()
}
