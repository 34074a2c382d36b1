package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBumpRequest(t *testing.T) {
	t.Run("Should treat an empty argument as a query", func(t *testing.T) {
		req := NewBumpRequest("")
		assert.True(t, req.IsQuery())
		assert.Equal(t, "query", req.String())
	})
	t.Run("Should recognize every keyword", func(t *testing.T) {
		for _, kw := range Keywords {
			req := NewBumpRequest(string(kw))
			assert.Equal(t, BumpKeyword, req.Kind)
			assert.Equal(t, kw, req.Keyword)
		}
	})
	t.Run("Should treat anything else as a literal", func(t *testing.T) {
		req := NewBumpRequest("2.0.0-rc.1")
		assert.Equal(t, BumpLiteral, req.Kind)
		assert.Equal(t, "2.0.0-rc.1", req.Literal)
		assert.Equal(t, BumpLiteral, NewBumpRequest("MAJOR").Kind)
	})
}

func TestNormalizePreID(t *testing.T) {
	t.Run("Should accept allow-listed ids case-insensitively", func(t *testing.T) {
		for _, in := range []string{"alpha", "A", "Beta", "b", "PATCH", "p", "rc"} {
			got, err := NormalizePreID(in)
			require.NoError(t, err, in)
			assert.Contains(t, ValidPreIDs, got)
		}
	})
	t.Run("Should reject unknown ids", func(t *testing.T) {
		_, err := NormalizePreID("foo")
		assert.ErrorIs(t, err, ErrInvalidPreID)
		assert.Contains(t, err.Error(), "alpha | a | beta | b | patch | p | rc")
		assert.True(t, IsUsageError(err))
	})
}

func TestApplyKeyword(t *testing.T) {
	cases := []struct {
		name    string
		current string
		keyword Keyword
		preid   string
		want    string
	}{
		{name: "major", current: "1.2.3", keyword: KeywordMajor, preid: "alpha", want: "2.0.0"},
		{name: "minor", current: "1.2.3", keyword: KeywordMinor, preid: "alpha", want: "1.3.0"},
		{name: "patch", current: "1.2.3", keyword: KeywordPatch, preid: "alpha", want: "1.2.4"},
		{name: "premajor rc", current: "1.2.3", keyword: KeywordPreMajor, preid: "rc", want: "2.0.0-rc.0"},
		{name: "preminor", current: "1.2.3", keyword: KeywordPreMinor, preid: "beta", want: "1.3.0-beta.0"},
		{name: "prepatch", current: "1.2.3-alpha.4", keyword: KeywordPrePatch, preid: "alpha", want: "1.2.4-alpha.0"},
		{name: "prerelease with counter", current: "1.0.0-alpha.3", keyword: KeywordPrerelease, preid: "alpha", want: "1.0.0-alpha.4"},
		{name: "prerelease without counter", current: "1.0.0-alpha", keyword: KeywordPrerelease, preid: "beta", want: "1.0.0-alpha.0"},
		{name: "prerelease from release", current: "1.0.0", keyword: KeywordPrerelease, preid: "beta", want: "1.0.0-beta.0"},
		{name: "prerelease keeps existing id", current: "1.0.0-rc.9", keyword: KeywordPrerelease, preid: "alpha", want: "1.0.0-rc.10"},
		{name: "devmajor", current: "1.2.3", keyword: KeywordDevMajor, preid: "alpha", want: "2.0.0-dev"},
		{name: "devminor", current: "1.2.3", keyword: KeywordDevMinor, preid: "alpha", want: "1.3.0-dev"},
		{name: "devpatch", current: "1.2.3", keyword: KeywordDevPatch, preid: "alpha", want: "1.2.4-dev"},
	}
	for _, tc := range cases {
		t.Run("Should apply "+tc.name, func(t *testing.T) {
			version, err := ParseVersion(tc.current)
			require.NoError(t, err)
			require.NoError(t, ApplyKeyword(version, tc.keyword, tc.preid))
			assert.Equal(t, tc.want, version.String())
		})
	}
	t.Run("Should refuse from-git", func(t *testing.T) {
		err := ApplyKeyword(ZeroVersion(), KeywordFromGit, "alpha")
		assert.Error(t, err)
	})
}

func TestNextPrerelease(t *testing.T) {
	t.Run("Should continue dotted counters", func(t *testing.T) {
		assert.Equal(t, "alpha.4", NextPrerelease("alpha.3", "beta"))
		assert.Equal(t, "alpha.0", NextPrerelease("alpha", "beta"))
		assert.Equal(t, "beta.0", NextPrerelease("", "beta"))
	})
	t.Run("Should read a non-numeric counter as zero", func(t *testing.T) {
		assert.Equal(t, "alpha.1", NextPrerelease("alpha.beta.2", "alpha"))
		assert.Equal(t, "dev.0", NextPrerelease("dev", "alpha"))
	})
}

func TestHookError(t *testing.T) {
	t.Run("Should unwrap to the sentinel and the cause", func(t *testing.T) {
		cause := assert.AnError
		err := &HookError{Hook: HookPreVersion, Err: cause}
		assert.ErrorIs(t, err, ErrHookFailed)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "pre-version script failed: "+cause.Error(), err.Error())
		assert.False(t, IsUsageError(err))
	})
}
