package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// BumpKind classifies the positional newversion argument.
type BumpKind int

const (
	BumpQuery BumpKind = iota
	BumpKeyword
	BumpLiteral
)

// Keyword is one of the fixed bump directives.
type Keyword string

const (
	KeywordFromGit    Keyword = "from-git"
	KeywordMajor      Keyword = "major"
	KeywordMinor      Keyword = "minor"
	KeywordPatch      Keyword = "patch"
	KeywordPreMajor   Keyword = "premajor"
	KeywordPreMinor   Keyword = "preminor"
	KeywordPrePatch   Keyword = "prepatch"
	KeywordPrerelease Keyword = "prerelease"
	KeywordDevMajor   Keyword = "devmajor"
	KeywordDevMinor   Keyword = "devminor"
	KeywordDevPatch   Keyword = "devpatch"
)

// Keywords lists every directive in help-text order.
var Keywords = []Keyword{
	KeywordFromGit, KeywordMajor, KeywordMinor, KeywordPatch,
	KeywordPreMajor, KeywordPreMinor, KeywordPrePatch, KeywordPrerelease,
	KeywordDevMajor, KeywordDevMinor, KeywordDevPatch,
}

const (
	DefaultPreID = "alpha"
	devLabel     = "dev"
)

// ValidPreIDs is the prerelease identifier allow-list.
var ValidPreIDs = []string{"alpha", "a", "beta", "b", "patch", "p", "rc"}

// BumpRequest is the parsed newversion argument.
type BumpRequest struct {
	Kind    BumpKind
	Keyword Keyword
	Literal string
}

// NewBumpRequest classifies arg. Keywords are matched case-sensitively; anything
// else that is not empty is an explicit version literal.
func NewBumpRequest(arg string) BumpRequest {
	if arg == "" {
		return BumpRequest{Kind: BumpQuery}
	}
	if slices.Contains(Keywords, Keyword(arg)) {
		return BumpRequest{Kind: BumpKeyword, Keyword: Keyword(arg)}
	}
	return BumpRequest{Kind: BumpLiteral, Literal: arg}
}

func (r BumpRequest) IsQuery() bool {
	return r.Kind == BumpQuery
}

func (r BumpRequest) String() string {
	switch r.Kind {
	case BumpKeyword:
		return string(r.Keyword)
	case BumpLiteral:
		return "explicit"
	default:
		return "query"
	}
}

// NormalizePreID validates preid case-insensitively and returns it lower-cased.
func NormalizePreID(preid string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(preid))
	if !slices.Contains(ValidPreIDs, normalized) {
		return "", fmt.Errorf("%w: preid must be one of: %s", ErrInvalidPreID, strings.Join(ValidPreIDs, " | "))
	}
	return normalized, nil
}

// ApplyKeyword mutates v according to kw. KeywordFromGit needs source control
// and is rejected here.
func ApplyKeyword(v *Version, kw Keyword, preid string) error {
	switch kw {
	case KeywordMajor:
		v.IncrementMajor()
	case KeywordMinor:
		v.IncrementMinor()
	case KeywordPatch:
		v.IncrementPatch()
	case KeywordPreMajor:
		v.IncrementMajor()
		return v.SetPrerelease(preid + ".0")
	case KeywordPreMinor:
		v.IncrementMinor()
		return v.SetPrerelease(preid + ".0")
	case KeywordPrePatch:
		v.IncrementPatch()
		return v.SetPrerelease(preid + ".0")
	case KeywordPrerelease:
		return v.SetPrerelease(NextPrerelease(v.Prerelease(), preid))
	case KeywordDevMajor:
		v.IncrementMajor()
		return v.SetPrerelease(devLabel)
	case KeywordDevMinor:
		v.IncrementMinor()
		return v.SetPrerelease(devLabel)
	case KeywordDevPatch:
		v.IncrementPatch()
		return v.SetPrerelease(devLabel)
	default:
		return fmt.Errorf("keyword %q cannot be applied to a version", kw)
	}
	return nil
}

// NextPrerelease continues a prerelease sequence. The label is split on its
// first dot into id and counter; a missing counter counts as -1, so alpha
// becomes alpha.0 and alpha.3 becomes alpha.4. With no current label the
// sequence starts at preid.0.
func NextPrerelease(current, preid string) string {
	if current == "" {
		current = preid
	}
	id, counter, found := strings.Cut(current, ".")
	next := 0
	if found {
		next = leadingInt(counter) + 1
	}
	return id + "." + strconv.Itoa(next)
}

// leadingInt reads the leading decimal digits of s; no digits reads as 0.
func leadingInt(s string) int {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
