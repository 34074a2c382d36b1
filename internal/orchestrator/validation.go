package orchestrator

import (
	"fmt"
	"regexp"
	"strings"
)

// tagNameRegex matches the characters allowed in generated tag names
var tagNameRegex = regexp.MustCompile(`^[a-zA-Z0-9._+/-]+$`)

// ValidateTagName validates a git tag name.
func ValidateTagName(tag string) error {
	if tag == "" {
		return fmt.Errorf("tag name cannot be empty")
	}
	if len(tag) > 255 {
		return fmt.Errorf("tag name too long: %d characters (max: 255)", len(tag))
	}
	if strings.HasPrefix(tag, "/") || strings.HasSuffix(tag, "/") || strings.HasPrefix(tag, "-") {
		return fmt.Errorf("tag name cannot start with a dash or start or end with a slash: %s", tag)
	}
	if strings.Contains(tag, "..") || strings.Contains(tag, "//") {
		return fmt.Errorf("tag name cannot contain consecutive dots or slashes: %s", tag)
	}
	if strings.HasSuffix(tag, ".lock") || strings.HasSuffix(tag, ".") {
		return fmt.Errorf("tag name cannot end with .lock or a dot: %s", tag)
	}
	if !tagNameRegex.MatchString(tag) {
		return fmt.Errorf("invalid tag name format: %s", tag)
	}
	return nil
}

// FormatCommitMessage substitutes version for the %s placeholder in tmpl.
func FormatCommitMessage(tmpl, version string) string {
	if tmpl == "" {
		return version
	}
	return strings.Replace(tmpl, "%s", version, 1)
}
