package snapshot

import (
	"fmt"
	"strings"
)

// Slugify normalizes a string to lowercase alphanumerics and hyphens:
// letters are lowercased, every run of other characters collapses to a
// single hyphen, and leading/trailing hyphens are trimmed.
func Slugify(s string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// ValidateName rejects snapshot names that are not already in slug
// form. Artifact filenames are derived from the name, so accepting a
// name that normalizes differently would store it under a different
// name than the caller asked for.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("snapshot name is empty")
	}
	if slug := Slugify(name); slug != name {
		return fmt.Errorf("invalid snapshot name %q: only lowercase letters, digits and hyphens are allowed (did you mean %q?)", name, slug)
	}
	return nil
}
