package ledger

import (
	"regexp"
	"strings"
)

var (
	unsafeChars = regexp.MustCompile(`[^\w.-]+`)
	dashRuns    = regexp.MustCompile(`-+`)
)

// NormalizeKey derives a filesystem-safe asset key from an uploaded file
// name or an explicit override: lower-cased, anything outside word, dot,
// and dash characters collapsed to a single dash, leading and trailing
// dashes trimmed. Keys are stable: the same input always normalizes to the
// same key, and re-uploading a key replaces the existing entry.
func NormalizeKey(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	key = unsafeChars.ReplaceAllString(key, "-")
	key = dashRuns.ReplaceAllString(key, "-")
	return strings.Trim(key, "-")
}

// ExtensionForType returns the canonical file extension for an accepted
// image content type, or empty if the type is not accepted.
func ExtensionForType(contentType string) string {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ""
	}
}

// normalizeContentType lowers the media type and strips parameters such as
// "; charset=binary".
func normalizeContentType(raw string) string {
	ct := strings.ToLower(strings.TrimSpace(raw))
	if idx := strings.Index(ct, ";"); idx >= 0 {
		ct = strings.TrimSpace(ct[:idx])
	}
	return ct
}
