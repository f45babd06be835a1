package util

import "strings"

// Truncate bounds s to at most limit characters without splitting a
// multi-byte character.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// TruncateForLog shortens the provided string to the specified limit, appending an ellipsis when truncated.
func TruncateForLog(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	if truncated := Truncate(s, limit); len(truncated) < len(s) {
		return truncated + "..."
	}
	return s
}
