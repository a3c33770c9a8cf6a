// Package utils provides shared utilities for text and logging.
package utils

// Truncate returns s truncated to maxLen bytes on a rune boundary, with "..."
// appended if truncated. If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut] + "..."
}
