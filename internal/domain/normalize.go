package domain

import "strings"

// Normalize trims surrounding whitespace and lowercases s. Every string
// comparison during grading goes through it so case and incidental whitespace
// never affect correctness. An empty string stays empty.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
