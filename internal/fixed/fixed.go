// Package fixed implements fixed-width, blank-padded field assignment:
// values that overflow a field are truncated on the right, values that
// underflow it are padded with blanks.
package fixed

import "strings"

// Left assigns s to a field of width n, left-justified.
func Left(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) >= n {
		return s[:n]
	}
	return s + strings.Repeat(" ", n-len(s))
}

// Right assigns s to a field of width n, right-justified. Overflow keeps
// the leftmost n characters, as assignment does.
func Right(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) >= n {
		return s[:n]
	}
	return strings.Repeat(" ", n-len(s)) + s
}

// Truncate returns at most the first n characters of s.
func Truncate(s string, n int) string {
	if n < 0 {
		n = 0
	}
	if len(s) > n {
		return s[:n]
	}
	return s
}

// ZeroFill replaces every blank in s with '0'.
func ZeroFill(s string) string {
	return strings.ReplaceAll(s, " ", "0")
}

// ZeroRight right-justifies the trimmed value of s in a field of width n
// and fills the padding with zeros.
func ZeroRight(s string, n int) string {
	return ZeroFill(Right(strings.TrimSpace(s), n))
}

// Blank reports whether s is empty or holds only blanks.
func Blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Digits reports whether s is non-empty and made only of ASCII digits.
func Digits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
