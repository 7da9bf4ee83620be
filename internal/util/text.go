package util

import (
	"regexp"
	"strings"
)

var reCamelCase = regexp.MustCompile(`([a-z])([A-Z])`)

// SplitCamelCase inserts a space at every lower-to-upper ASCII letter
// boundary: "RocketBoost" -> "Rocket Boost".
func SplitCamelCase(input string) string {
	return reCamelCase.ReplaceAllString(input, "${1} ${2}")
}

// TrimSuffixFold removes suffix from s when s ends with it, ignoring ASCII case.
func TrimSuffixFold(s, suffix string) string {
	if len(s) < len(suffix) {
		return s
	}
	if strings.EqualFold(s[len(s)-len(suffix):], suffix) {
		return s[:len(s)-len(suffix)]
	}
	return s
}

// RemoveFirstMatch removes the first match of re in s.
func RemoveFirstMatch(s string, re *regexp.Regexp) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + s[loc[1]:]
}

func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
