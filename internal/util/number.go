package util

import (
	"strconv"
	"strings"
)

// ParseLeadingInt reads an optionally signed run of decimal digits at the
// start of input, ignoring leading whitespace. Trailing text is ignored, so
// "12 (bonus)" yields 12.
func ParseLeadingInt(input string) (int, bool) {
	s := strings.TrimSpace(input)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
