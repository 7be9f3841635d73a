package util

import (
	"fmt"
	"strconv"
	"strings"
)

// TrimQuotes removes one pair of surrounding double quotes.
func TrimQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// FixEscapeQuotes replaces escaped double quotes ("") with single double quotes (").
func FixEscapeQuotes(s string) string {
	return strings.ReplaceAll(s, `""`, `"`)
}

// CleanArg undoes host-side quoting of a command argument.
func CleanArg(s string) string {
	return FixEscapeQuotes(TrimQuotes(strings.TrimSpace(s)))
}

// ParseSeconds parses a non-negative, finite number of seconds.
func ParseSeconds(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(TrimQuotes(s)), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid seconds %q: %w", s, err)
	}
	if f < 0 || f != f || f > 1e12 {
		return 0, fmt.Errorf("invalid seconds %q: out of range", s)
	}
	return f, nil
}
