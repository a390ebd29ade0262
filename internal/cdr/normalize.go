package cdr

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Pre-compiled patterns (avoids recompilation on each row).
var (
	extensionPattern = regexp.MustCompile(`(?:SIP|PJSIP)/(\d+)`)
	minutesPattern   = regexp.MustCompile(`(\d+)\s*min`)
	secondsPattern   = regexp.MustCompile(`(\d+)\s*s`)
	digitsOnly       = regexp.MustCompile(`^\d+$`)
)

// timestampLayouts are the known date formats emitted by CDR exports, tried
// in order. Day-first before month-first matters: exports from the same
// switch are consistent, and ambiguous values resolve to the earlier layout.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"02/01/2006 15:04:05",
	"01/02/2006 15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02 15:04",
}

const isoLayout = "2006-01-02T15:04:05"

// ParseExtension extracts the extension number from a channel string.
// "SIP/209-000012ec" -> "209". Returns "" when the channel does not match.
func ParseExtension(channel string) string {
	if channel == "" {
		return ""
	}
	m := extensionPattern.FindStringSubmatch(channel)
	if m == nil {
		return ""
	}
	return m[1]
}

// ParseDuration converts a duration string to seconds.
// "45s" -> 45, "2min 30s" -> 150, "145" -> 145. Unparseable input yields 0.
func ParseDuration(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	if digitsOnly.MatchString(s) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0
		}
		return n
	}

	total := 0
	if m := minutesPattern.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		total += n * 60
	}
	if m := secondsPattern.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		total += n
	}
	return total
}

// NormalizeTimestamp renders a CDR date string as ISO-8601 using the first
// matching known layout. When no layout matches, the input is returned
// unchanged; downstream range queries compare timestamps lexicographically,
// so an unrecognized format can surface as a record that never matches a
// date filter. See DESIGN.md for why this stays lenient.
func NormalizeTimestamp(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(isoLayout)
		}
	}
	return s
}
