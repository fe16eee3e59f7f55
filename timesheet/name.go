package timesheet

import (
	"regexp"
	"strings"
)

// The CBO export appends the employee number to the reporter name
// ("田中 祐太 023") while the roster stores the bare name. Matching the
// two requires stripping the trailing digit run and unifying spacing.
var (
	trailingDigits = regexp.MustCompile(`(\s*\d+)+$`)
	spaceRun       = regexp.MustCompile(`\s+`)
)

// NormalizeName canonicalizes an employee name for matching: full-width
// spaces become half-width, any trailing run of digits (plus its
// leading whitespace) is removed, whitespace runs collapse to a single
// space, and the result is trimmed. Idempotent:
// NormalizeName(NormalizeName(x)) == NormalizeName(x).
func NormalizeName(name string) string {
	n := strings.ReplaceAll(name, "　", " ")
	n = trailingDigits.ReplaceAllString(n, "")
	n = spaceRun.ReplaceAllString(n, " ")
	return strings.TrimSpace(n)
}
