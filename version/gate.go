// Package version compares the server-advertised minimum client version
// against the running client and classifies the delta.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Severity classifies how far the current client lags the required version.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityPatch
	SeverityMinor
	SeverityMajor
)

func (s Severity) String() string {
	switch s {
	case SeverityPatch:
		return "patch"
	case SeverityMinor:
		return "minor"
	case SeverityMajor:
		return "major"
	default:
		return "none"
	}
}

// Blocking reports whether the delta must stop the flow until the host app
// is updated. Only a major lag blocks; minor and patch are advisory.
func (s Severity) Blocking() bool {
	return s == SeverityMajor
}

// Compare classifies required against current. Components are compared
// major first; the first component where required exceeds current decides
// the severity. A required version equal to or below current at every
// component yields SeverityNone.
func Compare(required, current string) (Severity, error) {
	req, err := parse(required)
	if err != nil {
		return SeverityNone, fmt.Errorf("required version: %w", err)
	}
	cur, err := parse(current)
	if err != nil {
		return SeverityNone, fmt.Errorf("current version: %w", err)
	}

	severities := [3]Severity{SeverityMajor, SeverityMinor, SeverityPatch}
	for i := 0; i < 3; i++ {
		if req[i] > cur[i] {
			return severities[i], nil
		}
		if req[i] < cur[i] {
			return SeverityNone, nil
		}
	}
	return SeverityNone, nil
}

func parse(version string) ([3]int, error) {
	var parsed [3]int
	parts := strings.Split(strings.TrimPrefix(version, "v"), ".")
	if len(parts) != 3 {
		return parsed, fmt.Errorf("expected major.minor.patch, got %q", version)
	}
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return parsed, fmt.Errorf("invalid component %q in %q", part, version)
		}
		parsed[i] = n
	}
	return parsed, nil
}
