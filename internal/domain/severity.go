package domain

import "strings"

// Severity is the urgency attached to a check-in or alert.
type Severity string

const (
	SeverityGreen  Severity = "green"
	SeverityYellow Severity = "yellow"
	SeverityOrange Severity = "orange"
	SeverityRed    Severity = "red"
)

// ParseSeverity case-folds raw and reports whether it names a known level.
func ParseSeverity(raw string) (Severity, bool) {
	s := Severity(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case SeverityGreen, SeverityYellow, SeverityOrange, SeverityRed:
		return s, true
	}
	return "", false
}

// Rank orders severities by urgency. Unknown values rank below green.
func (s Severity) Rank() int {
	switch s {
	case SeverityGreen:
		return 1
	case SeverityYellow:
		return 2
	case SeverityOrange:
		return 3
	case SeverityRed:
		return 4
	}
	return 0
}

// AtLeast reports whether s is as urgent as other.
func (s Severity) AtLeast(other Severity) bool {
	return s.Rank() >= other.Rank()
}
