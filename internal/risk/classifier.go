// Package risk turns a check-in into a severity level and a readable rationale.
package risk

import (
	"regexp"
	"strings"

	"onpointe/prevention/internal/domain"
)

const (
	ReasonUrgentSymptoms = "Notes mention urgent symptoms"
	ReasonNoFlags        = "No active risk flags"
)

// UrgentPatterns is the reviewed list of urgent-symptom phrases. It is
// clinical content: changes go through domain owners, never at runtime.
var UrgentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)chest\s*pain`),
	regexp.MustCompile(`(?i)\bcp\b`),
	regexp.MustCompile(`(?i)\bpressure\b`),
	regexp.MustCompile(`(?i)\btightness\b`),
	regexp.MustCompile(`(?i)\bpalpitations?\b`),
	regexp.MustCompile(`(?i)heart\s*racing`),
	regexp.MustCompile(`(?i)shortness\s+of\s+breath`),
	regexp.MustCompile(`(?i)\bsob\b`),
	regexp.MustCompile(`(?i)\bfaint`),
	regexp.MustCompile(`(?i)\bsyncope\b`),
	regexp.MustCompile(`(?i)\bnumbness\b`),
	regexp.MustCompile(`(?i)\btingling\b`),
	regexp.MustCompile(`(?i)saddle\s+anesthesia`),
	regexp.MustCompile(`(?i)\bbowel\b`),
	regexp.MustCompile(`(?i)\bbladder\b`),
	regexp.MustCompile(`(?i)severe\s+headache`),
	regexp.MustCompile(`(?i)\bvision\b`),
}

// Assessment is the derived, never persisted, view of a check-in's risk.
type Assessment struct {
	Severity  domain.Severity
	Rationale string
}

// NormalizeNotes case-folds, collapses whitespace and trims.
func NormalizeNotes(notes string) string {
	return strings.Join(strings.Fields(strings.ToLower(notes)), " ")
}

// NotesContainUrgentSymptoms reports whether any urgent pattern matches.
func NotesContainUrgentSymptoms(notes string) bool {
	normalized := NormalizeNotes(notes)
	if normalized == "" {
		return false
	}
	for _, pattern := range UrgentPatterns {
		if pattern.MatchString(normalized) {
			return true
		}
	}
	return false
}

// Classify applies, in order: the notes red-flag scan, the server severity,
// then green. The notes scan runs first so a stale or calmer server value
// can never hide urgent free text.
func Classify(entry domain.CheckIn) Assessment {
	severity := classifySeverity(entry)
	return Assessment{
		Severity:  severity,
		Rationale: rationale(entry.Risk, severity),
	}
}

func classifySeverity(entry domain.CheckIn) domain.Severity {
	if NotesContainUrgentSymptoms(entry.Notes) {
		return domain.SeverityRed
	}
	if entry.Risk != nil {
		if s, ok := domain.ParseSeverity(entry.Risk.Severity); ok {
			return s
		}
	}
	return domain.SeverityGreen
}

// rationale prefers explicit server reasons over the synthesized text.
func rationale(r *domain.Risk, severity domain.Severity) string {
	if text := JoinReasons(reasonsOf(r)); text != "" {
		return text
	}
	if severity == domain.SeverityRed {
		return ReasonUrgentSymptoms
	}
	return ReasonNoFlags
}

func reasonsOf(r *domain.Risk) []string {
	if r == nil {
		return nil
	}
	return r.Reasons
}

// JoinReasons joins the non-blank reasons with ", ".
func JoinReasons(reasons []string) string {
	kept := make([]string, 0, len(reasons))
	for _, reason := range reasons {
		if strings.TrimSpace(reason) != "" {
			kept = append(kept, reason)
		}
	}
	return strings.TrimSpace(strings.Join(kept, ", "))
}
