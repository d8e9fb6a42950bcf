package risk

import (
	"fmt"
	"time"

	"onpointe/prevention/internal/config"
	"onpointe/prevention/internal/domain"
)

const (
	dateLayout    = "2006-01-02"
	acuteDays     = 7
	chronicDays   = 28
	HistoryWindow = chronicDays
)

// Evaluator is the server-side risk computation that fills CheckIn.Risk.
// It sees the dancer's recent history, which the client never does.
type Evaluator struct {
	cfg config.RiskConfig
}

// NewEvaluator creates an evaluator with the configured thresholds.
func NewEvaluator(cfg config.RiskConfig) *Evaluator {
	return &Evaluator{cfg: cfg}
}

// Evaluate computes the risk for entry. history holds the dancer's other
// check-ins; entries outside the chronic window are ignored.
func (e *Evaluator) Evaluate(entry domain.CheckIn, history []domain.CheckIn, now time.Time) domain.Risk {
	load := domain.Number(ComputeLoad(entry))
	result := domain.Risk{
		Severity:    string(domain.SeverityGreen),
		Load:        &load,
		EvaluatedAt: now.UTC(),
	}

	severity := domain.SeverityGreen
	raise := func(s domain.Severity, reason string) {
		if s.Rank() > severity.Rank() {
			severity = s
		}
		result.Reasons = append(result.Reasons, reason)
	}

	if NotesContainUrgentSymptoms(entry.Notes) {
		raise(domain.SeverityRed, ReasonUrgentSymptoms)
	}

	if acwr, ok := e.ACWR(entry, history); ok {
		ratio := domain.Number(acwr)
		result.ACWR = &ratio
		switch {
		case acwr >= e.cfg.ACWRRed:
			raise(domain.SeverityRed, fmt.Sprintf("Workload spike (ACWR %.2f)", acwr))
		case acwr >= e.cfg.ACWROrange:
			raise(domain.SeverityOrange, fmt.Sprintf("Workload rising (ACWR %.2f)", acwr))
		}
	}

	yellow := 0
	if f := entry.Fatigue.Float(); f >= e.cfg.FatigueHigh {
		raise(domain.SeverityYellow, fmt.Sprintf("High fatigue (%g)", f))
		yellow++
	}
	if s := entry.Sore.Float(); s >= e.cfg.SoreHigh {
		raise(domain.SeverityYellow, fmt.Sprintf("High soreness (%g)", s))
		yellow++
	}
	if s := entry.Sleep.Float(); s > 0 && s <= e.cfg.SleepLow {
		raise(domain.SeverityYellow, fmt.Sprintf("Poor sleep (%g)", s))
		yellow++
	}
	if yellow >= 2 && severity.Rank() < domain.SeverityOrange.Rank() {
		severity = domain.SeverityOrange
	}

	result.Severity = string(severity)
	return result
}

// ACWR is the mean daily load over the last 7 days divided by the mean over
// the last 28, both ending on entry's date. It is undefined until the
// chronic window holds MinChronicDays check-ins.
func (e *Evaluator) ACWR(entry domain.CheckIn, history []domain.CheckIn) (float64, bool) {
	day, err := time.Parse(dateLayout, entry.Date)
	if err != nil {
		return 0, false
	}

	loads := map[string]int{entry.Date: ComputeLoad(entry)}
	for _, h := range history {
		if h.Date == entry.Date {
			continue
		}
		loads[h.Date] = ComputeLoad(h)
	}

	var acute, chronic, days int
	for offset := 0; offset < chronicDays; offset++ {
		key := day.AddDate(0, 0, -offset).Format(dateLayout)
		load, ok := loads[key]
		if !ok {
			continue
		}
		days++
		chronic += load
		if offset < acuteDays {
			acute += load
		}
	}
	if days < e.cfg.MinChronicDays || chronic == 0 {
		return 0, false
	}

	acuteMean := float64(acute) / acuteDays
	chronicMean := float64(chronic) / chronicDays
	return acuteMean / chronicMean, true
}

// ShouldAlert reports whether a computed risk warrants a PT alert.
func (e *Evaluator) ShouldAlert(r domain.Risk) bool {
	threshold, ok := domain.ParseSeverity(e.cfg.AlertSeverity)
	if !ok {
		threshold = domain.SeverityOrange
	}
	s, _ := domain.ParseSeverity(r.Severity)
	return s.AtLeast(threshold)
}
