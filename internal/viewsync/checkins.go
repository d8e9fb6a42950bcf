package viewsync

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"onpointe/prevention/internal/backend"
	"onpointe/prevention/internal/domain"
	"onpointe/prevention/internal/risk"
)

const notesPreviewLength = 100

// CheckInInput is the raw check-in form. Numeric fields are coerced, so
// anything unparsable is saved as 0.
type CheckInInput struct {
	Date    string
	Minutes string
	RPE     string
	Fatigue string
	Sore    string
	Sleep   string
	Notes   string
}

// RefreshLoads loads the dancer's own latest check-ins.
func (s *Synchronizer) RefreshLoads(ctx context.Context) {
	s.mu.Lock()
	session := s.session
	if session.Role != domain.RoleDancer || session.UID == "" {
		s.mu.Unlock()
		return
	}
	t := s.beginLocked("loads")
	s.view.Loads.Loading = true
	s.mu.Unlock()
	s.notify()

	entries, err := s.store.RecentCheckIns(ctx, session.UID, OwnHistoryLimit)
	s.finish(t, func(v *View) {
		v.Loads.Loading = false
		if err != nil {
			v.Loads.Message = err.Error()
			return
		}
		v.Loads.Rows = CheckInRows(entries, OwnHistoryLimit)
		v.Loads.Message = ""
		if len(v.Loads.Rows) == 0 {
			v.Loads.Message = "No check-ins yet."
		}
	})
}

// SaveCheckIn upserts today's (or the given date's) check-in and reloads.
func (s *Synchronizer) SaveCheckIn(ctx context.Context, in CheckInInput) error {
	session := s.Session()
	if session.UID == "" {
		return backend.ErrNotSignedIn
	}
	if session.Role != domain.RoleDancer {
		return ErrWrongRole
	}

	entry := domain.CheckIn{
		DancerID: session.UID,
		Date:     strings.TrimSpace(in.Date),
		Minutes:  domain.ParseNumber(in.Minutes),
		RPE:      domain.ParseNumber(in.RPE),
		Fatigue:  domain.ParseNumber(in.Fatigue),
		Sore:     domain.ParseNumber(in.Sore),
		Sleep:    domain.ParseNumber(in.Sleep),
		Notes:    strings.TrimSpace(in.Notes),
	}
	if entry.Date == "" {
		entry.Date = s.today()
	}

	s.update(func(v *View) { v.Loads.Message = "" })
	if err := s.store.UpsertCheckIn(ctx, session.UID, entry); err != nil {
		s.logger.Warn("check-in save failed", zap.String("date", entry.Date), zap.Error(err))
		s.update(func(v *View) { v.Loads.Message = err.Error() })
		return err
	}
	s.RefreshLoads(ctx)
	return nil
}

// CheckInRows sorts newest date first, keeps limit rows and annotates each
// with its severity, rationale and load.
func CheckInRows(entries []domain.CheckIn, limit int) []CheckInRow {
	sorted := append([]domain.CheckIn(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date > sorted[j].Date
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}

	rows := make([]CheckInRow, 0, len(sorted))
	for _, entry := range sorted {
		rows = append(rows, annotate(entry))
	}
	return rows
}

func annotate(entry domain.CheckIn) CheckInRow {
	assessment := risk.Classify(entry)
	summary := assessment.Rationale
	if assessment.Severity == domain.SeverityGreen {
		summary = risk.ReasonNoFlags
	}

	row := CheckInRow{
		Date:         entry.Date,
		Minutes:      entry.Minutes.Float(),
		RPE:          entry.RPE.Float(),
		Load:         risk.LoadFor(entry),
		Severity:     assessment.Severity,
		Rationale:    assessment.Rationale,
		Summary:      summary,
		NotesPreview: preview(entry.Notes, notesPreviewLength),
	}
	if entry.Risk != nil {
		row.ACWR = risk.FormatACWR(entry.Risk.ACWR)
	}
	return row
}

func preview(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
