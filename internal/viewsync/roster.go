package viewsync

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"onpointe/prevention/internal/domain"
)

// RefreshRoster fetches the PT's linked dancers and merges them into the
// directory. Known dancers are updated, never dropped, so labels stay
// resolvable when a dancer is missing from one fetch.
func (s *Synchronizer) RefreshRoster(ctx context.Context) {
	s.mu.Lock()
	if s.session.Role != domain.RolePT {
		s.mu.Unlock()
		return
	}
	t := s.beginLocked("roster")
	s.view.Roster.Loading = true
	s.view.Roster.Message = ""
	s.mu.Unlock()
	s.notify()

	dancers, err := s.backend.GetMyDancers(ctx)
	s.finishRoster(t, dancers, err)
}

func (s *Synchronizer) finishRoster(t ticket, dancers []domain.DancerSummary, err error) {
	s.mu.Lock()
	if !s.currentLocked(t) {
		s.mu.Unlock()
		s.logger.Debug("discarding stale roster")
		return
	}
	s.view.Roster.Loading = false
	switch {
	case err != nil:
		s.view.Roster.Message = err.Error()
		s.view.Roster.Entries = nil
	case len(dancers) == 0:
		s.view.Roster.Message = "No dancers linked yet."
		s.view.Roster.Entries = nil
	default:
		for _, d := range dancers {
			if d.DancerID == "" {
				continue
			}
			s.directory[d.DancerID] = dancerLabel{name: d.Name, email: d.Email}
		}
		entries := make([]RosterEntry, 0, len(dancers))
		for _, d := range dancers {
			if d.DancerID == "" {
				continue
			}
			subtitle := d.Email
			if subtitle == "" {
				subtitle = "Linked dancer"
			}
			entries = append(entries, RosterEntry{
				DancerID: d.DancerID,
				Label:    s.labelForLocked(d.DancerID),
				Subtitle: subtitle,
			})
		}
		s.view.Roster.Entries = entries
		s.view.Roster.Message = ""
		s.rederiveLocked()
	}
	s.mu.Unlock()
	s.notify()
}

// OpenDancerDetail loads one dancer's recent check-ins for the PT.
func (s *Synchronizer) OpenDancerDetail(ctx context.Context, dancerID string) {
	s.mu.Lock()
	if s.session.Role != domain.RolePT || dancerID == "" {
		s.mu.Unlock()
		return
	}
	t := s.beginLocked("detail")
	label := s.labelForLocked(dancerID)
	s.view.Detail = DetailView{
		DancerID: dancerID,
		Title:    label,
		Status:   fmt.Sprintf("Loading %s...", label),
		Loading:  true,
	}
	s.mu.Unlock()
	s.notify()

	items, err := s.backend.GetDancerRecentCheckins(ctx, dancerID, DetailHistoryLimit)
	s.finish(t, func(v *View) {
		v.Detail.Loading = false
		switch {
		case err != nil:
			v.Detail.Status = err.Error()
			if v.Detail.Status == "" {
				v.Detail.Status = "Failed"
			}
		case len(items) == 0:
			v.Detail.Status = fmt.Sprintf("No check-ins yet for %s.", label)
			v.Detail.Rows = nil
		default:
			v.Detail.Status = fmt.Sprintf("Recent check-ins and risk for %s.", label)
			v.Detail.Rows = CheckInRows(items, DetailHistoryLimit)
		}
	})
}

// GenerateCode asks the backend for a fresh linking code.
func (s *Synchronizer) GenerateCode(ctx context.Context) error {
	if s.Session().Role != domain.RolePT {
		return ErrWrongRole
	}
	s.update(func(v *View) { v.Linking.Message = "" })

	code, err := s.backend.GeneratePTCode(ctx)
	if err != nil {
		s.update(func(v *View) { v.Linking.Message = err.Error() })
		return err
	}
	if code == "" {
		code = "--"
	}
	s.update(func(v *View) { v.Linking.Code = code })
	return nil
}

// RedeemCode links the dancer to the PT that issued code.
func (s *Synchronizer) RedeemCode(ctx context.Context, code string) error {
	if s.Session().Role != domain.RoleDancer {
		return ErrWrongRole
	}
	s.update(func(v *View) { v.Linking.Message = "" })

	if _, err := s.backend.RedeemPTCode(ctx, strings.ToUpper(strings.TrimSpace(code))); err != nil {
		s.update(func(v *View) { v.Linking.Message = err.Error() })
		return err
	}
	s.update(func(v *View) { v.Linking.Message = "Linked to your PT." })
	s.RefreshThreads(ctx)
	s.RefreshAvailability(ctx)
	return nil
}

// SeedDemoData creates a demo dancer linked to the PT.
func (s *Synchronizer) SeedDemoData(ctx context.Context) error {
	if s.Session().Role != domain.RolePT {
		return ErrWrongRole
	}
	s.update(func(v *View) { v.Linking.Message = "" })

	if err := s.backend.SeedDemoData(ctx); err != nil {
		s.update(func(v *View) { v.Linking.Message = err.Error() })
		return err
	}
	s.update(func(v *View) { v.Linking.Message = "Seeded demo dancer." })
	s.RefreshRoster(ctx)
	s.RefreshThreads(ctx)
	return nil
}

// ExportReport requests a downloadable report of a dancer's check-ins.
func (s *Synchronizer) ExportReport(ctx context.Context, dancerID string) error {
	if s.Session().Role != domain.RolePT {
		return ErrWrongRole
	}
	t := s.begin("report")
	s.update(func(v *View) { v.Report = ReportView{DancerID: dancerID} })

	url, err := s.backend.ExportDancerReport(ctx, dancerID)
	if err != nil {
		s.logger.Warn("report export failed", zap.String("dancerId", dancerID), zap.Error(err))
	}
	s.finish(t, func(v *View) {
		if err != nil {
			v.Report.Message = err.Error()
			return
		}
		v.Report.URL = url
	})
	return err
}
