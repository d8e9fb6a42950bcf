package viewsync

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"onpointe/prevention/internal/domain"
	"onpointe/prevention/internal/risk"
)

// SubscribeAlerts attaches the alert listener for the signed-in PT.
func (s *Synchronizer) SubscribeAlerts() {
	s.mu.Lock()
	if s.session.Role != domain.RolePT || s.session.UID == "" {
		s.mu.Unlock()
		return
	}
	uid := s.session.UID
	epoch := s.epoch
	s.view.Alerts.Listening = true
	s.mu.Unlock()
	s.notify()

	s.watch(epoch, func() {
		s.subs.WatchAlerts(uid, func(alerts []domain.Alert) {
			s.applyAlerts(epoch, alerts)
		})
	})
}

func (s *Synchronizer) applyAlerts(epoch uint64, alerts []domain.Alert) {
	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		return
	}
	s.alerts = append([]domain.Alert{}, alerts...)
	s.view.Alerts.Items = s.alertRowsLocked()
	s.view.Alerts.Message = ""
	if len(alerts) == 0 {
		s.view.Alerts.Message = "No alerts yet."
	}
	s.mu.Unlock()
	s.notify()
}

// MarkAlertReviewed asks the backend to mark the alert reviewed. The row
// is not flipped locally; the next alert snapshot carries the new state.
// Failures are logged and dropped.
func (s *Synchronizer) MarkAlertReviewed(ctx context.Context, alertID string) {
	if s.Session().Role != domain.RolePT || alertID == "" {
		return
	}
	if err := s.backend.MarkAlertReviewed(ctx, alertID); err != nil {
		s.logger.Debug("mark alert reviewed failed", zap.String("alertId", alertID), zap.Error(err))
	}
}

func (s *Synchronizer) alertRowsLocked() []AlertRow {
	rows := make([]AlertRow, 0, len(s.alerts))
	for _, a := range s.alerts {
		severity, ok := domain.ParseSeverity(a.Severity)
		if !ok {
			severity = domain.SeverityOrange
		}
		row := AlertRow{
			AlertID:     a.ID,
			DancerUID:   a.DancerUID,
			DancerLabel: s.labelForLocked(a.DancerUID),
			Date:        a.ID,
			Load:        "--",
			Severity:    severity,
			Reasons:     risk.JoinReasons(a.Reasons),
			Reviewed:    a.Reviewed,
			Action:      "Mark reviewed",
		}
		if a.Snapshot != nil {
			if a.Snapshot.Date != "" {
				row.Date = a.Snapshot.Date
			}
			if a.Snapshot.Load != nil {
				row.Load = strconv.FormatFloat(a.Snapshot.Load.Float(), 'f', -1, 64)
			}
		}
		if a.Reviewed {
			row.Action = "Reviewed"
		}
		rows = append(rows, row)
	}
	return rows
}
