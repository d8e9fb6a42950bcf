package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"onpointe/prevention/internal/domain"
	"onpointe/prevention/internal/repository"
	"onpointe/prevention/internal/risk"
)

// AlertService evaluates check-ins and manages the alerts they raise.
type AlertService interface {
	// EvaluateCheckIn recomputes the stored risk of one check-in and raises
	// or refreshes the linked PT's alert when it is severe enough.
	EvaluateCheckIn(ctx context.Context, dancerID, date string) (*domain.Risk, error)
	// MarkReviewed moves the alert to reviewed. It never moves back.
	MarkReviewed(ctx context.Context, ptID, alertID string) error
}

// alertService implements the AlertService interface.
type alertService struct {
	checkInRepo repository.CheckInRepository
	alertRepo   repository.AlertRepository
	userRepo    repository.UserRepository
	evaluator   *risk.Evaluator
	logger      *zap.Logger
	now         func() time.Time
}

// NewAlertService creates a new instance of alertService.
func NewAlertService(
	checkInRepo repository.CheckInRepository,
	alertRepo repository.AlertRepository,
	userRepo repository.UserRepository,
	evaluator *risk.Evaluator,
	logger *zap.Logger,
) AlertService {
	return &alertService{
		checkInRepo: checkInRepo,
		alertRepo:   alertRepo,
		userRepo:    userRepo,
		evaluator:   evaluator,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *alertService) EvaluateCheckIn(ctx context.Context, dancerID, date string) (*domain.Risk, error) {
	entry, err := s.checkInRepo.Get(ctx, dancerID, date)
	if err != nil {
		return nil, err
	}

	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, err
	}
	from := day.AddDate(0, 0, -(risk.HistoryWindow - 1)).Format(dateLayout)
	history, err := s.checkInRepo.GetRange(ctx, dancerID, from, date)
	if err != nil {
		return nil, err
	}

	computed := s.evaluator.Evaluate(*entry, history, s.now())
	if entry.Risk == nil || !sameRisk(*entry.Risk, computed) {
		if err := s.checkInRepo.SetRisk(ctx, dancerID, date, computed); err != nil {
			return nil, err
		}
	}

	if !s.evaluator.ShouldAlert(computed) {
		return &computed, nil
	}

	dancer, err := s.userRepo.GetByID(ctx, dancerID)
	if err != nil {
		return nil, err
	}
	if dancer.PTID == "" {
		s.logger.Debug("no PT to alert", zap.String("dancerId", dancerID), zap.String("date", date))
		return &computed, nil
	}

	alert := &domain.Alert{
		PTID:      dancer.PTID,
		DancerUID: dancerID,
		Severity:  computed.Severity,
		Reasons:   computed.Reasons,
		Snapshot:  &domain.AlertSnapshot{Date: date, Load: computed.Load},
	}
	if err := s.alertRepo.Upsert(ctx, alert); err != nil {
		return nil, err
	}
	s.logger.Info("alert raised",
		zap.String("alertId", alert.ID),
		zap.String("severity", alert.Severity))
	return &computed, nil
}

func (s *alertService) MarkReviewed(ctx context.Context, ptID, alertID string) error {
	if alertID == "" {
		return errors.New("alert ID is required")
	}
	return s.alertRepo.MarkReviewed(ctx, alertID, ptID, s.now().UTC())
}

// sameRisk compares everything except the evaluation time.
func sameRisk(a, b domain.Risk) bool {
	if a.Severity != b.Severity || len(a.Reasons) != len(b.Reasons) {
		return false
	}
	for i := range a.Reasons {
		if a.Reasons[i] != b.Reasons[i] {
			return false
		}
	}
	return sameNumber(a.Load, b.Load) && sameNumber(a.ACWR, b.ACWR)
}

func sameNumber(a, b *domain.Number) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// CheckInWatcher evaluates every check-in write reported by the store.
type CheckInWatcher struct {
	checkInRepo repository.CheckInRepository
	alerts      AlertService
	logger      *zap.Logger
	retryDelay  time.Duration
}

// NewCheckInWatcher creates a watcher feeding alerts.
func NewCheckInWatcher(checkInRepo repository.CheckInRepository, alerts AlertService, logger *zap.Logger) *CheckInWatcher {
	return &CheckInWatcher{
		checkInRepo: checkInRepo,
		alerts:      alerts,
		logger:      logger,
		retryDelay:  5 * time.Second,
	}
}

// Run blocks until ctx is done, reopening the stream after failures.
func (w *CheckInWatcher) Run(ctx context.Context) {
	for {
		err := w.checkInRepo.Watch(ctx, func(dancerID, date string) {
			if _, err := w.alerts.EvaluateCheckIn(ctx, dancerID, date); err != nil {
				w.logger.Error("check-in evaluation failed",
					zap.String("dancerId", dancerID),
					zap.String("date", date),
					zap.Error(err))
			}
		})
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			w.logger.Warn("check-in stream failed, retrying", zap.Duration("delay", w.retryDelay), zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.retryDelay):
		}
	}
}
