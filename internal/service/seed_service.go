package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"onpointe/prevention/internal/domain"
	"onpointe/prevention/internal/repository"
)

const demoDays = 10

// SeedService fills a PT's roster with demo data.
type SeedService interface {
	// SeedDemoData creates a dancer linked to ptID with recent check-ins,
	// the last of which trips the urgent-notes rule.
	SeedDemoData(ctx context.Context, ptID string) (dancerID string, err error)
}

// seedService implements the SeedService interface.
type seedService struct {
	userRepo    repository.UserRepository
	checkInRepo repository.CheckInRepository
	roster      RosterService
	messages    MessagingService
	alerts      AlertService
	logger      *zap.Logger
	now         func() time.Time
}

// NewSeedService creates a new instance of seedService.
func NewSeedService(
	userRepo repository.UserRepository,
	checkInRepo repository.CheckInRepository,
	roster RosterService,
	messages MessagingService,
	alerts AlertService,
	logger *zap.Logger,
) SeedService {
	return &seedService{
		userRepo:    userRepo,
		checkInRepo: checkInRepo,
		roster:      roster,
		messages:    messages,
		alerts:      alerts,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *seedService) SeedDemoData(ctx context.Context, ptID string) (string, error) {
	suffix := uuid.NewString()[:8]
	// Demo dancers never sign in; the password is random and discarded.
	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return "", ErrHashingFailed
	}

	dancer := &domain.User{
		Name:         "Demo Dancer " + suffix,
		Email:        fmt.Sprintf("demo-%s@example.com", suffix),
		PasswordHash: string(hash),
		Role:         domain.RoleDancer,
	}
	dancerID, err := s.userRepo.Create(ctx, dancer)
	if err != nil {
		return "", err
	}

	threadID, err := s.roster.Link(ctx, ptID, dancerID)
	if err != nil {
		return "", err
	}

	today := s.now().UTC()
	for offset := demoDays - 1; offset >= 0; offset-- {
		entry := demoCheckIn(dancerID, today.AddDate(0, 0, -offset), offset)
		if err := s.checkInRepo.Upsert(ctx, &entry); err != nil {
			return "", err
		}
		// The watcher would do this too; seeding should not depend on it.
		if _, err := s.alerts.EvaluateCheckIn(ctx, dancerID, entry.Date); err != nil {
			s.logger.Warn("demo evaluation failed", zap.String("date", entry.Date), zap.Error(err))
		}
	}

	if _, err := s.messages.Send(ctx, dancerID, threadID, "Hi! My ankle felt tight after rehearsal today."); err != nil {
		s.logger.Warn("demo message failed", zap.String("threadId", threadID), zap.Error(err))
	}

	s.logger.Info("seeded demo dancer", zap.String("ptId", ptID), zap.String("dancerId", dancerID))
	return dancerID, nil
}

// demoCheckIn builds a rising workload whose final day reports chest pain.
func demoCheckIn(dancerID string, day time.Time, offset int) domain.CheckIn {
	entry := domain.CheckIn{
		DancerID: dancerID,
		Date:     day.Format(dateLayout),
		Minutes:  domain.Number(60 + 10*(demoDays-offset)),
		RPE:      domain.Number(5 + (demoDays-offset)/3),
		Fatigue:  domain.Number(3 + (demoDays-offset)/2),
		Sore:     domain.Number(2 + (demoDays-offset)/3),
		Sleep:    domain.Number(7 - (demoDays-offset)/4),
	}
	if offset == 0 {
		entry.Notes = "Felt chest pain during the last variation."
	}
	return entry
}
