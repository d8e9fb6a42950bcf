package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"onpointe/prevention/internal/domain"
	"onpointe/prevention/internal/repository"
)

// --- Error Definitions ---
var (
	ErrDancerNotLinked     = errors.New("dancer is not linked to this PT")
	ErrDancerAlreadyLinked = errors.New("dancer is already linked to another PT")
	ErrInvalidLinkCode     = errors.New("link code is invalid or expired")
	ErrNotDancer           = errors.New("user is not a dancer")
	ErrNotPT               = errors.New("user is not a PT")
)

const (
	LinkCodeLength      = 6
	LinkCodeTTL         = 24 * time.Hour
	DefaultCheckInLimit = 14
	MaxCheckInLimit     = 60
	linkCodeAttempts    = 5
)

// RosterService links dancers to PTs and serves the PT's view of them.
type RosterService interface {
	GetMyDancers(ctx context.Context, ptID string) ([]domain.DancerSummary, error)
	GetDancerRecentCheckins(ctx context.Context, ptID, dancerID string, limit int) ([]domain.CheckIn, error)
	GenerateCode(ctx context.Context, ptID string) (*domain.LinkCode, error)
	// RedeemCode links the dancer to the code's PT and opens their thread.
	RedeemCode(ctx context.Context, dancerID, code string) (ptID, threadID string, err error)
	// Link connects a dancer and a PT and returns their thread id.
	Link(ctx context.Context, ptID, dancerID string) (string, error)
}

// rosterService implements the RosterService interface.
type rosterService struct {
	userRepo     repository.UserRepository
	checkInRepo  repository.CheckInRepository
	threadRepo   repository.ThreadRepository
	linkCodeRepo repository.LinkCodeRepository
}

// NewRosterService creates a new instance of rosterService.
func NewRosterService(
	userRepo repository.UserRepository,
	checkInRepo repository.CheckInRepository,
	threadRepo repository.ThreadRepository,
	linkCodeRepo repository.LinkCodeRepository,
) RosterService {
	return &rosterService{
		userRepo:     userRepo,
		checkInRepo:  checkInRepo,
		threadRepo:   threadRepo,
		linkCodeRepo: linkCodeRepo,
	}
}

// GetMyDancers lists the PT's linked dancers.
func (s *rosterService) GetMyDancers(ctx context.Context, ptID string) ([]domain.DancerSummary, error) {
	dancers, err := s.userRepo.GetDancersByPT(ctx, ptID)
	if err != nil {
		return nil, err
	}
	summaries := make([]domain.DancerSummary, 0, len(dancers))
	for _, d := range dancers {
		summaries = append(summaries, domain.DancerSummary{
			DancerID: d.ID,
			Name:     d.Name,
			Email:    d.Email,
		})
	}
	return summaries, nil
}

// GetDancerRecentCheckins returns a linked dancer's newest check-ins.
func (s *rosterService) GetDancerRecentCheckins(ctx context.Context, ptID, dancerID string, limit int) ([]domain.CheckIn, error) {
	if dancerID == "" {
		return nil, errors.New("dancer ID is required")
	}
	dancer, err := s.userRepo.GetByID(ctx, dancerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDancerNotLinked
		}
		return nil, err
	}
	if dancer.PTID != ptID {
		return nil, ErrDancerNotLinked
	}

	if limit <= 0 {
		limit = DefaultCheckInLimit
	}
	if limit > MaxCheckInLimit {
		limit = MaxCheckInLimit
	}
	return s.checkInRepo.GetRecent(ctx, dancerID, limit)
}

// GenerateCode issues a fresh code, retrying on the rare collision.
func (s *rosterService) GenerateCode(ctx context.Context, ptID string) (*domain.LinkCode, error) {
	for attempt := 0; attempt < linkCodeAttempts; attempt++ {
		code := &domain.LinkCode{
			Code:      NewLinkCode(),
			PTID:      ptID,
			ExpiresAt: time.Now().UTC().Add(LinkCodeTTL),
		}
		err := s.linkCodeRepo.Create(ctx, code)
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, repository.ErrConflict) {
			return nil, err
		}
	}
	return nil, errors.New("could not allocate a unique link code")
}

// NewLinkCode returns LinkCodeLength upper-case hex characters.
func NewLinkCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:LinkCodeLength])
}

func (s *rosterService) RedeemCode(ctx context.Context, dancerID, code string) (string, string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "", "", ErrInvalidLinkCode
	}

	dancer, err := s.userRepo.GetByID(ctx, dancerID)
	if err != nil {
		return "", "", err
	}
	if !dancer.IsDancer() {
		return "", "", ErrNotDancer
	}

	stored, err := s.linkCodeRepo.Consume(ctx, code, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", "", ErrInvalidLinkCode
		}
		return "", "", err
	}
	if dancer.PTID != "" && dancer.PTID != stored.PTID {
		return "", "", ErrDancerAlreadyLinked
	}

	threadID, err := s.Link(ctx, stored.PTID, dancerID)
	if err != nil {
		return "", "", err
	}
	return stored.PTID, threadID, nil
}

func (s *rosterService) Link(ctx context.Context, ptID, dancerID string) (string, error) {
	if err := s.userRepo.LinkDancer(ctx, ptID, dancerID); err != nil {
		return "", err
	}
	return s.threadRepo.Create(ctx, &domain.Thread{DancerID: dancerID, PTID: ptID})
}
