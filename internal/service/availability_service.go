package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"onpointe/prevention/internal/domain"
	"onpointe/prevention/internal/repository"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// --- Error Definitions ---
var (
	ErrInvalidSlotDate  = errors.New("date must be YYYY-MM-DD")
	ErrInvalidSlotTime  = errors.New("start and end must be HH:MM")
	ErrSlotEndsTooEarly = errors.New("end must be after start")
	ErrNoLinkedPT       = errors.New("no linked PT yet")
)

// AvailabilityService manages the slots a PT publishes.
type AvailabilityService interface {
	// AddSlot validates and stores a slot for ptID.
	AddSlot(ctx context.Context, ptID string, slot domain.AvailabilitySlot) (*domain.AvailabilitySlot, error)
	DeleteSlot(ctx context.Context, ptID, slotID string) error
	GetMySlots(ctx context.Context, ptID string) ([]domain.AvailabilitySlot, error)
	// GetLinkedPTSlots returns the upcoming slots of the dancer's PT.
	GetLinkedPTSlots(ctx context.Context, dancerID string) ([]domain.AvailabilitySlot, error)
}

// availabilityService implements the AvailabilityService interface.
type availabilityService struct {
	slotRepo repository.AvailabilityRepository
	userRepo repository.UserRepository
	now      func() time.Time
}

// NewAvailabilityService creates a new instance of availabilityService.
func NewAvailabilityService(slotRepo repository.AvailabilityRepository, userRepo repository.UserRepository) AvailabilityService {
	return &availabilityService{
		slotRepo: slotRepo,
		userRepo: userRepo,
		now:      time.Now,
	}
}

func (s *availabilityService) AddSlot(ctx context.Context, ptID string, slot domain.AvailabilitySlot) (*domain.AvailabilitySlot, error) {
	slot.Date = strings.TrimSpace(slot.Date)
	slot.Start = strings.TrimSpace(slot.Start)
	slot.End = strings.TrimSpace(slot.End)
	slot.Note = strings.TrimSpace(slot.Note)

	if err := ValidateSlot(slot); err != nil {
		return nil, err
	}

	slot.ID = ""
	slot.PTID = ptID
	if _, err := s.slotRepo.Create(ctx, &slot); err != nil {
		return nil, err
	}
	return &slot, nil
}

// ValidateSlot checks the slot's date and clock fields. Zero-padded values
// compare correctly as strings, which is what storage relies on.
func ValidateSlot(slot domain.AvailabilitySlot) error {
	if _, err := time.Parse(dateLayout, slot.Date); err != nil {
		return ErrInvalidSlotDate
	}
	start, err := time.Parse(clockLayout, slot.Start)
	if err != nil || len(slot.Start) != len(clockLayout) {
		return ErrInvalidSlotTime
	}
	end, err := time.Parse(clockLayout, slot.End)
	if err != nil || len(slot.End) != len(clockLayout) {
		return ErrInvalidSlotTime
	}
	if !end.After(start) {
		return ErrSlotEndsTooEarly
	}
	return nil
}

func (s *availabilityService) DeleteSlot(ctx context.Context, ptID, slotID string) error {
	if slotID == "" {
		return errors.New("slot ID is required")
	}
	return s.slotRepo.Delete(ctx, slotID, ptID)
}

func (s *availabilityService) GetMySlots(ctx context.Context, ptID string) ([]domain.AvailabilitySlot, error) {
	return s.slotRepo.GetUpcoming(ctx, ptID, s.today())
}

func (s *availabilityService) GetLinkedPTSlots(ctx context.Context, dancerID string) ([]domain.AvailabilitySlot, error) {
	dancer, err := s.userRepo.GetByID(ctx, dancerID)
	if err != nil {
		return nil, err
	}
	if dancer.PTID == "" {
		return nil, ErrNoLinkedPT
	}
	return s.slotRepo.GetUpcoming(ctx, dancer.PTID, s.today())
}

func (s *availabilityService) today() string {
	return s.now().UTC().Format(dateLayout)
}
