package repository

import (
	"context"
	"time"

	"onpointe/prevention/internal/domain"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrConflict     = RepositoryError("conflict")
	ErrUpdateFailed = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with profile documents.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (string, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.User, error)
	// SetRole sets the role once; a second call returns ErrConflict.
	SetRole(ctx context.Context, id string, role domain.Role, name string) error
	LinkDancer(ctx context.Context, ptID, dancerID string) error
	GetDancersByPT(ctx context.Context, ptID string) ([]domain.User, error)
}

// CheckInRepository stores one check-in per (dancer, date).
type CheckInRepository interface {
	Upsert(ctx context.Context, entry *domain.CheckIn) error
	Get(ctx context.Context, dancerID, date string) (*domain.CheckIn, error)
	GetRecent(ctx context.Context, dancerID string, limit int) ([]domain.CheckIn, error)
	GetRange(ctx context.Context, dancerID, fromDate, toDate string) ([]domain.CheckIn, error)
	SetRisk(ctx context.Context, dancerID, date string, risk domain.Risk) error
	// Watch calls onChange for every inserted or updated check-in until ctx ends.
	Watch(ctx context.Context, onChange func(dancerID, date string)) error
}

// ThreadRepository stores dancer/PT conversations.
type ThreadRepository interface {
	// Create returns the existing thread when the pair already has one.
	Create(ctx context.Context, thread *domain.Thread) (string, error)
	GetByID(ctx context.Context, id string) (*domain.Thread, error)
	GetByParticipant(ctx context.Context, uid string) ([]domain.Thread, error)
	RecordMessage(ctx context.Context, threadID, recipientUID, text string, at time.Time) error
	MarkRead(ctx context.Context, threadID, uid string) error
}

// MessageRepository stores the immutable messages of a thread.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) (string, error)
	GetRecent(ctx context.Context, threadID string, limit int) ([]domain.Message, error)
}

// AlertRepository stores PT alerts, one per (PT, dancer, check-in date).
type AlertRepository interface {
	// Upsert refreshes severity, reasons and snapshot; reviewed is untouched.
	Upsert(ctx context.Context, alert *domain.Alert) error
	GetByID(ctx context.Context, id string) (*domain.Alert, error)
	GetRecent(ctx context.Context, ptID string, limit int) ([]domain.Alert, error)
	MarkReviewed(ctx context.Context, id, ptID string, at time.Time) error
}

// AvailabilityRepository stores PT availability slots.
type AvailabilityRepository interface {
	Create(ctx context.Context, slot *domain.AvailabilitySlot) (string, error)
	Delete(ctx context.Context, id, ptID string) error
	GetUpcoming(ctx context.Context, ptID, fromDate string) ([]domain.AvailabilitySlot, error)
}

// LinkCodeRepository stores short-lived roster linking codes.
type LinkCodeRepository interface {
	Create(ctx context.Context, code *domain.LinkCode) error
	// Consume deletes and returns the code if it has not expired.
	Consume(ctx context.Context, code string, now time.Time) (*domain.LinkCode, error)
}
