package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"

	"onpointe/prevention/internal/domain"
	"onpointe/prevention/internal/repository"
)

// ClientStore is the client's direct view of the document store: its own
// profile and its own check-ins.
type ClientStore struct {
	users    repository.UserRepository
	checkIns *mongo.Collection
}

// NewClientStore creates a store over db.
func NewClientStore(db *mongo.Database) *ClientStore {
	return &ClientStore{
		users:    NewMongoUserRepository(db),
		checkIns: db.Collection(checkInCollectionName),
	}
}

// GetProfile returns the profile, or nil when none exists yet.
func (s *ClientStore) GetProfile(ctx context.Context, uid string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// SetRole persists the role once per user.
func (s *ClientStore) SetRole(ctx context.Context, uid string, role domain.Role, name string) error {
	err := s.users.SetRole(ctx, uid, role, name)
	if errors.Is(err, repository.ErrConflict) {
		return errors.New("role has already been selected")
	}
	return err
}

// RecentCheckIns returns the dancer's newest limit check-ins.
func (s *ClientStore) RecentCheckIns(ctx context.Context, dancerID string, limit int) ([]domain.CheckIn, error) {
	return recentCheckIns(ctx, s.checkIns, dancerID, limit)
}

// UpsertCheckIn writes the check-in keyed by (dancer, date).
func (s *ClientStore) UpsertCheckIn(ctx context.Context, dancerID string, entry domain.CheckIn) error {
	entry.DancerID = dancerID
	if entry.Date == "" {
		return errors.New("check-in requires a date")
	}
	return upsertCheckIn(ctx, s.checkIns, &entry)
}
