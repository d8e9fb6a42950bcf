package domain

import (
	"strings"
	"time"
)

// Role type to distinguish between user roles
type Role string

// Define constants for roles
const (
	RoleUnset  Role = ""
	RolePT     Role = "pt"
	RoleDancer Role = "dancer"
)

// ParseRole maps a raw role string onto a known Role.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RolePT:
		return RolePT, true
	case RoleDancer:
		return RoleDancer, true
	}
	return RoleUnset, false
}

// User is the per-user profile document (either a PT or a dancer).
// The role is set once after sign-up and never switched implicitly.
type User struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	Name         string    `bson:"name,omitempty" json:"name,omitempty"`
	Email        string    `bson:"email" json:"email"`    // Should be unique
	PasswordHash string    `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role         Role      `bson:"role,omitempty" json:"role,omitempty"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`

	// --- PT-specific ---
	DancerIDs []string `bson:"dancerIds,omitempty" json:"dancerIds,omitempty"`

	// --- Dancer-specific ---
	PTID string `bson:"ptId,omitempty" json:"ptId,omitempty"`
}

func (u *User) IsPT() bool {
	return u.Role == RolePT
}

func (u *User) IsDancer() bool {
	return u.Role == RoleDancer
}

// DancerSummary is the roster entry a PT receives for each linked dancer.
type DancerSummary struct {
	DancerID string `json:"dancerId"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
}

// LinkCode is a short-lived code a PT hands to a dancer to link rosters.
type LinkCode struct {
	Code      string    `bson:"_id" json:"code"`
	PTID      string    `bson:"ptId" json:"-"`
	ExpiresAt time.Time `bson:"expiresAt" json:"expiresAt"`
	CreatedAt time.Time `bson:"createdAt" json:"-"`
}
