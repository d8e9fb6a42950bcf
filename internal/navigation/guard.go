// Package navigation gates which screens a session may show based on its role.
package navigation

import (
	"errors"
	"sync"

	"onpointe/prevention/internal/domain"
)

// Screen identifies one view of the client.
type Screen string

const (
	ScreenAuth         Screen = "auth"
	ScreenRole         Screen = "role"
	ScreenCheckIn      Screen = "check"
	ScreenRoster       Screen = "pt"
	ScreenAvailability Screen = "avail"
	ScreenMessages     Screen = "msg"
	ScreenResults      Screen = "res"
)

var (
	ErrRoleRequired   = errors.New("select a role before navigating")
	ErrRoleAlreadySet = errors.New("role has already been selected")
	ErrInvalidRole    = errors.New("role must be pt or dancer")
	ErrNotAllowed     = errors.New("screen is not available for this role")
)

// StartScreenByRole is where each role lands after sign-in or a redirect.
var StartScreenByRole = map[domain.Role]Screen{
	domain.RolePT:     ScreenRoster,
	domain.RoleDancer: ScreenCheckIn,
}

// AllowedScreensByRole is the full set of screens each role may open.
var AllowedScreensByRole = map[domain.Role][]Screen{
	domain.RolePT:     {ScreenRoster, ScreenAvailability, ScreenMessages, ScreenResults},
	domain.RoleDancer: {ScreenCheckIn, ScreenMessages, ScreenResults},
}

// Allowed reports whether role may open screen.
func Allowed(role domain.Role, screen Screen) bool {
	for _, s := range AllowedScreensByRole[role] {
		if s == screen {
			return true
		}
	}
	return false
}

// Guard holds the session's role and active screen.
type Guard struct {
	mu     sync.Mutex
	role   domain.Role
	screen Screen
}

// NewGuard starts signed out, on the auth screen.
func NewGuard() *Guard {
	return &Guard{screen: ScreenAuth}
}

func (g *Guard) Role() domain.Role {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.role
}

func (g *Guard) Screen() Screen {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.screen
}

// CanOpen reports whether the current role may open screen.
func (g *Guard) CanOpen(screen Screen) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.role != domain.RoleUnset && Allowed(g.role, screen)
}

// Navigate moves to target when the role allows it and otherwise redirects
// to the role's start screen. It only fails when no role is set.
func (g *Guard) Navigate(target Screen) (Screen, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.role == domain.RoleUnset {
		return g.screen, ErrRoleRequired
	}
	if Allowed(g.role, target) {
		g.screen = target
	} else {
		g.screen = StartScreenByRole[g.role]
	}
	return g.screen, nil
}

// RequireRole parks a signed-in session without a role on role selection.
func (g *Guard) RequireRole() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.role = domain.RoleUnset
	g.screen = ScreenRole
}

// SelectRole records the first role choice and moves to its start screen.
func (g *Guard) SelectRole(role domain.Role) (Screen, error) {
	if _, ok := StartScreenByRole[role]; !ok {
		return "", ErrInvalidRole
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.role != domain.RoleUnset {
		return g.screen, ErrRoleAlreadySet
	}
	g.role = role
	g.screen = StartScreenByRole[role]
	return g.screen, nil
}

// Restore applies a role read back from the profile at sign-in.
func (g *Guard) Restore(role domain.Role) (Screen, error) {
	start, ok := StartScreenByRole[role]
	if !ok {
		return "", ErrInvalidRole
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.role = role
	g.screen = start
	return start, nil
}

// SignOut clears the role and forces the auth screen.
func (g *Guard) SignOut() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.role = domain.RoleUnset
	g.screen = ScreenAuth
}
