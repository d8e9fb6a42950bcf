// Package app drives a client session: identity changes select the role,
// the role gates navigation, and navigation refreshes the synchronized views.
package app

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"onpointe/prevention/internal/backend"
	"onpointe/prevention/internal/domain"
	"onpointe/prevention/internal/identity"
	"onpointe/prevention/internal/navigation"
	"onpointe/prevention/internal/viewsync"
)

// Identity is the sign-in provider.
type Identity interface {
	SignIn(ctx context.Context, email, password string) error
	SignUp(ctx context.Context, email, password string) error
	SignOut()
	CurrentUser() *identity.User
	OnSessionChange(fn func(*identity.User))
}

// ProfileStore reads and writes the per-user profile document.
type ProfileStore interface {
	GetProfile(ctx context.Context, uid string) (*domain.User, error)
	SetRole(ctx context.Context, uid string, role domain.Role, name string) error
}

// State is the session state presentation shows besides the View.
type State struct {
	Screen      navigation.Screen
	Role        domain.Role
	Email       string
	AuthMessage string
	RoleMessage string
}

// App owns one client session.
type App struct {
	mu          sync.Mutex
	ids         Identity
	profiles    ProfileStore
	guard       *navigation.Guard
	sync        *viewsync.Synchronizer
	logger      *zap.Logger
	authMessage string
	roleMessage string
}

// New wires the session. Session changes from ids are handled on the
// goroutine that reports them.
func New(ids Identity, profiles ProfileStore, guard *navigation.Guard, s *viewsync.Synchronizer, logger *zap.Logger) *App {
	a := &App{
		ids:      ids,
		profiles: profiles,
		guard:    guard,
		sync:     s,
		logger:   logger,
	}
	ids.OnSessionChange(func(u *identity.User) {
		a.HandleSessionChange(context.Background(), u)
	})
	return a
}

// Sync exposes the synchronizer for view operations.
func (a *App) Sync() *viewsync.Synchronizer {
	return a.sync
}

// State returns the current session state.
func (a *App) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return State{
		Screen:      a.guard.Screen(),
		Role:        a.guard.Role(),
		Email:       a.sync.Session().Email,
		AuthMessage: a.authMessage,
		RoleMessage: a.roleMessage,
	}
}

// HandleSessionChange reacts to sign-in and sign-out. A profile that cannot
// be read is treated as one without a role.
func (a *App) HandleSessionChange(ctx context.Context, u *identity.User) {
	if u == nil {
		a.guard.SignOut()
		a.sync.Reset()
		a.logger.Info("signed out")
		return
	}

	role := domain.RoleUnset
	profile, err := a.profiles.GetProfile(ctx, u.UID)
	if err != nil {
		a.logger.Warn("profile read failed, asking for role", zap.String("uid", u.UID), zap.Error(err))
	} else if profile != nil {
		if r, ok := domain.ParseRole(string(profile.Role)); ok {
			role = r
		}
	}

	// Signed out or switched user while the profile was loading.
	if current := a.ids.CurrentUser(); current == nil || current.UID != u.UID {
		a.logger.Debug("discarding profile for stale session", zap.String("uid", u.UID))
		return
	}

	a.sync.Start(viewsync.Session{UID: u.UID, Email: u.Email, Role: role})
	if role == domain.RoleUnset {
		a.guard.RequireRole()
		return
	}
	if _, err := a.guard.Restore(role); err != nil {
		a.guard.RequireRole()
		return
	}
	a.sync.Bootstrap(ctx)
}

// SignIn clears and then sets the inline auth message.
func (a *App) SignIn(ctx context.Context, email, password string) error {
	return a.authenticate(ctx, email, password, a.ids.SignIn)
}

func (a *App) SignUp(ctx context.Context, email, password string) error {
	return a.authenticate(ctx, email, password, a.ids.SignUp)
}

func (a *App) authenticate(ctx context.Context, email, password string, fn func(context.Context, string, string) error) error {
	a.setAuthMessage("")
	if err := fn(ctx, strings.TrimSpace(email), password); err != nil {
		a.setAuthMessage(err.Error())
		return err
	}
	return nil
}

func (a *App) SignOut() {
	a.ids.SignOut()
}

// SelectRole persists the first role choice, then lands on the role's start
// screen and loads every role-scoped list.
func (a *App) SelectRole(ctx context.Context, name string, role domain.Role) error {
	a.setRoleMessage("")

	u := a.ids.CurrentUser()
	if u == nil {
		a.setRoleMessage(backend.ErrNotSignedIn.Error())
		return backend.ErrNotSignedIn
	}
	if _, ok := navigation.StartScreenByRole[role]; !ok {
		a.setRoleMessage(navigation.ErrInvalidRole.Error())
		return navigation.ErrInvalidRole
	}
	if a.guard.Role() != domain.RoleUnset {
		a.setRoleMessage(navigation.ErrRoleAlreadySet.Error())
		return navigation.ErrRoleAlreadySet
	}

	if err := a.profiles.SetRole(ctx, u.UID, role, strings.TrimSpace(name)); err != nil {
		a.setRoleMessage(err.Error())
		return err
	}
	if _, err := a.guard.SelectRole(role); err != nil {
		a.setRoleMessage(err.Error())
		return err
	}

	a.sync.Start(viewsync.Session{UID: u.UID, Email: u.Email, Role: role})
	a.sync.Bootstrap(ctx)
	return nil
}

// Navigate opens target, or the role's start screen when target is not
// allowed, and refreshes what that screen shows.
func (a *App) Navigate(ctx context.Context, target navigation.Screen) (navigation.Screen, error) {
	screen, err := a.guard.Navigate(target)
	if err != nil {
		if errors.Is(err, navigation.ErrRoleRequired) {
			a.setRoleMessage(err.Error())
		}
		return screen, err
	}
	a.sync.RefreshScreen(ctx, screen)
	return screen, nil
}

// Enter moves to screen for an action that belongs to it. Unlike Navigate
// it neither redirects nor refreshes: a screen the role may not open fails
// with navigation.ErrNotAllowed.
func (a *App) Enter(screen navigation.Screen) error {
	if a.guard.Role() == domain.RoleUnset {
		a.setRoleMessage(navigation.ErrRoleRequired.Error())
		return navigation.ErrRoleRequired
	}
	if !a.guard.CanOpen(screen) {
		return navigation.ErrNotAllowed
	}
	_, err := a.guard.Navigate(screen)
	return err
}

// ViewDancer jumps from an alert to the dancer's detail on the roster screen.
func (a *App) ViewDancer(ctx context.Context, dancerID string) error {
	if _, err := a.Navigate(ctx, navigation.ScreenRoster); err != nil {
		return err
	}
	a.sync.OpenDancerDetail(ctx, dancerID)
	return nil
}

func (a *App) setAuthMessage(msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.authMessage = msg
}

func (a *App) setRoleMessage(msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.roleMessage = msg
}
