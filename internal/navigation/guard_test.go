package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onpointe/prevention/internal/domain"
)

func TestGuard_StartsOnAuth(t *testing.T) {
	g := NewGuard()
	assert.Equal(t, ScreenAuth, g.Screen())
	assert.Equal(t, domain.RoleUnset, g.Role())
	assert.False(t, g.CanOpen(ScreenMessages))
}

func TestGuard_NavigateWithoutRole(t *testing.T) {
	g := NewGuard()
	g.RequireRole()

	screen, err := g.Navigate(ScreenRoster)
	assert.ErrorIs(t, err, ErrRoleRequired)
	assert.Equal(t, ScreenRole, screen)
	assert.Equal(t, ScreenRole, g.Screen())
}

func TestGuard_NavigateRedirectsDisallowed(t *testing.T) {
	tests := []struct {
		role   domain.Role
		target Screen
		want   Screen
	}{
		{domain.RolePT, ScreenAvailability, ScreenAvailability},
		{domain.RolePT, ScreenMessages, ScreenMessages},
		{domain.RolePT, ScreenCheckIn, ScreenRoster},
		{domain.RolePT, ScreenAuth, ScreenRoster},
		{domain.RoleDancer, ScreenResults, ScreenResults},
		{domain.RoleDancer, ScreenRoster, ScreenCheckIn},
		{domain.RoleDancer, ScreenAvailability, ScreenCheckIn},
		{domain.RoleDancer, Screen("nowhere"), ScreenCheckIn},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"->"+string(tt.target), func(t *testing.T) {
			g := NewGuard()
			_, err := g.Restore(tt.role)
			require.NoError(t, err)

			screen, err := g.Navigate(tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, screen)
			assert.Equal(t, tt.want, g.Screen())
		})
	}
}

func TestGuard_SelectRoleOnce(t *testing.T) {
	g := NewGuard()
	g.RequireRole()

	screen, err := g.SelectRole(domain.RoleDancer)
	require.NoError(t, err)
	assert.Equal(t, ScreenCheckIn, screen)

	_, err = g.SelectRole(domain.RolePT)
	assert.ErrorIs(t, err, ErrRoleAlreadySet)
	assert.Equal(t, domain.RoleDancer, g.Role())

	_, err = NewGuard().SelectRole(domain.Role("coach"))
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestGuard_SignOutClearsRole(t *testing.T) {
	g := NewGuard()
	_, err := g.Restore(domain.RolePT)
	require.NoError(t, err)
	assert.True(t, g.CanOpen(ScreenAvailability))

	g.SignOut()
	assert.Equal(t, ScreenAuth, g.Screen())
	assert.Equal(t, domain.RoleUnset, g.Role())
	assert.False(t, g.CanOpen(ScreenAvailability))
}

func TestAllowed_TablesAgree(t *testing.T) {
	for role, start := range StartScreenByRole {
		assert.True(t, Allowed(role, start), "start screen of %s must be allowed", role)
		assert.False(t, Allowed(role, ScreenAuth))
		assert.False(t, Allowed(role, ScreenRole))
	}
	assert.False(t, Allowed(domain.RoleUnset, ScreenMessages))
}
