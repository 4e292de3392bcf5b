package route

import (
	"context"
	"errors"
	"testing"

	"github.com/MrEthical07/goSession/permission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	valid       bool
	role        permission.Role
	verifyCalls int
	roleCalls   int
}

func (f *fakeSession) VerifyAndRefresh(context.Context) bool {
	f.verifyCalls++
	return f.valid
}

func (f *fakeSession) Role(context.Context) permission.Role {
	f.roleCalls++
	return f.role
}

func TestDefaultTable(t *testing.T) {
	tbl := DefaultTable()
	require.Len(t, tbl.Routes(), 8)

	d, ok := tbl.LookupPath("/enquetes/")
	require.True(t, ok)
	assert.Equal(t, Polls, d.Name)

	d, ok = tbl.LookupPath("/lista-embarque?poll=3")
	require.True(t, ok)
	assert.Equal(t, BoardingList, d.Name)
	assert.True(t, d.AllowedRoles.Contains(permission.RoleDriver))
	assert.True(t, d.AllowedRoles.Contains(permission.RoleStudent))
	assert.False(t, d.AllowedRoles.Contains(permission.RoleAdmin))

	for _, name := range []string{Login, Registration} {
		d, ok := tbl.Lookup(name)
		require.True(t, ok)
		assert.False(t, d.RequiresAuth, name)
	}

	homes := DefaultHomes()
	for role, name := range homes {
		d, ok := tbl.Lookup(name)
		require.True(t, ok, "home %q missing", name)
		assert.True(t, d.AllowedRoles.Contains(role), "home %q must admit %s", name, role)
	}
}

func TestNewTableRejectsInvalidRoutes(t *testing.T) {
	tests := []struct {
		name   string
		routes []Descriptor
	}{
		{"empty name", []Descriptor{{Path: "/x"}}},
		{"relative path", []Descriptor{{Name: "x", Path: "x"}}},
		{"public with roles", []Descriptor{{Name: "x", Path: "/x", AllowedRoles: permission.Roles("admin")}}},
		{"duplicate name", []Descriptor{{Name: "x", Path: "/x"}, {Name: "x", Path: "/y"}}},
		{"duplicate path", []Descriptor{{Name: "x", Path: "/x"}, {Name: "y", Path: "/x/"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable(tt.routes...)
			assert.Error(t, err)
		})
	}
}

func TestGuardPublicRouteSkipsSession(t *testing.T) {
	s := &fakeSession{}
	g := NewGuard(s, nil, nil)

	dec, err := g.Navigate(context.Background(), Registration)
	require.NoError(t, err)
	assert.Equal(t, Allow, dec.Outcome)
	assert.Equal(t, Registration, dec.Target.Name)
	assert.Zero(t, s.verifyCalls)
}

func TestGuardDecisions(t *testing.T) {
	tests := []struct {
		name       string
		route      string
		valid      bool
		role       permission.Role
		want       Outcome
		wantTarget string
	}{
		{"student to polls", Polls, true, permission.RoleStudent, Allow, Polls},
		{"driver to boarding list", BoardingList, true, permission.RoleDriver, Allow, BoardingList},
		{"driver to polls", Polls, true, permission.RoleDriver, RedirectRoleHome, Trips},
		{"student to trips", Trips, true, permission.RoleStudent, RedirectRoleHome, Polls},
		{"student to admin", AdminDashboard, true, permission.RoleStudent, RedirectRoleHome, Polls},
		{"admin to trip view", TripView, true, permission.RoleAdmin, RedirectRoleHome, AdminStudents},
		{"no role", Polls, true, permission.RoleNone, RedirectLogin, Login},
		{"invalid session", Polls, false, permission.RoleStudent, RedirectLogin, Login},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeSession{valid: tt.valid, role: tt.role}
			g := NewGuard(s, nil, nil)

			dec, err := g.Navigate(context.Background(), tt.route)
			require.NoError(t, err)
			assert.Equal(t, tt.want, dec.Outcome)
			assert.Equal(t, tt.wantTarget, dec.Target.Name)
			assert.Equal(t, 1, s.verifyCalls)
			if !tt.valid {
				assert.Zero(t, s.roleCalls, "role must not be read without a usable session")
			}
		})
	}
}

func TestGuardUnrestrictedProtectedRoute(t *testing.T) {
	tbl, err := NewTable(
		Descriptor{Name: Login, Path: "/"},
		Descriptor{Name: "profile", Path: "/perfil", RequiresAuth: true},
	)
	require.NoError(t, err)

	s := &fakeSession{valid: true}
	dec, err := NewGuard(s, tbl, nil).Navigate(context.Background(), "profile")
	require.NoError(t, err)
	assert.Equal(t, Allow, dec.Outcome)
	assert.Zero(t, s.roleCalls)
}

func TestGuardRoleWithoutHomeGoesToLogin(t *testing.T) {
	s := &fakeSession{valid: true, role: permission.RoleDriver}
	g := NewGuard(s, nil, nil).WithHomes(map[permission.Role]string{permission.RoleStudent: Polls})

	dec, err := g.Navigate(context.Background(), Polls)
	require.NoError(t, err)
	assert.Equal(t, RedirectLogin, dec.Outcome)
}

func TestGuardEmptyRoleSetAdmitsNobody(t *testing.T) {
	tbl, err := NewTable(
		Descriptor{Name: Login, Path: "/"},
		Descriptor{Name: "closed", Path: "/closed", RequiresAuth: true, AllowedRoles: permission.RoleSet{}},
	)
	require.NoError(t, err)

	s := &fakeSession{valid: true, role: permission.RoleAdmin}
	dec, err := NewGuard(s, tbl, nil).Navigate(context.Background(), "closed")
	require.NoError(t, err)
	assert.Equal(t, RedirectLogin, dec.Outcome, "admin home is not in this table")
}

func TestGuardUnknownRoute(t *testing.T) {
	g := NewGuard(&fakeSession{}, nil, nil)
	_, err := g.Navigate(context.Background(), "nowhere")
	assert.True(t, errors.Is(err, ErrUnknownRoute))
	_, err = g.NavigatePath(context.Background(), "/nowhere")
	assert.ErrorIs(t, err, ErrUnknownRoute)
}

func TestGuardNilSessionRedirectsToLogin(t *testing.T) {
	dec, err := NewGuard(nil, nil, nil).NavigatePath(context.Background(), "/viagens")
	require.NoError(t, err)
	assert.Equal(t, RedirectLogin, dec.Outcome)
	assert.Equal(t, "/", dec.Target.Path)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "allow", Allow.String())
	assert.Equal(t, "redirect-login", RedirectLogin.String())
	assert.Equal(t, "redirect-role-home", RedirectRoleHome.String())
	assert.Equal(t, "Outcome(9)", Outcome(9).String())
}
