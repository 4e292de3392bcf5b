package route

import (
	"context"
	"net/http"
	"testing"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/internal/testbackend"
	"github.com/MrEthical07/goSession/permission"
	"github.com/MrEthical07/goSession/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scenario struct {
	backend *testbackend.Backend
	store   *session.MemoryStore
	client  *goSession.Client
	guard   *Guard
}

func newScenario(t *testing.T) *scenario {
	t.Helper()
	b := testbackend.Start(t, testbackend.Options{})
	b.AddUser(testbackend.User{ID: 1, Username: "ana", Password: "pw", Role: "student"})
	b.AddUser(testbackend.User{ID: 2, Username: "joao", Password: "pw", Role: "driver"})

	cfg := goSession.DefaultConfig()
	cfg.Endpoints.AuthURL = b.AuthURL()
	store := session.NewMemoryStore()
	c, err := goSession.New().WithConfig(cfg).WithStore(store).WithHTTPClient(b.Client()).Build()
	require.NoError(t, err)
	t.Cleanup(c.Close)

	return &scenario{backend: b, store: store, client: c, guard: NewGuard(c, nil, nil)}
}

func (s *scenario) login(t *testing.T, username string) {
	t.Helper()
	_, err := s.client.Login(context.Background(), username, "pw")
	require.NoError(t, err)
}

func TestScenarioHappyPath(t *testing.T) {
	s := newScenario(t)
	s.login(t, "ana")

	dec, err := s.guard.NavigatePath(context.Background(), "/enquetes")
	require.NoError(t, err)
	assert.Equal(t, Allow, dec.Outcome)
	assert.Equal(t, Polls, dec.Target.Name)
}

func TestScenarioRoleMismatchGoesHomeNotLogin(t *testing.T) {
	s := newScenario(t)
	s.login(t, "joao")

	dec, err := s.guard.NavigatePath(context.Background(), "/enquetes")
	require.NoError(t, err)
	assert.Equal(t, RedirectRoleHome, dec.Outcome)
	assert.Equal(t, "/viagens", dec.Target.Path)
	assert.True(t, s.client.IsAuthenticated(context.Background()))
}

func TestScenarioExpiredAccessIsRefreshedBeforeDeciding(t *testing.T) {
	s := newScenario(t)
	s.login(t, "ana")
	s.backend.ExpireAccess()

	dec, err := s.guard.Navigate(context.Background(), TripView)
	require.NoError(t, err)
	assert.Equal(t, Allow, dec.Outcome)
	assert.Equal(t, 1, s.backend.RefreshCalls())
}

func TestScenarioRefreshFailureRedirectsToLogin(t *testing.T) {
	s := newScenario(t)
	s.login(t, "ana")
	s.backend.ExpireAccess()
	s.backend.SetRefreshStatus(http.StatusUnauthorized)

	dec, err := s.guard.Navigate(context.Background(), Polls)
	require.NoError(t, err)
	assert.Equal(t, RedirectLogin, dec.Outcome)
	for _, kind := range session.Kinds() {
		v, err := s.store.Get(context.Background(), kind)
		require.NoError(t, err)
		assert.Empty(t, v)
	}
}

func TestScenarioMalformedCredentialHasNoRole(t *testing.T) {
	s := newScenario(t)
	ctx := context.Background()
	require.NoError(t, s.store.Set(ctx, session.KindAccess, "definitely not a jwt"))

	assert.Equal(t, permission.RoleNone, s.client.Role(ctx))

	// The backend rejects it and there is nothing to refresh with.
	dec, err := s.guard.Navigate(ctx, Polls)
	require.NoError(t, err)
	assert.Equal(t, RedirectLogin, dec.Outcome)
}
