package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/go-notes-client/api"
	"github.com/jrsteele09/go-notes-client/api/apifake"
	"github.com/jrsteele09/go-notes-client/auth"
	apperrors "github.com/jrsteele09/go-notes-client/internal/errors"
	"github.com/jrsteele09/go-notes-client/sessions"
	"github.com/jrsteele09/go-notes-client/sessions/memstore"
	"github.com/jrsteele09/go-notes-client/users"
	"github.com/stretchr/testify/require"
)

const (
	testTenant   = "acme"
	testAdmin    = "admin@acme.test"
	testMember   = "member@acme.test"
	testPassword = "password123"
)

// testFixture holds all test dependencies
type testFixture struct {
	fake    *apifake.Server
	storage *memstore.MemStore
	store   *sessions.Store
	gateway *auth.Gateway
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	fake := apifake.New()
	fake.AddTenant(testTenant, users.PlanFree)
	_, err := fake.AddUser(testAdmin, testPassword, users.RoleAdmin, testTenant)
	require.NoError(t, err)
	_, err = fake.AddUser(testMember, testPassword, users.RoleMember, testTenant)
	require.NoError(t, err)

	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	storage := memstore.New()
	store, err := sessions.NewStore(storage)
	require.NoError(t, err)

	client, err := api.New(server.URL, store.TokenSource(), api.WithHTTPClient(server.Client()))
	require.NoError(t, err)

	gateway, err := auth.NewGateway(store, client)
	require.NoError(t, err)

	return &testFixture{fake: fake, storage: storage, store: store, gateway: gateway}
}

func (f *testFixture) login(t *testing.T, email string) *users.User {
	t.Helper()
	user, err := f.gateway.Login(context.Background(), email, testPassword)
	require.NoError(t, err)
	return user
}

func TestNewGateway_Validation(t *testing.T) {
	store, err := sessions.NewStore(memstore.New())
	require.NoError(t, err)

	_, err = auth.NewGateway(nil, &api.Client{})
	require.Error(t, err)
	_, err = auth.NewGateway(store, nil)
	require.Error(t, err)
}

func TestGateway_Login(t *testing.T) {
	t.Run("success starts a persisted session", func(t *testing.T) {
		f := setupTestFixture(t)
		user := f.login(t, testAdmin)

		require.Equal(t, testAdmin, user.Email)
		require.Equal(t, testTenant, user.TenantName)
		require.Equal(t, users.RoleAdmin, user.Role)
		require.Equal(t, users.PlanFree, user.Plan)
		require.True(t, f.store.IsAuthenticated())
		require.Equal(t, 2, f.storage.Len())
	})

	t.Run("rejected credentials give AuthError with server message", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.gateway.Login(context.Background(), testAdmin, "wrong")

		var authErr *apperrors.AuthError
		require.ErrorAs(t, err, &authErr)
		require.Equal(t, "Invalid credentials", authErr.Message)
		require.False(t, f.store.IsAuthenticated())
		require.Zero(t, f.storage.Len())
	})

	t.Run("rejection without message gives generic AuthError", func(t *testing.T) {
		f := setupTestFixture(t)
		f.fake.FailNext(http.MethodPost, "/auth/login", http.StatusBadGateway, api.ErrorBody{})
		_, err := f.gateway.Login(context.Background(), testAdmin, testPassword)

		var authErr *apperrors.AuthError
		require.ErrorAs(t, err, &authErr)
		require.Equal(t, auth.LoginFailedMsg, authErr.Message)
	})
}

func TestGateway_Logout(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t, testAdmin)

	require.NoError(t, f.gateway.Logout(context.Background()))
	require.False(t, f.store.IsAuthenticated())
	require.Zero(t, f.storage.Len())

	// Logging out again is still fine.
	require.NoError(t, f.gateway.Logout(context.Background()))
}

func TestGateway_LogoutNeverFails(t *testing.T) {
	store, err := sessions.NewStore(failingStorage{})
	require.NoError(t, err)
	gateway, err := auth.NewGateway(store, &api.Client{})
	require.NoError(t, err)

	require.NoError(t, gateway.Logout(context.Background()))
	require.False(t, store.IsAuthenticated())
}

type failingStorage struct{}

func (failingStorage) Get(string) (string, bool, error) { return "", false, errors.New("unavailable") }
func (failingStorage) Set(string, string) error         { return errors.New("unavailable") }
func (failingStorage) Remove(string) error              { return errors.New("unavailable") }

func TestGateway_RoleGating(t *testing.T) {
	ctx := context.Background()

	t.Run("no session", func(t *testing.T) {
		f := setupTestFixture(t)

		_, err := f.gateway.UpgradePlan(ctx, testTenant)
		require.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
		_, err = f.gateway.InviteUser(ctx, testTenant, "new@acme.test", users.RoleMember)
		require.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
		require.Zero(t, f.fake.TotalCalls())
	})

	t.Run("member is refused before any network call", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, testMember)
		before := f.fake.TotalCalls()

		_, err := f.gateway.UpgradePlan(ctx, testTenant)
		require.ErrorIs(t, err, apperrors.ErrPermissionDenied)
		_, err = f.gateway.InviteUser(ctx, testTenant, "new@acme.test", users.RoleMember)
		require.ErrorIs(t, err, apperrors.ErrPermissionDenied)

		require.Equal(t, before, f.fake.TotalCalls())
	})

	t.Run("admin reaches the remote", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, testAdmin)

		updated, err := f.gateway.UpgradePlan(ctx, testTenant)
		require.NoError(t, err)
		require.Equal(t, users.PlanPro, updated.Plan)
		require.Equal(t, 1, f.fake.Calls(http.MethodPost, "/tenants/{tenant}/upgrade"))

		receipt, err := f.gateway.InviteUser(ctx, testTenant, "new@acme.test", users.RoleMember)
		require.NoError(t, err)
		require.Equal(t, "new@acme.test", receipt.Member.Email)
		require.Equal(t, 1, f.fake.Calls(http.MethodPost, "/tenants/{tenant}/invite"))
	})
}

func TestGateway_UpgradePlanMergesPlan(t *testing.T) {
	f := setupTestFixture(t)
	before := f.login(t, testAdmin)

	updated, err := f.gateway.UpgradePlan(context.Background(), testTenant)
	require.NoError(t, err)

	expected := *before
	expected.Plan = users.PlanPro
	require.Equal(t, expected, *updated)

	// The merged user is what a restarted process restores.
	restarted, err := sessions.NewStore(f.storage)
	require.NoError(t, err)
	restored, ok := restarted.Restore()
	require.True(t, ok)
	require.Equal(t, expected, *restored)
}

func TestGateway_UpgradePlanServerRejection(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t, testAdmin)
	f.fake.FailNext(http.MethodPost, "/tenants/{tenant}/upgrade", http.StatusForbidden, api.ErrorBody{Message: "Billing disabled"})

	_, err := f.gateway.UpgradePlan(context.Background(), testTenant)
	var remoteErr *apperrors.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	require.Equal(t, "Billing disabled", remoteErr.Message)

	user, _ := f.store.CurrentUser()
	require.Equal(t, users.PlanFree, user.Plan)
}

func TestGateway_InviteUser(t *testing.T) {
	ctx := context.Background()

	t.Run("server rejection carries reason", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, testAdmin)

		_, err := f.gateway.InviteUser(ctx, testTenant, testMember, users.RoleMember)
		var inviteErr *apperrors.InviteError
		require.ErrorAs(t, err, &inviteErr)
		require.Equal(t, "User already exists", inviteErr.Reason)
	})

	t.Run("server rejection without reason", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, testAdmin)
		f.fake.FailNext(http.MethodPost, "/tenants/{tenant}/invite", http.StatusInternalServerError, api.ErrorBody{})

		_, err := f.gateway.InviteUser(ctx, testTenant, "new@acme.test", users.RoleMember)
		var inviteErr *apperrors.InviteError
		require.ErrorAs(t, err, &inviteErr)
		require.Equal(t, auth.InviteFailedMsg, inviteErr.Reason)
	})

	t.Run("invalid input is refused locally", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, testAdmin)
		before := f.fake.TotalCalls()

		_, err := f.gateway.InviteUser(ctx, testTenant, "not-an-email", users.RoleMember)
		require.ErrorIs(t, err, apperrors.ErrInvalidEmail)
		_, err = f.gateway.InviteUser(ctx, testTenant, "new@acme.test", users.RoleType("owner"))
		require.ErrorIs(t, err, apperrors.ErrInvalidRole)
		require.Equal(t, before, f.fake.TotalCalls())
	})
}

func TestGateway_ListMembers(t *testing.T) {
	f := setupTestFixture(t)
	_, err := f.gateway.ListMembers(context.Background())
	require.ErrorIs(t, err, apperrors.ErrNotAuthenticated)

	f.login(t, testMember)
	members, err := f.gateway.ListMembers(context.Background())
	require.NoError(t, err)
	require.Len(t, members, 2)
	require.Equal(t, testAdmin, members[0].Email)
}

func TestGateway_LoginMissingCredentialsStaysLocal(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.gateway.Login(context.Background(), "", testPassword)
	var authErr *apperrors.AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, auth.CredentialsRequiredMsg, authErr.Message)
	require.Equal(t, 0, f.fake.TotalCalls())
	require.False(t, f.store.IsAuthenticated())
}
