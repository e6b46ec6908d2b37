package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/go-notes-client/api"
	"github.com/jrsteele09/go-notes-client/api/apifake"
	apperrors "github.com/jrsteele09/go-notes-client/internal/errors"
	"github.com/jrsteele09/go-notes-client/notes"
	"github.com/jrsteele09/go-notes-client/tenants"
	"github.com/jrsteele09/go-notes-client/users"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const (
	testTenant   = "acme"
	testAdmin    = "admin@acme.test"
	testMember   = "member@acme.test"
	testPassword = "password123"
)

// testFixture holds a fake API and a client pointed at it
type testFixture struct {
	fake   *apifake.Server
	server *httptest.Server
	tokens *switchableTokens
	client *api.Client
}

// switchableTokens is a TokenSource the test can swap between users.
type switchableTokens struct {
	token string
}

func (s *switchableTokens) Token() (*oauth2.Token, error) {
	if s.token == "" {
		return nil, apperrors.ErrNotAuthenticated
	}
	return &oauth2.Token{AccessToken: s.token, TokenType: "Bearer"}, nil
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

	tokens := &switchableTokens{}
	client, err := api.New(server.URL, tokens, api.WithHTTPClient(server.Client()))
	require.NoError(t, err)

	return &testFixture{fake: fake, server: server, tokens: tokens, client: client}
}

func (f *testFixture) signIn(t *testing.T, email string) {
	t.Helper()
	token, err := f.fake.IssueToken(email)
	require.NoError(t, err)
	f.tokens.token = token
}

func TestNew_Validation(t *testing.T) {
	_, err := api.New("", &switchableTokens{})
	require.Error(t, err)

	_, err = api.New("not a url", &switchableTokens{})
	require.Error(t, err)

	_, err = api.New("http://localhost", nil)
	require.Error(t, err)
}

func TestClient_Login(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	t.Run("success flattens the tenant", func(t *testing.T) {
		resp, err := f.client.Login(ctx, testAdmin, testPassword)
		require.NoError(t, err)
		require.NotEmpty(t, resp.Token)

		user := resp.User.Flatten()
		require.Equal(t, testAdmin, user.Email)
		require.Equal(t, testTenant, user.TenantName)
		require.NotEmpty(t, user.TenantID)
		require.Equal(t, users.RoleAdmin, user.Role)
		require.Equal(t, users.PlanFree, user.Plan)
	})

	t.Run("bad password surfaces server message", func(t *testing.T) {
		_, err := f.client.Login(ctx, testAdmin, "wrong")
		var remoteErr *apperrors.RemoteError
		require.ErrorAs(t, err, &remoteErr)
		require.Equal(t, http.StatusUnauthorized, remoteErr.StatusCode)
		require.Equal(t, "Invalid credentials", remoteErr.Message)
	})

	t.Run("empty error body falls back to default", func(t *testing.T) {
		f.fake.FailNext(http.MethodPost, "/auth/login", http.StatusInternalServerError, api.ErrorBody{})
		_, err := f.client.Login(ctx, testAdmin, testPassword)
		var remoteErr *apperrors.RemoteError
		require.ErrorAs(t, err, &remoteErr)
		require.Equal(t, "Login failed", remoteErr.Message)
	})
}

func TestClient_Notes(t *testing.T) {
	f := setupTestFixture(t)
	f.signIn(t, testAdmin)
	ctx := context.Background()
	repo := f.client.Notes()

	created, err := repo.Create(ctx, notes.DefaultTitle, "")
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, notes.DefaultTitle, created.Title)
	require.Equal(t, 1, f.fake.Calls(http.MethodPost, "/notes"))

	updated, err := repo.Update(ctx, created.ID, "Title", "Body")
	require.NoError(t, err)
	require.Equal(t, created.ID, updated.ID)
	require.Equal(t, "Body", updated.Snippet)
	require.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Title", list[0].Title)

	require.NoError(t, repo.Delete(ctx, created.ID))
	list, err = repo.List(ctx)
	require.NoError(t, err)
	require.Empty(t, list)

	err = repo.Delete(ctx, created.ID)
	var remoteErr *apperrors.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	require.Equal(t, http.StatusNotFound, remoteErr.StatusCode)
}

func TestClient_RequiresToken(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.client.Notes().List(context.Background())
	require.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
	require.Zero(t, f.fake.TotalCalls(), "no request may leave without a token")
}

func TestClient_TenantOperations(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	t.Run("member invite is rejected server side with error field", func(t *testing.T) {
		f.signIn(t, testMember)
		_, err := f.client.Invite(ctx, testTenant, tenants.InviteRequest{Email: "new@acme.test", Role: users.RoleMember})
		var remoteErr *apperrors.RemoteError
		require.ErrorAs(t, err, &remoteErr)
		require.Equal(t, http.StatusForbidden, remoteErr.StatusCode)
		require.Equal(t, "Only admins can invite users", remoteErr.Message)
	})

	t.Run("admin invite returns receipt", func(t *testing.T) {
		f.signIn(t, testAdmin)
		receipt, err := f.client.Invite(ctx, testTenant, tenants.InviteRequest{Email: "new@acme.test", Role: users.RoleMember})
		require.NoError(t, err)
		require.NotNil(t, receipt.Member)
		require.Equal(t, "new@acme.test", receipt.Member.Email)

		members, err := f.client.ListMembers(ctx)
		require.NoError(t, err)
		require.Len(t, members, 3)
	})

	t.Run("admin upgrade", func(t *testing.T) {
		f.signIn(t, testAdmin)
		plan, err := f.client.Upgrade(ctx, testTenant)
		require.NoError(t, err)
		require.Equal(t, users.PlanPro, plan)
		require.Equal(t, users.PlanPro, f.fake.Plan(testTenant))
	})
}
