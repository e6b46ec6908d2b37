package auth

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/jrsteele09/go-notes-client/internal/errors"
	"github.com/jrsteele09/go-notes-client/sessions"
	"github.com/jrsteele09/go-notes-client/tenants"
	"github.com/jrsteele09/go-notes-client/users"
	"github.com/rs/zerolog"
)

// Gateway performs the privileged operations that change session or tenant
// state and keeps the session store in step with their results.
//
// Role checks here only short-circuit obviously doomed calls; the remote API
// re-validates every request.
type Gateway struct {
	store     *sessions.Store
	remote    Remote
	validator *Validator
	logger    zerolog.Logger
}

// GatewayOption defines a function type to modify the Gateway instance.
type GatewayOption func(*Gateway)

func WithLogger(logger zerolog.Logger) GatewayOption {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// NewGateway creates a Gateway over the session store and remote API.
func NewGateway(store *sessions.Store, remote Remote, options ...GatewayOption) (*Gateway, error) {
	if store == nil {
		return nil, errors.New("[NewGateway] session store is required")
	}
	if remote == nil {
		return nil, errors.New("[NewGateway] remote is required")
	}
	g := &Gateway{
		store:     store,
		remote:    remote,
		validator: NewValidator(),
		logger:    zerolog.Nop(),
	}
	for _, opt := range options {
		opt(g)
	}
	return g, nil
}

// Login authenticates against the API and starts a session. Any rejection is
// reported as *AuthError carrying the server's message.
func (g *Gateway) Login(ctx context.Context, email, password string) (*users.User, error) {
	if err := g.validator.ValidateCredentials(email, password); err != nil {
		return nil, err
	}
	email = strings.TrimSpace(email)
	resp, err := g.remote.Login(ctx, email, password)
	if err != nil {
		g.logger.Info().Str("email", email).Err(err).Msg("login rejected")
		msg := apperrors.Message(err)
		var remoteErr *apperrors.RemoteError
		if !errors.As(err, &remoteErr) || msg == "" {
			msg = LoginFailedMsg
		}
		return nil, &apperrors.AuthError{Message: msg}
	}

	user := resp.User.Flatten()
	if err := g.validator.ValidateSessionUser(&user); err != nil {
		g.logger.Warn().Err(err).Msg("login response incomplete")
		return nil, &apperrors.AuthError{Message: LoginFailedMsg}
	}
	if err := g.store.SetSession(user, resp.Token); err != nil {
		// The session is usable for this process even if it could not be
		// persisted.
		g.logger.Error().Err(err).Msg("session not persisted")
	}

	g.logger.Info().Str("user_id", user.ID).Str("tenant", user.TenantName).Msg("logged in")
	return &user, nil
}

// Logout ends the session locally. It never fails: storage errors are
// logged and the in-memory session is gone regardless.
func (g *Gateway) Logout(ctx context.Context) error {
	if err := g.store.Clear(); err != nil {
		g.logger.Error().Err(err).Msg("failed to clear persisted session")
	}
	g.logger.Info().Msg("logged out")
	return nil
}

// UpgradePlan moves tenantName to the pro plan and merges the plan returned
// by the API into the session user.
func (g *Gateway) UpgradePlan(ctx context.Context, tenantName string) (*users.User, error) {
	if _, err := g.requireAdmin("UpgradePlan"); err != nil {
		return nil, err
	}

	plan, err := g.remote.Upgrade(ctx, tenantName)
	if err != nil {
		g.logger.Warn().Str("tenant", tenantName).Err(err).Msg("plan upgrade failed")
		return nil, withDefaultMessage(err, "upgrade plan", UpgradeFailedMsg)
	}

	updated, err := g.store.UpdateUser(func(u *users.User) {
		u.Plan = plan
	})
	if err != nil && updated == nil {
		return nil, apperrors.Wrapf(err, "[UpgradePlan] update session")
	}
	if err != nil {
		g.logger.Error().Err(err).Msg("upgraded plan not persisted")
	}
	g.logger.Info().Str("tenant", tenantName).Str("plan", string(plan)).Msg("plan upgraded")
	return updated, nil
}

// InviteUser invites email into tenantName with role.
func (g *Gateway) InviteUser(ctx context.Context, tenantName, email string, role users.RoleType) (*tenants.InviteReceipt, error) {
	if _, err := g.requireAdmin("InviteUser"); err != nil {
		return nil, err
	}
	if err := g.validator.ValidateInvite(email, role); err != nil {
		return nil, apperrors.Wrapf(err, "[InviteUser]")
	}
	email = strings.TrimSpace(email)

	receipt, err := g.remote.Invite(ctx, tenantName, tenants.InviteRequest{Email: email, Role: role})
	if err != nil {
		g.logger.Warn().Str("tenant", tenantName).Err(err).Msg("invite failed")
		reason := apperrors.Message(err)
		if reason == "" || errors.Is(err, apperrors.ErrNotAuthenticated) {
			reason = InviteFailedMsg
		}
		return nil, &apperrors.InviteError{Reason: reason}
	}
	g.logger.Info().Str("tenant", tenantName).Str("role", string(role)).Msg("user invited")
	return receipt, nil
}

// ListMembers lists the members of the session user's tenant.
func (g *Gateway) ListMembers(ctx context.Context) ([]tenants.Member, error) {
	if !g.store.IsAuthenticated() {
		return nil, apperrors.ErrNotAuthenticated
	}
	members, err := g.remote.ListMembers(ctx)
	if err != nil {
		return nil, withDefaultMessage(err, "list members", "Failed to load users. Please try again.")
	}
	return members, nil
}

// requireAdmin checks the local session before any remote call.
func (g *Gateway) requireAdmin(op string) (*users.User, error) {
	user, ok := g.store.CurrentUser()
	if !ok {
		return nil, apperrors.ErrNotAuthenticated
	}
	if !user.IsAdmin() {
		g.logger.Info().Str("user_id", user.ID).Str("op", op).Msg("refused: not an admin")
		return nil, apperrors.Wrapf(apperrors.ErrPermissionDenied, "[%s] only administrators may do this", op)
	}
	return user, nil
}

// withDefaultMessage makes sure err carries a readable message.
func withDefaultMessage(err error, op, defaultMsg string) error {
	var remoteErr *apperrors.RemoteError
	if errors.As(err, &remoteErr) {
		if remoteErr.Message == "" {
			remoteErr.Message = defaultMsg
		}
		return remoteErr
	}
	if errors.Is(err, apperrors.ErrNotAuthenticated) {
		return err
	}
	return &apperrors.RemoteError{Op: op, Message: defaultMsg + ": " + err.Error()}
}
