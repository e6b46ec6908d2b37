package auth

import (
	"fmt"
	"strings"

	apperrors "github.com/jrsteele09/go-notes-client/internal/errors"
	"github.com/jrsteele09/go-notes-client/users"
)

// CredentialsRequiredMsg is reported when login is attempted without an
// email or password.
const CredentialsRequiredMsg = "Email and password are required"

// Validator holds the input checks the gateway applies before going to the
// network. The remote API repeats all of them.
type Validator struct{}

// NewValidator creates a new Validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateCredentials checks a login form.
func (v *Validator) ValidateCredentials(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return &apperrors.AuthError{Message: CredentialsRequiredMsg}
	}
	return nil
}

// ValidateEmail does the same shallow format check as the login form.
func (v *Validator) ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperrors.Wrapf(apperrors.ErrInvalidEmail, "email is required")
	}
	at := strings.Index(email, "@")
	if at <= 0 || at != strings.LastIndex(email, "@") || !strings.Contains(email[at:], ".") {
		return apperrors.Wrapf(apperrors.ErrInvalidEmail, "%q", email)
	}
	return nil
}

// ValidateInvite checks an invitation before it is sent.
func (v *Validator) ValidateInvite(email string, role users.RoleType) error {
	if err := v.ValidateEmail(email); err != nil {
		return err
	}
	if !role.Valid() {
		return apperrors.Wrapf(apperrors.ErrInvalidRole, "%q", role)
	}
	return nil
}

// ValidateSessionUser checks the user returned by a successful login.
func (v *Validator) ValidateSessionUser(user *users.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(user.Email) == "" {
		return fmt.Errorf("user %s has no email", user.ID)
	}
	return nil
}
