package auth

import autherrors "github.com/jrsteele09/go-auth-gate/internal/errors"

var (
	// ErrPolicyRejection means the login request itself is not allowed, e.g.
	// malformed single sign on parameters. No form is shown.
	ErrPolicyRejection = autherrors.ErrPolicyRejection

	ErrInvalidCredentials = autherrors.ErrInvalidCredentials
	ErrLoginNotFound      = autherrors.ErrLoginNotFound
	ErrSessionExpired     = autherrors.ErrSessionExpired
	ErrSessionNotFound    = autherrors.ErrSessionNotFound
	ErrNotFound           = autherrors.ErrNotFound
	ErrPasswordTooLong    = autherrors.ErrPasswordTooLong

	// ErrMasqueradeDenied means the session's login holds no open mask on
	// the requested user.
	ErrMasqueradeDenied = autherrors.ErrMasqueradeDenied
)

// Messages shown on the login form
const (
	MsgEmptyCredentials     = "Password or username are empty. Please try again."
	MsgIncorrectCredentials = "Password or username incorrect. Please try again."

	auditIncorrectCredentials = "Password or username incorrect:"
)
