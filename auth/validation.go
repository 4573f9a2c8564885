package auth

import (
	"crypto/subtle"
	"fmt"
	"strings"
)

// SingleSignOnMarker is the first login parameter of a single sign on
const SingleSignOnMarker = "Single Sign On"

// ValidateSingleSignOn checks login parameters of the form
// [SingleSignOnMarker, secret, username, context?] against secret and
// returns the username and optional context. Any other non-empty first
// parameter is rejected as well.
func ValidateSingleSignOn(params []string, secret string) (username, ssoContext string, err error) {
	if len(params) == 0 || params[0] == "" {
		return "", "", nil
	}
	if params[0] != SingleSignOnMarker {
		return "", "", fmt.Errorf("%w: unexpected login parameter", ErrPolicyRejection)
	}
	if len(params) < 3 || len(params) > 4 {
		return "", "", fmt.Errorf("%w: single sign on takes 3 or 4 parameters, got %d", ErrPolicyRejection, len(params))
	}
	if secret == "" || subtle.ConstantTimeCompare([]byte(params[1]), []byte(secret)) != 1 {
		return "", "", fmt.Errorf("%w: single sign on secret mismatch", ErrPolicyRejection)
	}
	if len(params) == 4 {
		ssoContext = params[3]
	}
	return params[2], ssoContext, nil
}

// ValidateLandingURL accepts only local absolute paths so a landing URL can
// never point the post-login redirect at another host.
func ValidateLandingURL(u string) error {
	if u == "" {
		return fmt.Errorf("landing url is required")
	}
	if !strings.HasPrefix(u, "/") || strings.HasPrefix(u, "//") {
		return fmt.Errorf("landing url must be a local path")
	}
	if strings.ContainsAny(u, "\\\r\n") {
		return fmt.Errorf("landing url contains invalid characters")
	}
	return nil
}
