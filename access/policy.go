// Package access decides which request paths sit behind the login.
package access

import "strings"

// Reasons reported in a Decision
const (
	ReasonDisabled        = "disabled"
	ReasonNotProtected    = "not-protected"
	ReasonLoginURL        = "login-url"
	ReasonPublicException = "public-exception"
	ReasonProtected       = "protected"
)

// Decision is the outcome of checking one path
type Decision struct {
	Required bool
	Reason   string
}

// Policy matches paths against protected prefixes and public exceptions.
// A zero Policy never requires authentication.
type Policy struct {
	protected  []string
	exceptions []string
	loginURL   string
}

// NewPolicy copies the prefix lists so later changes to the caller's slices
// do not leak in.
func NewPolicy(protected, exceptions []string, loginURL string) *Policy {
	return &Policy{
		protected:  append([]string(nil), protected...),
		exceptions: append([]string(nil), exceptions...),
		loginURL:   loginURL,
	}
}

// Enabled reports whether any protected prefix is configured
func (p *Policy) Enabled() bool {
	return p != nil && len(p.protected) > 0
}

// RequiresAuth reports whether path needs an authenticated session
func (p *Policy) RequiresAuth(path string) bool {
	return p.Decide(path).Required
}

// Decide checks path against the protected prefixes (case-insensitive), then
// the login URL, then the public exceptions (case-sensitive).
func (p *Policy) Decide(path string) Decision {
	if !p.Enabled() {
		return Decision{Reason: ReasonDisabled}
	}

	lowerPath := strings.ToLower(path)
	decision := Decision{Reason: ReasonNotProtected}
	for _, prefix := range p.protected {
		if !strings.HasPrefix(lowerPath, strings.ToLower(prefix)) {
			continue
		}
		if path == p.loginURL {
			decision.Reason = ReasonLoginURL
			continue
		}
		if p.isPublic(path) {
			decision.Reason = ReasonPublicException
			continue
		}
		return Decision{Required: true, Reason: ReasonProtected}
	}
	return decision
}

func (p *Policy) isPublic(path string) bool {
	for _, prefix := range p.exceptions {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
