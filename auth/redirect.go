package auth

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-auth-gate/internal/config"
)

// LoginRedirect sends the browser to target after a successful login. When
// the request brought no cookies, or was already flagged, target gets the
// no-cookie marker so the gate can tell a cookieless client from a
// logged out one.
func LoginRedirect(cfg config.AuthConfig, rc *RequestContext, target string) Result {
	if target == "" {
		target = "/"
	}
	if !rc.HasCookies || rc.Query().Has(NoCookieMarker) {
		if strings.Contains(target, "?") {
			target += "&" + NoCookieMarker
		} else {
			target += "?" + NoCookieMarker
		}
	}
	return redirectTo(http.StatusSeeOther, cfg.GetScheme()+"://"+cfg.GetHostname()+target)
}
