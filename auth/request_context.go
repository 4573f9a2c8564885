package auth

import (
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-auth-gate/sessions"
)

const (
	// P3PHeader is sent whenever a session cookie may be set
	P3PHeader = `CP="NOI NID ADMa OUR IND UNI COM NAV"`

	// NoCookieMarker flags clients that did not send the session cookie back
	NoCookieMarker = "no-cookie"

	passwordField = "password"
	usernameField = "username"
)

// RequestContext is the auth state of one request. It is built by the HTTP
// layer, used by a single goroutine and dropped with the request.
type RequestContext struct {
	Method      string
	Path        string
	RawQuery    string
	Form        url.Values // POSTed form values
	RemoteAddr  string     // client IP without port
	HasCookies  bool       // the request carried any cookie
	LocalAccess bool       // the client is on a loopback address
	Sessions    *sessions.Handle

	// ResponseHeader collects headers the HTTP layer must send
	ResponseHeader http.Header

	// SuppressPostLog tells request logging to leave the form out
	SuppressPostLog bool
	// LoginFailed is set after a rejected credential check
	LoginFailed bool

	decided  bool
	decision Result
}

// NewRequestContext captures r. The form must already be parsed for POSTs
// to be seen.
func NewRequestContext(r *http.Request, handle *sessions.Handle) *RequestContext {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ip = host
	}
	parsed := net.ParseIP(ip)

	form := url.Values{}
	for k, v := range r.PostForm {
		form[k] = append([]string(nil), v...)
	}

	return &RequestContext{
		Method:         r.Method,
		Path:           r.URL.Path,
		RawQuery:       r.URL.RawQuery,
		Form:           form,
		RemoteAddr:     ip,
		HasCookies:     len(r.Cookies()) > 0,
		LocalAccess:    parsed != nil && parsed.IsLoopback(),
		Sessions:       handle,
		ResponseHeader: http.Header{},
	}
}

// Query parses RawQuery; malformed pairs are dropped
func (rc *RequestContext) Query() url.Values {
	q, _ := url.ParseQuery(rc.RawQuery)
	return q
}

// HasNoCookieMarker reports whether the query carries the no-cookie marker,
// either bare or as nocookie=no-cookie from a login redirect.
func (rc *RequestContext) HasNoCookieMarker() bool {
	q := rc.Query()
	return q.Has(NoCookieMarker) || q.Get("nocookie") == NoCookieMarker
}

// StripNoCookie removes the no-cookie marker from the canonical URL
func (rc *RequestContext) StripNoCookie() {
	if rc.RawQuery == "" {
		return
	}
	parts := strings.Split(rc.RawQuery, "&")
	kept := parts[:0]
	for _, p := range parts {
		if p == NoCookieMarker || strings.HasPrefix(p, NoCookieMarker+"=") {
			continue
		}
		kept = append(kept, p)
	}
	rc.RawQuery = strings.Join(kept, "&")
}

// URL is the canonical request URL, path plus query
func (rc *RequestContext) URL() string {
	if rc.RawQuery == "" {
		return rc.Path
	}
	return rc.Path + "?" + rc.RawQuery
}

// takePassword reads the password once and removes it from the form
func (rc *RequestContext) takePassword() string {
	pw := rc.Form.Get(passwordField)
	rc.Form.Del(passwordField)
	return pw
}

func (rc *RequestContext) emitP3P() {
	if rc.ResponseHeader == nil {
		rc.ResponseHeader = http.Header{}
	}
	rc.ResponseHeader.Set("P3P", P3PHeader)
}
