package server

import (
	"net/http"
	"time"

	"github.com/jrsteele09/go-auth-gate/auth"
)

type options struct {
	nowTime   func() time.Time
	directory auth.Directory
	content   http.Handler
}

// Option configures a Server
type Option func(*options)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(o *options) {
		o.nowTime = nowFunc
	}
}

// WithDirectory adds the secondary credential source to the login flow
func WithDirectory(d auth.Directory) Option {
	return func(o *options) {
		o.directory = d
	}
}

// WithContent replaces what the gate lets through to. It takes precedence
// over UPSTREAM_URL.
func WithContent(h http.Handler) Option {
	return func(o *options) {
		o.content = h
	}
}

func applyOptions(opts []Option) options {
	o := options{nowTime: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
