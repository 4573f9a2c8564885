package auth

import "time"

type options struct {
	nowTime   func() time.Time
	directory Directory
}

// Option configures a Gate or LoginFlow
type Option func(*options)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(o *options) {
		o.nowTime = nowFunc
	}
}

// WithDirectory adds a secondary credential source tried when the local
// store rejects a login
func WithDirectory(d Directory) Option {
	return func(o *options) {
		o.directory = d
	}
}

func applyOptions(opts []Option) options {
	o := options{nowTime: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
