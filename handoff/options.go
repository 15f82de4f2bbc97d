// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package handoff

import (
	"time"

	"github.com/hashicorp/go-hclog"
)

// Option defines a common functional options type which can be used in a
// variadic parameter pattern.
type Option func(interface{})

// ApplyOpts takes a pointer to the options struct as a set of default options
// and applies the slice of opts as overrides.
func ApplyOpts(opts interface{}, opt ...Option) {
	for _, o := range opt {
		if o == nil { // ignore any nil Options
			continue
		}
		o(opts)
	}
}

// WithNow provides an optional func for determining what the current time it
// is, for: Config, Session.IsExpired
func WithNow(now func() time.Time) Option {
	return func(o interface{}) {
		if now == nil {
			return
		}
		switch v := o.(type) {
		case *configOptions:
			v.withNowFunc = now
		case *sessionOptions:
			v.withNowFunc = now
		}
	}
}

// WithExpirySkew provides an optional expiry skew duration for:
// Session.IsExpired
func WithExpirySkew(d time.Duration) Option {
	return func(o interface{}) {
		if v, ok := o.(*sessionOptions); ok {
			v.withExpirySkew = d
		}
	}
}

// WithCallbackScheme provides an optional URL scheme the external app uses
// to return to the host application, for: Config, ParseCallbackURL,
// IsCallbackURL.  A Config requires it when the app id contains characters
// a URL scheme can't (such as "_").
func WithCallbackScheme(scheme string) Option {
	return func(o interface{}) {
		switch v := o.(type) {
		case *configOptions:
			v.withCallbackScheme = scheme
		case *parseOptions:
			v.withCallbackScheme = scheme
		}
	}
}

// WithCallbackHost provides an optional URL host for callbacks, for: Config,
// ParseCallbackURL, IsCallbackURL.  An empty host on a parse accepts any host.
func WithCallbackHost(host string) Option {
	return func(o interface{}) {
		switch v := o.(type) {
		case *configOptions:
			v.withCallbackHost = host
		case *parseOptions:
			v.withCallbackHost = host
		}
	}
}

// WithScope provides an optional authorization scope for the Config.
func WithScope(scope string) Option {
	return func(o interface{}) {
		if v, ok := o.(*configOptions); ok {
			v.withScope = scope
		}
	}
}

// WithUniversalLink provides an optional universal link the provider may use
// to return to the host application, for the Config.
func WithUniversalLink(link string) Option {
	return func(o interface{}) {
		if v, ok := o.(*configOptions); ok {
			v.withUniversalLink = link
		}
	}
}

// WithExpiry provides an optional window in which a pending session must be
// resolved, for the Config.
func WithExpiry(d time.Duration) Option {
	return func(o interface{}) {
		if v, ok := o.(*configOptions); ok {
			v.withExpiry = d
		}
	}
}

// WithSupersede controls whether a BeginAuth while a session is pending
// cancels the pending session (true) or fails with ErrAlreadyPending (false,
// the default), for the Config.
func WithSupersede(supersede bool) Option {
	return func(o interface{}) {
		if v, ok := o.(*configOptions); ok {
			v.withSupersede = supersede
		}
	}
}

// WithLogger provides an optional logger, for the Config.
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if v, ok := o.(*configOptions); ok {
			v.withLogger = l
		}
	}
}
