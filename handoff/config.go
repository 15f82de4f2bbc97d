// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package handoff

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
)

const (
	// DefaultScope is the authorization scope requested when none is given.
	DefaultScope = "snsapi_userinfo"

	// DefaultCallbackHost is the host of callback URLs when none is given.
	DefaultCallbackHost = "callback"

	// DefaultCallbackSchemeSuffix is appended to the app id to derive the
	// callback scheme when none is given (app id "wx1234" yields
	// "wx1234login").
	DefaultCallbackSchemeSuffix = "login"

	// DefaultExpiry is how long a session may stay pending.
	DefaultExpiry = 2 * time.Minute
)

// Config represents the configuration for a Coordinator.  The AppID is
// immutable for the lifetime of the Coordinator built from it.
type Config struct {
	// AppID is the opaque provider-issued identifier of the host application.
	AppID string

	// Scope is the authorization scope requested from the external app.
	Scope string

	// UniversalLink is an optional https link the provider may use to return
	// to the host application.
	UniversalLink string

	// CallbackScheme is the URL scheme the OS uses to deliver callbacks.
	CallbackScheme string

	// CallbackHost is the URL host of callbacks.  Empty accepts any host.
	CallbackHost string

	// Expiry is how long a session may stay pending before it expires.
	Expiry time.Duration

	// Supersede selects the policy for a BeginAuth while a session is
	// pending: cancel the pending one (true) or reject the new one (false).
	Supersede bool

	// Logger is used for diagnostics.  Never nil after NewConfig.
	Logger hclog.Logger

	// NowFunc is a time func that returns the current time.
	NowFunc func() time.Time
}

// NewConfig composes a new config for a Coordinator.  Without
// WithCallbackScheme the callback scheme is the lower cased app id followed
// by DefaultCallbackSchemeSuffix, so an app id which isn't a valid URL scheme
// prefix requires the option.
//
// Supported options:
//   - WithScope
//   - WithUniversalLink
//   - WithCallbackScheme
//   - WithCallbackHost
//   - WithExpiry
//   - WithSupersede
//   - WithLogger
//   - WithNow
func NewConfig(appID string, opt ...Option) (*Config, error) {
	const op = "handoff.NewConfig"
	opts := getConfigOpts(opt...)
	c := &Config{
		AppID:          appID,
		Scope:          opts.withScope,
		UniversalLink:  opts.withUniversalLink,
		CallbackScheme: opts.withCallbackScheme,
		CallbackHost:   opts.withCallbackHost,
		Expiry:         opts.withExpiry,
		Supersede:      opts.withSupersede,
		Logger:         opts.withLogger,
		NowFunc:        opts.withNowFunc,
	}
	if c.CallbackScheme == "" {
		c.CallbackScheme = strings.ToLower(appID) + DefaultCallbackSchemeSuffix
		if appID != "" && !validScheme(c.CallbackScheme) {
			return nil, fmt.Errorf("%s: app id %q doesn't yield a valid default callback scheme (%q), use WithCallbackScheme: %w", op, appID, c.CallbackScheme, ErrInvalidParameter)
		}
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid config: %w", op, err)
	}
	return c, nil
}

// Validate the Config.  Every problem found is reported, and each of them
// wraps ErrInvalidParameter or ErrNilParameter.
func (c *Config) Validate() error {
	const op = "Config.Validate"
	if c == nil {
		return fmt.Errorf("%s: config is nil: %w", op, ErrNilParameter)
	}
	var result *multierror.Error
	if c.AppID == "" {
		result = multierror.Append(result, fmt.Errorf("%s: app id is empty: %w", op, ErrInvalidParameter))
	} else if strings.ContainsAny(c.AppID, " \t\r\n/?#:") {
		result = multierror.Append(result, fmt.Errorf("%s: app id %q contains reserved characters: %w", op, c.AppID, ErrInvalidParameter))
	}
	if c.Scope == "" {
		result = multierror.Append(result, fmt.Errorf("%s: scope is empty: %w", op, ErrInvalidParameter))
	}
	if !validScheme(c.CallbackScheme) {
		result = multierror.Append(result, fmt.Errorf("%s: callback scheme %q is not a valid URL scheme: %w", op, c.CallbackScheme, ErrInvalidParameter))
	}
	if c.Expiry <= 0 {
		result = multierror.Append(result, fmt.Errorf("%s: expiry not greater than zero: %w", op, ErrInvalidParameter))
	}
	if c.UniversalLink != "" {
		u, err := url.Parse(c.UniversalLink)
		switch {
		case err != nil:
			result = multierror.Append(result, fmt.Errorf("%s: universal link: %s: %w", op, err, ErrInvalidParameter))
		case u.Scheme != "https" || u.Host == "":
			result = multierror.Append(result, fmt.Errorf("%s: universal link %q is not an absolute https URL: %w", op, c.UniversalLink, ErrInvalidParameter))
		}
	}
	if c.Logger == nil {
		result = multierror.Append(result, fmt.Errorf("%s: logger is nil: %w", op, ErrNilParameter))
	}
	return result.ErrorOrNil()
}

// Now will return the current time which can be overridden by the NowFunc
func (c *Config) Now() time.Time {
	if c.NowFunc != nil {
		return c.NowFunc()
	}
	return time.Now()
}

// validScheme reports whether s is an RFC 3986 scheme:
// ALPHA *( ALPHA / DIGIT / "+" / "-" / "." )
func validScheme(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z':
		case i > 0 && ('0' <= r && r <= '9' || r == '+' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}

// configOptions is the set of available options for Config functions
type configOptions struct {
	withScope          string
	withUniversalLink  string
	withCallbackScheme string
	withCallbackHost   string
	withExpiry         time.Duration
	withSupersede      bool
	withLogger         hclog.Logger
	withNowFunc        func() time.Time
}

// configDefaults is a handy way to get the defaults at runtime and during unit
// tests.
func configDefaults() configOptions {
	return configOptions{
		withScope:        DefaultScope,
		withCallbackHost: DefaultCallbackHost,
		withExpiry:       DefaultExpiry,
		withLogger:       hclog.NewNullLogger(),
	}
}

// getConfigOpts gets the config defaults and applies the opt overrides passed
// in
func getConfigOpts(opt ...Option) configOptions {
	opts := configDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}
