// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package handoff

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

// AuthRequest is what the Coordinator asks a Launcher to hand to the
// external app.
type AuthRequest struct {
	AppID         string
	Scope         string
	State         string
	UniversalLink string
}

const (
	requestScheme = "weixin"
	requestHost   = "app"
)

// URL builds the provider request URL:
//
//	weixin://app/<app id>/auth/?scope=<scope>&state=<state>
func (r AuthRequest) URL() string {
	q := url.Values{}
	q.Set("scope", r.Scope)
	q.Set("state", r.State)
	if r.UniversalLink != "" {
		q.Set("universal_link", r.UniversalLink)
	}
	u := url.URL{
		Scheme:   requestScheme,
		Host:     requestHost,
		Path:     "/" + r.AppID + "/auth/",
		RawQuery: q.Encode(),
	}
	return u.String()
}

// ParseAuthRequest is the inverse of AuthRequest.URL.  It is what an external
// app (or a simulator of one) does with the URL it was opened with.
func ParseAuthRequest(raw string) (*AuthRequest, error) {
	const op = "handoff.ParseAuthRequest"
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", op, err, ErrInvalidParameter)
	}
	if u.Scheme != requestScheme || u.Host != requestHost {
		return nil, fmt.Errorf("%s: unexpected scheme/host %s://%s: %w", op, u.Scheme, u.Host, ErrInvalidParameter)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 2 || parts[1] != "auth" || parts[0] == "" {
		return nil, fmt.Errorf("%s: unexpected path %q: %w", op, u.Path, ErrInvalidParameter)
	}
	q := u.Query()
	return &AuthRequest{
		AppID:         parts[0],
		Scope:         q.Get("scope"),
		State:         q.Get("state"),
		UniversalLink: q.Get("universal_link"),
	}, nil
}

// CallbackURL builds the URL an external app returns with after a successful
// authorization.  It is the counterpart of AuthRequest.URL and is what
// ParseCallbackURL decodes.
func CallbackURL(scheme, host, code, state string) string {
	q := url.Values{}
	q.Set("code", code)
	q.Set("state", state)
	u := url.URL{Scheme: scheme, Host: host, RawQuery: q.Encode()}
	return u.String()
}

// Launcher hands an AuthRequest to the OS so it can switch to the external
// app.  The returned bool only reports whether the app could be opened at
// all; it says nothing about the login itself, whose result arrives later as
// a callback URL.  Implementations must not wait on the external app.
type Launcher interface {
	Launch(ctx context.Context, req AuthRequest) (bool, error)
}

// LauncherFunc adapts a func to a Launcher.
type LauncherFunc func(ctx context.Context, req AuthRequest) (bool, error)

// Launch implements the Launcher interface.
func (f LauncherFunc) Launch(ctx context.Context, req AuthRequest) (bool, error) {
	return f(ctx, req)
}

// Prober is implemented by Launchers which can tell whether the external app
// is present without launching it, e.g. to disable a login button up front.
type Prober interface {
	Installed(ctx context.Context) (bool, error)
}

// HandlerLookup reports whether the OS has a handler registered for a URL
// scheme.  It returns an error wrapping ErrProbeUnsupported when that can't
// be determined on the platform.
type HandlerLookup func(ctx context.Context, scheme string) (bool, error)

// Opener asks the OS to open a URL.  It returns an error wrapping
// ErrLauncherUnavailable when nothing is registered to handle the URL.
type Opener func(ctx context.Context, url string) error

// OpenerLauncher launches the external app by opening AuthRequest.URL().
type OpenerLauncher struct {
	Opener Opener

	// Lookup is used by Installed.  Nil selects OSHandlerLookup.
	Lookup HandlerLookup
}

// ensure that OpenerLauncher implements the Launcher and Prober interfaces
var (
	_ Launcher = (*OpenerLauncher)(nil)
	_ Prober   = (*OpenerLauncher)(nil)
)

// NewOpenerLauncher creates an OpenerLauncher.  A nil opener selects OSOpener.
func NewOpenerLauncher(o Opener) *OpenerLauncher {
	if o == nil {
		o = OSOpener
	}
	return &OpenerLauncher{Opener: o}
}

// Launch implements the Launcher interface.
func (l *OpenerLauncher) Launch(ctx context.Context, req AuthRequest) (bool, error) {
	const op = "OpenerLauncher.Launch"
	if l.Opener == nil {
		return false, fmt.Errorf("%s: opener is nil: %w", op, ErrNilParameter)
	}
	return open(ctx, op, l.Opener, req.URL())
}

// Installed implements the Prober interface by looking up the handler of
// the provider's request scheme.
func (l *OpenerLauncher) Installed(ctx context.Context) (bool, error) {
	const op = "OpenerLauncher.Installed"
	installed, err := lookup(ctx, l.Lookup, requestScheme)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return installed, nil
}

// BrowserLauncher launches a provider that authorizes through a web page
// instead of an installed app.  The authorization URL is the oauth2 auth
// code URL for the request, with AppID as the client id.
type BrowserLauncher struct {
	// AuthURL is the provider's authorization endpoint.
	AuthURL string

	// RedirectURL is where the provider sends the user afterwards.  It
	// must eventually reach the Coordinator's HandleOpenURL.
	RedirectURL string

	Opener Opener

	// Lookup is used by Installed.  Nil selects OSHandlerLookup.
	Lookup HandlerLookup
}

// ensure that BrowserLauncher implements the Launcher and Prober interfaces
var (
	_ Launcher = (*BrowserLauncher)(nil)
	_ Prober   = (*BrowserLauncher)(nil)
)

// AuthCodeURL returns the URL the browser is sent to for req.
func (l *BrowserLauncher) AuthCodeURL(req AuthRequest) string {
	c := &oauth2.Config{
		ClientID:    req.AppID,
		Endpoint:    oauth2.Endpoint{AuthURL: l.AuthURL},
		RedirectURL: l.RedirectURL,
		Scopes:      strings.FieldsFunc(req.Scope, func(r rune) bool { return r == ',' || r == ' ' }),
	}
	return c.AuthCodeURL(req.State)
}

// Launch implements the Launcher interface.
func (l *BrowserLauncher) Launch(ctx context.Context, req AuthRequest) (bool, error) {
	const op = "BrowserLauncher.Launch"
	if l.AuthURL == "" {
		return false, fmt.Errorf("%s: auth url is empty: %w", op, ErrInvalidParameter)
	}
	o := l.Opener
	if o == nil {
		o = OSOpener
	}
	return open(ctx, op, o, l.AuthCodeURL(req))
}

// Installed implements the Prober interface.  It reports whether a handler
// for the scheme of AuthURL (a browser) is registered.
func (l *BrowserLauncher) Installed(ctx context.Context) (bool, error) {
	const op = "BrowserLauncher.Installed"
	u, err := url.Parse(l.AuthURL)
	if err != nil || u.Scheme == "" {
		return false, fmt.Errorf("%s: auth url %q is not absolute: %w", op, l.AuthURL, ErrInvalidParameter)
	}
	installed, err := lookup(ctx, l.Lookup, u.Scheme)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return installed, nil
}

func lookup(ctx context.Context, fn HandlerLookup, scheme string) (bool, error) {
	if fn == nil {
		fn = OSHandlerLookup
	}
	return fn(ctx, scheme)
}

func open(ctx context.Context, op string, o Opener, u string) (bool, error) {
	switch err := o(ctx, u); {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrLauncherUnavailable):
		return false, nil
	default:
		return false, fmt.Errorf("%s: %w", op, err)
	}
}
