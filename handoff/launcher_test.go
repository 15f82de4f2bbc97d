// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package handoff

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthRequest_URL(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	req := AuthRequest{AppID: "wx1234", Scope: "snsapi_userinfo", State: "st_N1"}
	got := req.URL()
	assert.Equal("weixin://app/wx1234/auth/?scope=snsapi_userinfo&state=st_N1", got)

	parsed, err := ParseAuthRequest(got)
	require.NoError(err)
	assert.Equal(req, *parsed)

	req.UniversalLink = "https://example.com/app/"
	parsed, err = ParseAuthRequest(req.URL())
	require.NoError(err)
	assert.Equal(req, *parsed)
}

func TestParseAuthRequest(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  string
	}{
		{name: "wrong-scheme", raw: "https://app/wx1234/auth/?state=1"},
		{name: "wrong-host", raw: "weixin://pay/wx1234/auth/?state=1"},
		{name: "wrong-path", raw: "weixin://app/wx1234/share/?state=1"},
		{name: "missing-app-id", raw: "weixin://app//auth/?state=1"},
		{name: "unparsable", raw: "weixin://app/\x7f"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAuthRequest(tt.raw)
			assert.ErrorIs(t, err, ErrInvalidParameter)
		})
	}
}

// TestCallbackURL_roundTrip verifies the nonce an external app receives in
// the request URL comes back unchanged through the callback URL.
func TestCallbackURL_roundTrip(t *testing.T) {
	t.Parallel()
	for _, state := range []string{"N1", "st_AbC123", "with space&amp=1", "ü/?#"} {
		assert, require := assert.New(t), require.New(t)
		req, err := ParseAuthRequest(AuthRequest{AppID: "wx1234", Scope: DefaultScope, State: state}.URL())
		require.NoError(err)

		raw := CallbackURL("wx1234login", "callback", "ABC", req.State)
		got, err := ParseCallbackURL(raw, WithCallbackScheme("wx1234login"))
		require.NoError(err)
		assert.Equal(state, got.State)
		assert.Equal("ABC", got.Code)
		assert.Equal(ResultSuccess, got.Kind)
	}
}

func TestOpenerLauncher_Launch(t *testing.T) {
	t.Parallel()
	req := AuthRequest{AppID: "wx1234", Scope: DefaultScope, State: "st_N1"}
	boom := errors.New("boom")
	tests := []struct {
		name      string
		openErr   error
		want      bool
		wantIsErr error
	}{
		{name: "installed", want: true},
		{name: "not-installed", openErr: fmt.Errorf("no handler: %w", ErrLauncherUnavailable), want: false},
		{name: "other-error", openErr: boom, want: false, wantIsErr: boom},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			var opened string
			l := NewOpenerLauncher(func(_ context.Context, u string) error {
				opened = u
				return tt.openErr
			})
			got, err := l.Launch(context.Background(), req)
			if tt.wantIsErr != nil {
				require.Error(err)
				assert.ErrorIs(err, tt.wantIsErr)
			} else {
				require.NoError(err)
			}
			assert.Equal(tt.want, got)
			assert.Equal(req.URL(), opened)
		})
	}
	t.Run("nil-opener", func(t *testing.T) {
		_, err := (&OpenerLauncher{}).Launch(context.Background(), req)
		assert.ErrorIs(t, err, ErrNilParameter)
	})
}

func TestBrowserLauncher_Launch(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	var opened string
	l := &BrowserLauncher{
		AuthURL:     "https://open.example.com/connect/qrconnect",
		RedirectURL: "http://localhost:8080/callback",
		Opener: func(_ context.Context, u string) error {
			opened = u
			return nil
		},
	}
	req := AuthRequest{AppID: "wx1234", Scope: "snsapi_login,snsapi_userinfo", State: "st_N1"}
	ok, err := l.Launch(context.Background(), req)
	require.NoError(err)
	assert.True(ok)

	u, err := url.Parse(opened)
	require.NoError(err)
	assert.Equal("open.example.com", u.Host)
	q := u.Query()
	assert.Equal("wx1234", q.Get("client_id"))
	assert.Equal("code", q.Get("response_type"))
	assert.Equal("st_N1", q.Get("state"))
	assert.Equal("snsapi_login snsapi_userinfo", q.Get("scope"))
	assert.Equal("http://localhost:8080/callback", q.Get("redirect_uri"))

	_, err = (&BrowserLauncher{}).Launch(context.Background(), req)
	assert.ErrorIs(err, ErrInvalidParameter)
}

func TestLauncherFunc(t *testing.T) {
	t.Parallel()
	var l Launcher = LauncherFunc(func(_ context.Context, req AuthRequest) (bool, error) {
		return req.AppID == "wx1234", nil
	})
	ok, err := l.Launch(context.Background(), AuthRequest{AppID: "wx1234"})
	require.NoError(t, err)
	assert.True(t, ok)
}

func Test_openCommand(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	name, args := openCommand("darwin", "weixin://app/x/auth/")
	assert.Equal("open", name)
	assert.Equal([]string{"weixin://app/x/auth/"}, args)
	name, args = openCommand("windows", "weixin://app/x/auth/")
	assert.Equal("rundll32", name)
	assert.Equal([]string{"url.dll,FileProtocolHandler", "weixin://app/x/auth/"}, args)
	name, _ = openCommand("linux", "weixin://app/x/auth/")
	assert.Equal("xdg-open", name)
}

func TestOpenerLauncher_Installed(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	var looked []string
	l := &OpenerLauncher{
		Opener: func(context.Context, string) error { return nil },
		Lookup: func(_ context.Context, scheme string) (bool, error) {
			looked = append(looked, scheme)
			return false, nil
		},
	}
	got, err := l.Installed(context.Background())
	require.NoError(err)
	assert.False(got)
	assert.Equal([]string{"weixin"}, looked)

	l.Lookup = func(context.Context, string) (bool, error) {
		return false, fmt.Errorf("no lookup: %w", ErrProbeUnsupported)
	}
	_, err = l.Installed(context.Background())
	assert.ErrorIs(err, ErrProbeUnsupported)
}

func TestBrowserLauncher_Installed(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	l := &BrowserLauncher{
		AuthURL: "https://open.example.com/connect/qrconnect",
		Lookup: func(_ context.Context, scheme string) (bool, error) {
			return scheme == "https", nil
		},
	}
	got, err := l.Installed(context.Background())
	require.NoError(err)
	assert.True(got)

	_, err = (&BrowserLauncher{}).Installed(context.Background())
	assert.ErrorIs(err, ErrInvalidParameter)
}

func Test_lookupCommand(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	name, args, ok := lookupCommand("linux", "weixin")
	assert.True(ok)
	assert.Equal("xdg-mime", name)
	assert.Equal([]string{"query", "default", "x-scheme-handler/weixin"}, args)
	name, args, ok = lookupCommand("windows", "weixin")
	assert.True(ok)
	assert.Equal("reg", name)
	assert.Equal(`HKEY_CLASSES_ROOT\weixin`, args[1])
	_, _, ok = lookupCommand("darwin", "weixin")
	assert.False(ok)
}

func TestOSHandlerLookup(t *testing.T) {
	t.Parallel()
	_, err := OSHandlerLookup(context.Background(), "not a scheme")
	assert.ErrorIs(t, err, ErrInvalidParameter)
}
