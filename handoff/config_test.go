// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package handoff

import (
	"errors"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()
	testNow := func() time.Time {
		return time.Now().Add(-1 * time.Minute)
	}
	testLogger := hclog.New(&hclog.LoggerOptions{Name: "test", Level: hclog.Error})

	tests := []struct {
		name        string
		appID       string
		opts        []Option
		want        *Config
		wantNowFunc func() time.Time
		wantErr     bool
		wantIsErr   error
		wantErrCnt  int
		wantErrMsg  string
	}{
		{
			name:  "valid-defaults",
			appID: "wx1234",
			want: &Config{
				AppID:          "wx1234",
				Scope:          DefaultScope,
				CallbackScheme: "wx1234login",
				CallbackHost:   DefaultCallbackHost,
				Expiry:         DefaultExpiry,
			},
		},
		{
			name:  "valid-all-options",
			appID: "wx1234",
			opts: []Option{
				WithScope("snsapi_base"),
				WithUniversalLink("https://example.com/app/"),
				WithCallbackScheme("wx1234"),
				WithCallbackHost("oauth"),
				WithExpiry(30 * time.Second),
				WithSupersede(true),
				WithLogger(testLogger),
				WithNow(testNow),
			},
			want: &Config{
				AppID:          "wx1234",
				Scope:          "snsapi_base",
				UniversalLink:  "https://example.com/app/",
				CallbackScheme: "wx1234",
				CallbackHost:   "oauth",
				Expiry:         30 * time.Second,
				Supersede:      true,
			},
			wantNowFunc: testNow,
		},
		{
			name:      "empty-app-id",
			appID:     "",
			opts:      []Option{WithCallbackScheme("app")},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name:      "app-id-reserved-chars",
			appID:     "wx/12",
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name:       "app-id-not-scheme-safe",
			appID:      "wx_1234",
			wantErr:    true,
			wantIsErr:  ErrInvalidParameter,
			wantErrMsg: `app id "wx_1234"`,
		},
		{
			name:  "app-id-not-scheme-safe-with-scheme",
			appID: "wx_1234",
			opts:  []Option{WithCallbackScheme("wx1234login")},
			want: &Config{
				AppID:          "wx_1234",
				Scope:          DefaultScope,
				CallbackScheme: "wx1234login",
				CallbackHost:   DefaultCallbackHost,
				Expiry:         DefaultExpiry,
			},
		},
		{
			name:      "bad-scheme",
			appID:     "wx1234",
			opts:      []Option{WithCallbackScheme("1wx")},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name:      "http-universal-link",
			appID:     "wx1234",
			opts:      []Option{WithUniversalLink("http://example.com/app/")},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name:      "nil-logger",
			appID:     "wx1234",
			opts:      []Option{WithLogger(nil)},
			wantErr:   true,
			wantIsErr: ErrNilParameter,
		},
		{
			name:       "every-problem-reported",
			appID:      "wx1234",
			opts:       []Option{WithScope(""), WithExpiry(-1), WithCallbackScheme("-")},
			wantErr:    true,
			wantIsErr:  ErrInvalidParameter,
			wantErrCnt: 3,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			got, err := NewConfig(tt.appID, tt.opts...)
			if tt.wantErr {
				require.Error(err)
				assert.Truef(errors.Is(err, tt.wantIsErr), "wanted \"%s\" but got \"%s\"", tt.wantIsErr, err)
				if tt.wantErrCnt > 0 {
					var merr *multierror.Error
					require.True(errors.As(err, &merr))
					assert.Len(merr.Errors, tt.wantErrCnt)
				}
				if tt.wantErrMsg != "" {
					assert.Contains(err.Error(), tt.wantErrMsg)
				}
				return
			}
			require.NoError(err)
			assert.Equal(tt.want.AppID, got.AppID)
			assert.Equal(tt.want.Scope, got.Scope)
			assert.Equal(tt.want.UniversalLink, got.UniversalLink)
			assert.Equal(tt.want.CallbackScheme, got.CallbackScheme)
			assert.Equal(tt.want.CallbackHost, got.CallbackHost)
			assert.Equal(tt.want.Expiry, got.Expiry)
			assert.Equal(tt.want.Supersede, got.Supersede)
			assert.NotNil(got.Logger)
			if tt.wantNowFunc != nil {
				assert.WithinDuration(tt.wantNowFunc(), got.Now(), time.Second)
			} else {
				assert.WithinDuration(time.Now(), got.Now(), time.Second)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	var c *Config
	assert.ErrorIs(c.Validate(), ErrNilParameter)
	assert.ErrorIs((&Config{}).Validate(), ErrInvalidParameter)
}

func Test_validScheme(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	for _, s := range []string{"wx1234", "wx1234login", "a+b-c.d", "A"} {
		assert.Truef(validScheme(s), "expected %q to be valid", s)
	}
	for _, s := range []string{"", "1wx", "wx 12", "wx:", "-"} {
		assert.Falsef(validScheme(s), "expected %q to be invalid", s)
	}
}
