// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package handoff

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/language"
)

// ResultKind classifies a provider callback.
type ResultKind int

const (
	ResultUnknown ResultKind = iota
	ResultSuccess
	ResultUserCancelled
	ResultProviderError
)

func (k ResultKind) String() string {
	switch k {
	case ResultSuccess:
		return "success"
	case ResultUserCancelled:
		return "user_cancelled"
	case ResultProviderError:
		return "provider_error"
	default:
		return "unknown"
	}
}

// Provider response codes carried in the errCode callback parameter.
const (
	ErrCodeOK          = 0
	ErrCodeCommon      = -1
	ErrCodeUserCancel  = -2
	ErrCodeSentFailed  = -3
	ErrCodeAuthDenied  = -4
	ErrCodeUnsupported = -5
)

var errCodeDetail = map[int]string{
	ErrCodeCommon:      "common error",
	ErrCodeUserCancel:  "user cancelled",
	ErrCodeSentFailed:  "request could not be sent",
	ErrCodeAuthDenied:  "authorization denied",
	ErrCodeUnsupported: "unsupported by the installed app",
}

// oauth2 error value used by providers when the user declines.
const oauthAccessDenied = "access_denied"

// CallbackResult is the decoded form of a callback URL delivered by the OS.
type CallbackResult struct {
	Kind ResultKind

	// Code is the authorization code.  Only set for ResultSuccess.
	Code string

	// State is the nonce echoed back by the external app.
	State string

	// ErrorDetail is a human readable diagnostic.  Only set for
	// ResultProviderError (and, informationally, ResultUserCancelled).
	ErrorDetail string

	// ErrCode is the numeric provider response code, when one was sent.
	ErrCode int

	// Lang is the user's language as reported by the provider, or
	// language.Und.
	Lang language.Tag

	// Country is the user's country as reported by the provider.
	Country string

	// OpenID is the user's provider account id, when the provider returns
	// it with the response.
	OpenID string

	// Transaction echoes the provider transaction of the request.
	Transaction string

	// URL is the provider's response url parameter.
	URL string
}

// IsCallbackURL reports whether raw is addressed to the callback scheme and
// host.  It doesn't validate the parameters.
//
// Supported options: WithCallbackScheme, WithCallbackHost
func IsCallbackURL(raw string, opt ...Option) bool {
	opts := getParseOpts(opt...)
	_, err := parseAddressed(raw, opts)
	return err == nil
}

// ParseCallbackURL decodes a callback URL.  It returns an error wrapping
// ErrNotMine when the URL isn't addressed to the callback scheme/host, and an
// error wrapping ErrMalformedCallback when it is but its parameters can't be
// classified.
//
// Both WeChat style (errCode, errStr, code, state, lang, country, openId,
// transaction, url) and OAuth2 style (error, error_description, code, state) parameters are recognized.
// Parameters are read from the query, falling back to the fragment.
//
// Supported options: WithCallbackScheme, WithCallbackHost
func ParseCallbackURL(raw string, opt ...Option) (*CallbackResult, error) {
	const op = "handoff.ParseCallbackURL"
	opts := getParseOpts(opt...)
	u, err := parseAddressed(raw, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	params := u.Query()
	if u.Fragment != "" {
		if frag, err := url.ParseQuery(u.Fragment); err == nil {
			for k, v := range frag {
				if _, ok := params[k]; !ok {
					params[k] = v
				}
			}
		}
	}

	r := &CallbackResult{
		State:       params.Get("state"),
		Lang:        language.Und,
		Country:     params.Get("country"),
		OpenID:      firstOf(params, "openId", "openid"),
		Transaction: params.Get("transaction"),
		URL:         params.Get("url"),
	}
	if r.State == "" {
		return nil, fmt.Errorf("%s: missing state: %w", op, ErrMalformedCallback)
	}
	if lang := params.Get("lang"); lang != "" {
		if tag, err := language.Parse(strings.ReplaceAll(lang, "_", "-")); err == nil {
			r.Lang = tag
		}
	}

	code := params.Get("code")
	rawErrCode := firstOf(params, "errCode", "errcode")
	oauthErr := params.Get("error")
	switch {
	case rawErrCode != "":
		n, err := strconv.Atoi(rawErrCode)
		if err != nil {
			return nil, fmt.Errorf("%s: errCode %q is not an integer: %w", op, rawErrCode, ErrMalformedCallback)
		}
		r.ErrCode = n
		detail := firstOf(params, "errStr", "errstr", "errmsg")
		switch n {
		case ErrCodeOK:
			if code == "" {
				return nil, fmt.Errorf("%s: missing code: %w", op, ErrMalformedCallback)
			}
			r.Kind, r.Code = ResultSuccess, code
		case ErrCodeUserCancel:
			r.Kind, r.ErrorDetail = ResultUserCancelled, detailOr(detail, errCodeDetail[n])
		default:
			r.Kind, r.ErrorDetail = ResultProviderError, detailOr(detail, errCodeDetail[n], fmt.Sprintf("provider error %d", n))
		}
	case oauthErr != "":
		detail := detailOr(params.Get("error_description"), oauthErr)
		if oauthErr == oauthAccessDenied {
			r.Kind, r.ErrorDetail = ResultUserCancelled, detail
			break
		}
		r.Kind, r.ErrorDetail = ResultProviderError, detail
	case code != "":
		r.Kind, r.Code = ResultSuccess, code
	default:
		return nil, fmt.Errorf("%s: neither code nor error present: %w", op, ErrMalformedCallback)
	}
	return r, nil
}

// parseAddressed parses raw and verifies its scheme and host.
func parseAddressed(raw string, opts parseOptions) (*url.URL, error) {
	if raw == "" {
		return nil, fmt.Errorf("empty url: %w", ErrNotMine)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", err, ErrNotMine)
	}
	if opts.withCallbackScheme == "" || !strings.EqualFold(u.Scheme, opts.withCallbackScheme) {
		return nil, fmt.Errorf("scheme %q: %w", u.Scheme, ErrNotMine)
	}
	if opts.withCallbackHost != "" && !strings.EqualFold(u.Host, opts.withCallbackHost) {
		return nil, fmt.Errorf("host %q: %w", u.Host, ErrNotMine)
	}
	return u, nil
}

func firstOf(v url.Values, keys ...string) string {
	for _, k := range keys {
		if s := v.Get(k); s != "" {
			return s
		}
	}
	return ""
}

func detailOr(s ...string) string {
	for _, d := range s {
		if d != "" {
			return d
		}
	}
	return ""
}

// parseOptions is the set of available options for ParseCallbackURL
type parseOptions struct {
	withCallbackScheme string
	withCallbackHost   string
}

func parseDefaults() parseOptions {
	return parseOptions{
		withCallbackHost: DefaultCallbackHost,
	}
}

func getParseOpts(opt ...Option) parseOptions {
	opts := parseDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}
