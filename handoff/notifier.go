// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package handoff

import (
	"fmt"

	"golang.org/x/text/language"
)

// OutcomeKind classifies how a session ended.
type OutcomeKind int

const (
	OutcomeUnknown OutcomeKind = iota
	OutcomeSuccess
	OutcomeCancelled
	OutcomeProviderError
	OutcomeTimeout
	OutcomeLauncherUnavailable
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeProviderError:
		return "provider_error"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeLauncherUnavailable:
		return "launcher_unavailable"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so outcomes serialize with
// their names.
func (k OutcomeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *OutcomeKind) UnmarshalText(b []byte) error {
	for c := OutcomeSuccess; c <= OutcomeLauncherUnavailable; c++ {
		if c.String() == string(b) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("handoff.OutcomeKind: unknown kind %q: %w", string(b), ErrInvalidParameter)
}

// Outcome is the single terminal notification a session produces.
type Outcome struct {
	Kind        OutcomeKind  `json:"kind"`
	AppID       string       `json:"app_id"`
	State       string       `json:"state"`
	Code        string       `json:"code,omitempty"`
	ErrorDetail string       `json:"error_detail,omitempty"`
	ErrCode     int          `json:"err_code,omitempty"`
	Lang        language.Tag `json:"lang"`
	Country     string       `json:"country,omitempty"`
	OpenID      string       `json:"open_id,omitempty"`
	Transaction string       `json:"transaction,omitempty"`
	URL         string       `json:"url,omitempty"`
}

// Err returns nil for a successful outcome, otherwise an error wrapping the
// sentinel that matches the outcome's kind.
func (o Outcome) Err() error {
	var sentinel error
	switch o.Kind {
	case OutcomeSuccess:
		return nil
	case OutcomeCancelled:
		sentinel = ErrUserCancelled
	case OutcomeProviderError:
		sentinel = ErrProviderError
	case OutcomeTimeout:
		sentinel = ErrTimeout
	case OutcomeLauncherUnavailable:
		sentinel = ErrLauncherUnavailable
	default:
		sentinel = ErrInvalidParameter
	}
	if o.ErrorDetail == "" {
		return sentinel
	}
	return fmt.Errorf("%s: %w", o.ErrorDetail, sentinel)
}

// Notifier is the caller's sink for outcomes.  The Coordinator calls Notify
// at most once per session and never while holding its lock.
type Notifier interface {
	Notify(Outcome)
}

// NotifierFunc adapts a func to a Notifier.
type NotifierFunc func(Outcome)

// Notify implements the Notifier interface.
func (f NotifierFunc) Notify(o Outcome) { f(o) }

// outcomeFromResult translates a decoded callback into the Outcome for the
// session it resolves.
func outcomeFromResult(s Session, r *CallbackResult) (Outcome, Status) {
	o := Outcome{
		AppID:       s.AppID,
		State:       s.State,
		ErrCode:     r.ErrCode,
		Lang:        r.Lang,
		Country:     r.Country,
		OpenID:      r.OpenID,
		Transaction: r.Transaction,
		URL:         r.URL,
	}
	switch r.Kind {
	case ResultSuccess:
		o.Kind, o.Code = OutcomeSuccess, r.Code
		return o, StatusResolved
	case ResultUserCancelled:
		o.Kind, o.ErrorDetail = OutcomeCancelled, r.ErrorDetail
		return o, StatusCancelled
	default:
		o.Kind, o.ErrorDetail = OutcomeProviderError, r.ErrorDetail
		return o, StatusCancelled
	}
}
