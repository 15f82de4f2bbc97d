// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package handoff

import (
	"fmt"
	"time"

	"github.com/hashicorp/appsso/sdk/id"
)

// Status is the position of a Session in the authentication state machine.
type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusResolved
	StatusCancelled
	StatusExpired
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusResolved:
		return "resolved"
	case StatusCancelled:
		return "cancelled"
	case StatusExpired:
		return "expired"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// IsTerminal reports whether s ends a session.
func (s Status) IsTerminal() bool {
	return s == StatusResolved || s == StatusCancelled || s == StatusExpired
}

// Session represents the one authentication attempt a Coordinator can have
// outstanding.  State is the nonce handed to the external app and echoed back
// in its callback; it is what correlates the two halves of the flow.
//
// A Session is a value: the Coordinator owns the only live copy, and
// Coordinator.Session returns snapshots.
type Session struct {
	// AppID is the provider-issued identifier of the host application.
	AppID string

	// State is the per-request nonce.  Empty while Idle.
	State string

	// IssuedAt is when the session entered Pending.
	IssuedAt time.Time

	// Expiration is when a Pending session expires.
	Expiration time.Time

	// Status is the current status.
	Status Status

	// LastStatus is the terminal status of the previous session, or
	// StatusIdle if there hasn't been one.
	LastStatus Status
}

// statePrefix prefixes every generated state nonce.
const statePrefix = "st"

// NewState generates a new state nonce.
func NewState() (string, error) {
	const op = "handoff.NewState"
	s, err := id.New(statePrefix)
	if err != nil {
		return "", fmt.Errorf("%s: unable to generate state: %s: %w", op, err, ErrIdGeneratorFailed)
	}
	return s, nil
}

// IsPending reports whether the session is awaiting a callback.
func (s Session) IsPending() bool { return s.Status == StatusPending }

// DefaultSessionExpirySkew defines a default time skew when checking a
// Session's expiration.
const DefaultSessionExpirySkew = 0 * time.Second

// IsExpired returns true if a pending session has passed its expiration.
// Supports the WithExpirySkew and WithNow options; without them it uses
// DefaultSessionExpirySkew and time.Now.
func (s Session) IsExpired(opt ...Option) bool {
	if s.Status != StatusPending || s.Expiration.IsZero() {
		return false
	}
	opts := getSessionOpts(opt...)
	return !s.Expiration.After(opts.withNowFunc().Add(opts.withExpirySkew))
}

// sessionOptions is the set of available options for Session functions
type sessionOptions struct {
	withExpirySkew time.Duration
	withNowFunc    func() time.Time
}

// sessionDefaults is a handy way to get the defaults at runtime and during
// unit tests.
func sessionDefaults() sessionOptions {
	return sessionOptions{
		withExpirySkew: DefaultSessionExpirySkew,
		withNowFunc:    time.Now,
	}
}

// getSessionOpts gets the session defaults and applies the opt overrides
// passed in
func getSessionOpts(opt ...Option) sessionOptions {
	opts := sessionDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}
