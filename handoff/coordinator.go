// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package handoff

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Coordinator owns the single authentication Session of a host application.
// It starts sessions (BeginAuth), correlates OS delivered callback URLs with
// them (HandleOpenURL, ResolveCallback) and expires them.  Every session
// ends with exactly one Outcome, delivered to the Notifier and to the
// channel BeginAuth returned.
//
// A Coordinator is safe for concurrent use.
type Coordinator struct {
	config   *Config
	launcher Launcher
	notifier Notifier
	logger   hclog.Logger

	mu      sync.Mutex
	session Session
	current *attempt
	closed  bool
}

// attempt carries what a pending session needs beyond its Session record.
type attempt struct {
	timer *time.Timer
	done  chan Outcome
	once  sync.Once
}

// NewCoordinator creates a Coordinator for the configured app.  A nil
// notifier is allowed when callers only consume the channels returned by
// BeginAuth.
func NewCoordinator(c *Config, l Launcher, n Notifier) (*Coordinator, error) {
	const op = "handoff.NewCoordinator"
	if c == nil {
		return nil, fmt.Errorf("%s: config is nil: %w", op, ErrNilParameter)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if l == nil {
		return nil, fmt.Errorf("%s: launcher is nil: %w", op, ErrNilParameter)
	}
	if n == nil {
		n = NotifierFunc(func(Outcome) {})
	}
	return &Coordinator{
		config:   c,
		launcher: l,
		notifier: n,
		logger:   c.Logger.Named("handoff"),
		session:  Session{AppID: c.AppID, Status: StatusIdle},
	}, nil
}

// Session returns a snapshot of the current session.
func (c *Coordinator) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// BeginAuth starts a session for appID, which must be the configured app id,
// and launches the external app.  It returns once the OS has accepted (or
// refused) the launch; the Outcome arrives later on the returned channel and
// via the Notifier.
//
// It fails with ErrAlreadyPending if a session is pending and the Config
// doesn't allow superseding it; the launcher isn't invoked in that case.  It
// fails with ErrLauncherUnavailable if the external app can't be opened; the
// session is cancelled and the Notifier receives an
// OutcomeLauncherUnavailable before BeginAuth returns.  A launch failure
// reported after the session already finished (for instance the external
// app called back before the OS opener exited) is ignored, and the returned
// channel carries that session's Outcome.
func (c *Coordinator) BeginAuth(ctx context.Context, appID string) (<-chan Outcome, error) {
	const op = "Coordinator.BeginAuth"
	switch {
	case appID == "":
		return nil, fmt.Errorf("%s: app id is empty: %w", op, ErrInvalidParameter)
	case appID != c.config.AppID:
		return nil, fmt.Errorf("%s: app id %q doesn't match configured app id: %w", op, appID, ErrInvalidParameter)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	state, err := NewState()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, fmt.Errorf("%s: %w", op, ErrClosed)
	}
	var superseded *attempt
	var supersededOutcome Outcome
	if c.session.IsPending() {
		if !c.config.Supersede {
			pendingState := c.session.State
			c.mu.Unlock()
			c.logger.Debug("rejecting auth request", "op", op, "pending_state", pendingState)
			return nil, fmt.Errorf("%s: %w", op, ErrAlreadyPending)
		}
		superseded, supersededOutcome = c.finishLocked(StatusCancelled, Outcome{
			Kind:        OutcomeCancelled,
			ErrorDetail: "superseded by a new authentication request",
		})
	}

	now := c.config.Now()
	c.session = Session{
		AppID:      c.config.AppID,
		State:      state,
		IssuedAt:   now,
		Expiration: now.Add(c.config.Expiry),
		Status:     StatusPending,
		LastStatus: c.session.LastStatus,
	}
	a := &attempt{done: make(chan Outcome, 1)}
	a.timer = time.AfterFunc(c.config.Expiry, func() { c.expire(state) })
	c.current = a
	c.mu.Unlock()

	if superseded != nil {
		c.deliver(superseded, supersededOutcome)
	}
	c.logger.Debug("launching external app", "op", op, "app_id", appID, "state", state)

	// the lock isn't held while the OS opens the app, so a callback that
	// arrives before Launch returns still finds the session pending.
	ok, launchErr := c.launcher.Launch(ctx, AuthRequest{
		AppID:         c.config.AppID,
		Scope:         c.config.Scope,
		State:         state,
		UniversalLink: c.config.UniversalLink,
	})
	if ok && launchErr == nil {
		return a.done, nil
	}

	detail := "external app is not installed"
	if launchErr != nil {
		detail = launchErr.Error()
	}
	c.mu.Lock()
	if c.current != a {
		// the attempt already finished (by a callback, Cancel or a
		// superseding BeginAuth), so a.done carries its outcome
		c.mu.Unlock()
		c.logger.Debug("launch failure ignored, session already finished", "op", op, "state", state, "detail", detail)
		return a.done, nil
	}
	failed, failedOutcome := c.finishLocked(StatusCancelled, Outcome{
		Kind:        OutcomeLauncherUnavailable,
		ErrorDetail: detail,
	})
	c.mu.Unlock()
	c.deliver(failed, failedOutcome)
	c.logger.Warn("unable to launch external app", "op", op, "app_id", appID, "detail", detail)
	if launchErr != nil {
		return nil, fmt.Errorf("%s: %s: %w", op, launchErr, ErrLauncherUnavailable)
	}
	return nil, fmt.Errorf("%s: %w", op, ErrLauncherUnavailable)
}

// IsAppInstalled reports whether the external app is present, without
// starting a session.  It fails with ErrProbeUnsupported when the Launcher
// isn't a Prober or can't tell on this platform.
func (c *Coordinator) IsAppInstalled(ctx context.Context) (bool, error) {
	const op = "Coordinator.IsAppInstalled"
	p, ok := c.launcher.(Prober)
	if !ok {
		return false, fmt.Errorf("%s: launcher can't probe for the app: %w", op, ErrProbeUnsupported)
	}
	installed, err := p.Installed(ctx)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	c.logger.Debug("probed external app", "op", op, "installed", installed)
	return installed, nil
}

// HandleOpenURL is the OS callback entry point.  It returns false when the
// URL isn't addressed to this coordinator, so the OS can offer it to other
// handlers.  Recognized URLs are consumed (true) even when they are dropped
// as stale, malformed or mismatched.
func (c *Coordinator) HandleOpenURL(rawURL string) bool {
	const op = "Coordinator.HandleOpenURL"
	if !IsCallbackURL(rawURL, c.parseOpts()...) {
		return false
	}
	if err := c.ResolveCallback(rawURL); err != nil {
		c.logger.Debug("callback dropped", "op", op, "error", err)
	}
	return true
}

// ResolveCallback resolves the pending session with a callback URL.
//
// It returns an error (and changes nothing) when the URL isn't ours
// (ErrNotMine), can't be decoded (ErrMalformedCallback), carries another
// session's state (ErrNonceMismatch) or when no session is pending
// (ErrNoPendingSession).  None of those reach the Notifier.  A second
// delivery of the same URL therefore is a no-op.
func (c *Coordinator) ResolveCallback(rawURL string) error {
	const op = "Coordinator.ResolveCallback"
	r, err := ParseCallbackURL(rawURL, c.parseOpts()...)
	if err != nil {
		if errors.Is(err, ErrMalformedCallback) {
			c.logger.Warn("malformed callback", "op", op, "error", err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	c.mu.Lock()
	if !c.session.IsPending() {
		c.mu.Unlock()
		c.logger.Debug("callback without pending session", "op", op, "state", r.State)
		return fmt.Errorf("%s: %w", op, ErrNoPendingSession)
	}
	if subtle.ConstantTimeCompare([]byte(r.State), []byte(c.session.State)) != 1 {
		c.mu.Unlock()
		c.logger.Warn("callback state mismatch", "op", op, "state", r.State)
		return fmt.Errorf("%s: %w", op, ErrNonceMismatch)
	}

	var a *attempt
	var o Outcome
	if c.session.IsExpired(WithNow(c.config.Now)) {
		// the timer is due but hasn't run yet
		a, o = c.finishLocked(StatusExpired, Outcome{Kind: OutcomeTimeout, ErrorDetail: expiredDetail})
	} else {
		outcome, status := outcomeFromResult(c.session, r)
		a, o = c.finishLocked(status, outcome)
	}
	c.mu.Unlock()

	c.deliver(a, o)
	return nil
}

// Cancel abandons the pending session, notifying its caller with an
// OutcomeCancelled.  It returns false when no session was pending.
func (c *Coordinator) Cancel() bool {
	c.mu.Lock()
	if !c.session.IsPending() {
		c.mu.Unlock()
		return false
	}
	a, o := c.finishLocked(StatusCancelled, Outcome{Kind: OutcomeCancelled, ErrorDetail: "cancelled by caller"})
	c.mu.Unlock()
	c.deliver(a, o)
	return true
}

// Close cancels any pending session and makes every later BeginAuth fail
// with ErrClosed.  Close is idempotent.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if !c.session.IsPending() {
		c.mu.Unlock()
		return
	}
	a, o := c.finishLocked(StatusCancelled, Outcome{Kind: OutcomeCancelled, ErrorDetail: "coordinator closed"})
	c.mu.Unlock()
	c.deliver(a, o)
}

const expiredDetail = "no callback received before the session expired"

// expire is run by a session's timer.  state pins the session the timer was
// armed for, so a late timer can't touch a newer session.
func (c *Coordinator) expire(state string) {
	const op = "Coordinator.expire"
	c.mu.Lock()
	if !c.session.IsPending() || c.session.State != state {
		c.mu.Unlock()
		return
	}
	a, o := c.finishLocked(StatusExpired, Outcome{Kind: OutcomeTimeout, ErrorDetail: expiredDetail})
	c.mu.Unlock()
	c.logger.Info("session expired", "op", op, "state", state)
	c.deliver(a, o)
}

// finishLocked moves the pending session to the terminal status, then resets
// it to Idle.  It returns the attempt and the completed Outcome to deliver
// once the lock is released.  c.mu must be held.
func (c *Coordinator) finishLocked(status Status, o Outcome) (*attempt, Outcome) {
	a := c.current
	if a != nil && a.timer != nil {
		a.timer.Stop()
	}
	o.AppID = c.session.AppID
	o.State = c.session.State
	c.logger.Info("session finished", "state", c.session.State, "status", status.String(), "outcome", o.Kind.String())
	c.session = Session{
		AppID:      c.config.AppID,
		Status:     StatusIdle,
		LastStatus: status,
	}
	c.current = nil
	return a, o
}

// deliver sends o to the Notifier, then to the attempt's channel, at most
// once.  The channel receives o even if the Notifier panics.
func (c *Coordinator) deliver(a *attempt, o Outcome) {
	if a == nil {
		return
	}
	a.once.Do(func() {
		defer func() {
			a.done <- o
			close(a.done)
		}()
		c.notifier.Notify(o)
	})
}

func (c *Coordinator) parseOpts() []Option {
	return []Option{
		WithCallbackScheme(c.config.CallbackScheme),
		WithCallbackHost(c.config.CallbackHost),
	}
}
