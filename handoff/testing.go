// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package handoff

import (
	"context"
	"sync"
)

// TestLauncher is a Launcher for tests.  It records every request and
// reports the external app as installed or not.  OnLaunch can be used to
// simulate the external app returning a callback.
type TestLauncher struct {
	mu        sync.Mutex
	installed bool
	err       error
	requests  []AuthRequest
	onLaunch  func(AuthRequest)
}

// ensure that TestLauncher implements the Launcher and Prober interfaces
var (
	_ Launcher = (*TestLauncher)(nil)
	_ Prober   = (*TestLauncher)(nil)
)

// NewTestLauncher creates a TestLauncher.
func NewTestLauncher(installed bool) *TestLauncher {
	return &TestLauncher{installed: installed}
}

// SetInstalled changes whether the external app is reported as installed.
func (l *TestLauncher) SetInstalled(installed bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.installed = installed
}

// SetError makes every later Launch fail with err.
func (l *TestLauncher) SetError(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = err
}

// OnLaunch registers fn to be called, synchronously, for every successful
// launch.  The request passed has been round-tripped through
// AuthRequest.URL and ParseAuthRequest, just like a real external app would
// see it.
func (l *TestLauncher) OnLaunch(fn func(AuthRequest)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onLaunch = fn
}

// Launch implements the Launcher interface.
func (l *TestLauncher) Launch(_ context.Context, req AuthRequest) (bool, error) {
	l.mu.Lock()
	l.requests = append(l.requests, req)
	installed, err, fn := l.installed, l.err, l.onLaunch
	l.mu.Unlock()
	if err != nil {
		return false, err
	}
	if !installed {
		return false, nil
	}
	if fn != nil {
		received, err := ParseAuthRequest(req.URL())
		if err != nil {
			return false, err
		}
		fn(*received)
	}
	return true, nil
}

// Installed implements the Prober interface.  It fails with the error set by
// SetError.
func (l *TestLauncher) Installed(_ context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	return l.installed, nil
}

// Requests returns a copy of every request Launch received.
func (l *TestLauncher) Requests() []AuthRequest {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]AuthRequest(nil), l.requests...)
}

// LastRequest returns the most recent request Launch received.
func (l *TestLauncher) LastRequest() (AuthRequest, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.requests) == 0 {
		return AuthRequest{}, false
	}
	return l.requests[len(l.requests)-1], true
}

// TestNotifier is a Notifier for tests which records every Outcome.
type TestNotifier struct {
	mu       sync.Mutex
	outcomes []Outcome
	ch       chan Outcome
}

// ensure that TestNotifier implements the Notifier interface
var _ Notifier = (*TestNotifier)(nil)

// NewTestNotifier creates a TestNotifier.
func NewTestNotifier() *TestNotifier {
	return &TestNotifier{ch: make(chan Outcome, 64)}
}

// Notify implements the Notifier interface.
func (n *TestNotifier) Notify(o Outcome) {
	n.mu.Lock()
	n.outcomes = append(n.outcomes, o)
	n.mu.Unlock()
	select {
	case n.ch <- o:
	default:
	}
}

// Outcomes returns a copy of every Outcome received.
func (n *TestNotifier) Outcomes() []Outcome {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Outcome(nil), n.outcomes...)
}

// Count returns the number of Outcomes received.
func (n *TestNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.outcomes)
}

// C returns a channel which receives Outcomes as they are notified.
func (n *TestNotifier) C() <-chan Outcome { return n.ch }
