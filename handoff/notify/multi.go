// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/appsso/handoff"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
)

// Sender delivers an Outcome and reports whether it succeeded.  *Webhook is
// a Sender.
type Sender interface {
	Send(ctx context.Context, o handoff.Outcome) error
}

// SenderFunc adapts a func to a Sender.
type SenderFunc func(ctx context.Context, o handoff.Outcome) error

// Send implements the Sender interface.
func (f SenderFunc) Send(ctx context.Context, o handoff.Outcome) error { return f(ctx, o) }

// FromNotifier adapts a handoff.Notifier, which can't fail, to a Sender.
func FromNotifier(n handoff.Notifier) Sender {
	return SenderFunc(func(_ context.Context, o handoff.Outcome) error {
		n.Notify(o)
		return nil
	})
}

// Multi fans an Outcome out to several Senders, in order.  Every Sender is
// tried even when an earlier one fails.
type Multi struct {
	senders []Sender
	timeout time.Duration
	logger  hclog.Logger
}

// ensure that Multi implements the handoff.Notifier interface
var _ handoff.Notifier = (*Multi)(nil)

// NewMulti creates a Multi.
//
// Supported options: WithLogger, WithTimeout
func NewMulti(senders []Sender, opt ...Option) (*Multi, error) {
	const op = "notify.NewMulti"
	if len(senders) == 0 {
		return nil, fmt.Errorf("%s: no senders: %w", op, handoff.ErrInvalidParameter)
	}
	for i, s := range senders {
		if s == nil {
			return nil, fmt.Errorf("%s: sender %d is nil: %w", op, i, handoff.ErrNilParameter)
		}
	}
	opts := getMultiOpts(opt...)
	return &Multi{
		senders: append([]Sender(nil), senders...),
		timeout: opts.withTimeout,
		logger:  opts.withLogger,
	}, nil
}

// Send delivers o to every Sender and returns all their failures combined.
func (m *Multi) Send(ctx context.Context, o handoff.Outcome) error {
	var result *multierror.Error
	for i, s := range m.senders {
		if err := s.Send(ctx, o); err != nil {
			result = multierror.Append(result, fmt.Errorf("sender %d: %w", i, err))
		}
	}
	return result.ErrorOrNil()
}

// Notify implements the handoff.Notifier interface.  Failures are logged.
func (m *Multi) Notify(o handoff.Outcome) {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	if err := m.Send(ctx, o); err != nil {
		m.logger.Error("notification failed", "state", o.State, "outcome", o.Kind.String(), "error", err)
	}
}

// multiOptions is the set of available options for NewMulti
type multiOptions struct {
	withLogger  hclog.Logger
	withTimeout time.Duration
}

func multiDefaults() multiOptions {
	return multiOptions{
		withLogger:  hclog.NewNullLogger(),
		withTimeout: DefaultTimeout,
	}
}

func getMultiOpts(opt ...Option) multiOptions {
	opts := multiDefaults()
	ApplyOpts(&opts, opt...)
	if opts.withLogger == nil {
		opts.withLogger = hclog.NewNullLogger()
	}
	return opts
}
