// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package handoff

import (
	"errors"
)

var (
	ErrInvalidParameter    = errors.New("invalid parameter")
	ErrNilParameter        = errors.New("nil parameter")
	ErrIdGeneratorFailed   = errors.New("id generation failed")
	ErrAlreadyPending      = errors.New("authentication already pending")
	ErrLauncherUnavailable = errors.New("external app unavailable")
	ErrMalformedCallback   = errors.New("malformed callback")
	ErrNonceMismatch       = errors.New("callback state does not match pending session")
	ErrNotMine             = errors.New("url not handled by this coordinator")
	ErrNoPendingSession    = errors.New("no pending session")
	ErrUserCancelled       = errors.New("user cancelled authentication")
	ErrProviderError       = errors.New("provider error")
	ErrTimeout             = errors.New("authentication timed out")
	ErrClosed              = errors.New("coordinator closed")
	ErrProbeUnsupported    = errors.New("app presence can't be determined")
)
