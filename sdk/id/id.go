// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package id

import (
	"errors"
	"fmt"

	"github.com/hashicorp/vault/sdk/helper/base62"
)

// DefaultLen is the number of random characters in an id (not counting an
// optional prefix).
const DefaultLen = 20

// ErrInvalidLength is returned when a non-positive length is requested.
var ErrInvalidLength = errors.New("invalid id length")

// New generates a base62 ID of DefaultLen characters with an optional prefix.
// The ID generated is suitable for a state nonce.
func New(optionalPrefix string) (string, error) {
	return NewWithLen(optionalPrefix, DefaultLen)
}

// NewWithLen generates a base62 ID with l random characters and an optional
// prefix separated by an underscore.
func NewWithLen(optionalPrefix string, l int) (string, error) {
	const op = "id.NewWithLen"
	if l <= 0 {
		return "", fmt.Errorf("%s: %d: %w", op, l, ErrInvalidLength)
	}
	id, err := base62.Random(l)
	if err != nil {
		return "", fmt.Errorf("%s: unable to generate id: %w", op, err)
	}
	switch {
	case optionalPrefix != "":
		return fmt.Sprintf("%s_%s", optionalPrefix, id), nil
	default:
		return id, nil
	}
}
