// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package handoff

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// OSOpener opens u with the platform's URL handler ("open" on darwin,
// rundll32 on windows, xdg-open elsewhere).  A handler that refuses the URL,
// or a missing handler binary, is reported as ErrLauncherUnavailable.
func OSOpener(ctx context.Context, u string) error {
	const op = "handoff.OSOpener"
	name, args := openCommand(runtime.GOOS, u)
	cmd := exec.CommandContext(ctx, name, args...)
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.Is(err, exec.ErrNotFound), errors.As(err, &exitErr):
			return fmt.Errorf("%s: %s: %w", op, err, ErrLauncherUnavailable)
		default:
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil
}

func openCommand(goos, u string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{u}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", u}
	default:
		return "xdg-open", []string{u}
	}
}

// OSHandlerLookup reports whether the platform has a handler registered for
// scheme: xdg-mime on linux and the BSDs, the registry on windows.  Darwin
// ships no command for the lookup, so it reports ErrProbeUnsupported, as
// does a platform missing the lookup binary.
func OSHandlerLookup(ctx context.Context, scheme string) (bool, error) {
	const op = "handoff.OSHandlerLookup"
	if !validScheme(scheme) {
		return false, fmt.Errorf("%s: scheme %q: %w", op, scheme, ErrInvalidParameter)
	}
	name, args, ok := lookupCommand(runtime.GOOS, scheme)
	if !ok {
		return false, fmt.Errorf("%s: %s: %w", op, runtime.GOOS, ErrProbeUnsupported)
	}
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.Is(err, exec.ErrNotFound):
			return false, fmt.Errorf("%s: %s: %w", op, err, ErrProbeUnsupported)
		case errors.As(err, &exitErr):
			// no handler registered
			return false, nil
		default:
			return false, fmt.Errorf("%s: %w", op, err)
		}
	}
	return strings.TrimSpace(string(out)) != "", nil
}

func lookupCommand(goos, scheme string) (string, []string, bool) {
	switch goos {
	case "darwin", "ios", "android", "js", "wasip1", "plan9":
		return "", nil, false
	case "windows":
		return "reg", []string{"query", `HKEY_CLASSES_ROOT\` + scheme, "/v", "URL Protocol"}, true
	default:
		return "xdg-mime", []string{"query", "default", "x-scheme-handler/" + scheme}, true
	}
}
