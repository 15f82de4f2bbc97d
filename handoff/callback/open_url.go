// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/hashicorp/appsso/handoff"
)

// URLHandler consumes callback URLs.  *handoff.Coordinator satisfies it.
type URLHandler interface {
	// HandleOpenURL returns false when the URL isn't addressed to the
	// handler.
	HandleOpenURL(rawURL string) bool
}

// ensure that the Coordinator satisfies URLHandler
var _ URLHandler = (*handoff.Coordinator)(nil)

// urlParam is the form parameter carrying a complete callback URL.
const urlParam = "url"

// ResponseFunc is used by OpenURL to create a http response once the
// callback URL has been offered to the URLHandler.  consumed is what
// HandleOpenURL returned.
type ResponseFunc func(consumed bool, callbackURL string, w http.ResponseWriter, req *http.Request)

// OpenURL creates a handler which offers callback URLs to h.
//
// The callback URL is read from the "url" form parameter.  When it's absent
// and scheme is not empty, the URL is rebuilt from the request's own query
// and fragment-less parameters as scheme://host?<query>; this is what a
// browser redirect to a loopback RedirectURL looks like.
//
// The ResponseFunc is optional; by default the handler answers 202 when the
// URL was consumed and 404 when it wasn't.  Requests without a callback URL
// get a 400.
func OpenURL(h URLHandler, scheme, host string, rFn ResponseFunc) (http.HandlerFunc, error) {
	const op = "callback.OpenURL"
	if h == nil {
		return nil, fmt.Errorf("%s: url handler is nil: %w", op, handoff.ErrNilParameter)
	}
	if rFn == nil {
		rFn = defaultResponse
	}
	return func(w http.ResponseWriter, req *http.Request) {
		callbackURL := req.FormValue(urlParam)
		if callbackURL == "" && scheme != "" && req.URL.RawQuery != "" {
			u := url.URL{Scheme: scheme, Host: host, RawQuery: req.URL.RawQuery}
			callbackURL = u.String()
		}
		if callbackURL == "" {
			http.Error(w, "missing callback url", http.StatusBadRequest)
			return
		}
		rFn(h.HandleOpenURL(callbackURL), callbackURL, w, req)
	}, nil
}

func defaultResponse(consumed bool, _ string, w http.ResponseWriter, _ *http.Request) {
	if !consumed {
		http.Error(w, "callback url not recognized", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte("callback received, you may close this window"))
}
