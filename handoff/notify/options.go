// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package notify

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Option defines a common functional options type which can be used in a
// variadic parameter pattern.
type Option func(interface{})

// ApplyOpts takes a pointer to the options struct as a set of default options
// and applies the slice of opts as overrides.
func ApplyOpts(opts interface{}, opt ...Option) {
	for _, o := range opt {
		if o == nil {
			continue
		}
		o(opts)
	}
}

// WithLogger provides an optional logger, for: NewWebhook, NewMulti
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		switch v := o.(type) {
		case *webhookOptions:
			v.withLogger = l
		case *multiOptions:
			v.withLogger = l
		}
	}
}

// WithTimeout bounds each delivery made by Notify, for: NewWebhook, NewMulti
func WithTimeout(d time.Duration) Option {
	return func(o interface{}) {
		switch v := o.(type) {
		case *webhookOptions:
			v.withTimeout = d
		case *multiOptions:
			v.withTimeout = d
		}
	}
}

// WithProviderCA provides an optional CA PEM the webhook endpoint's
// certificate chains to, for NewWebhook.
func WithProviderCA(caPEM string) Option {
	return func(o interface{}) {
		if v, ok := o.(*webhookOptions); ok {
			v.withCA = caPEM
		}
	}
}

// WithHTTPClient provides an optional http client, for NewWebhook.  It takes
// precedence over WithProviderCA.
func WithHTTPClient(c *http.Client) Option {
	return func(o interface{}) {
		if v, ok := o.(*webhookOptions); ok {
			v.withClient = c
		}
	}
}

// WithHeader adds a header sent with every webhook request, for NewWebhook.
func WithHeader(key, value string) Option {
	return func(o interface{}) {
		if v, ok := o.(*webhookOptions); ok {
			v.withHeaders = append(v.withHeaders, [2]string{key, value})
		}
	}
}
