// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/appsso/handoff"
	sdkHttp "github.com/hashicorp/appsso/sdk/http"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-uuid"
)

// DefaultTimeout bounds a single delivery made by Notify.
const DefaultTimeout = 10 * time.Second

// DeliveryIDHeader carries a unique id for every delivery attempt, so an
// endpoint can recognize a redelivered outcome.
const DeliveryIDHeader = "X-Appsso-Delivery"

// Webhook POSTs every Outcome as JSON to an http endpoint, e.g. the host's
// backend which exchanges the authorization code.
type Webhook struct {
	endpoint string
	client   *http.Client
	headers  [][2]string
	timeout  time.Duration
	logger   hclog.Logger
}

// ensure that Webhook implements the handoff.Notifier interface
var _ handoff.Notifier = (*Webhook)(nil)

// NewWebhook creates a Webhook for an absolute http(s) endpoint.
//
// Supported options: WithLogger, WithTimeout, WithProviderCA,
// WithHTTPClient, WithHeader
func NewWebhook(endpoint string, opt ...Option) (*Webhook, error) {
	const op = "notify.NewWebhook"
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", op, err, handoff.ErrInvalidParameter)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%s: endpoint %q is not an absolute http(s) URL: %w", op, endpoint, handoff.ErrInvalidParameter)
	}
	opts := getWebhookOpts(opt...)
	client := opts.withClient
	if client == nil {
		client, err = sdkHttp.NewClient(opts.withCA)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", op, err, handoff.ErrInvalidParameter)
		}
	}
	return &Webhook{
		endpoint: endpoint,
		client:   client,
		headers:  opts.withHeaders,
		timeout:  opts.withTimeout,
		logger:   opts.withLogger,
	}, nil
}

// Send delivers o and returns an error for transport failures and non-2xx
// responses.
func (w *Webhook) Send(ctx context.Context, o handoff.Outcome) error {
	const op = "Webhook.Send"
	body, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("%s: unable to encode outcome: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: unable to build request: %w", op, err)
	}
	deliveryID, err := uuid.GenerateUUID()
	if err != nil {
		return fmt.Errorf("%s: unable to generate delivery id: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(DeliveryIDHeader, deliveryID)
	for _, h := range w.headers {
		req.Header.Set(h[0], h[1])
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: unable to deliver outcome: %w", op, err)
	}
	defer resp.Body.Close()
	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s: endpoint returned status %d", op, resp.StatusCode)
	}
	return nil
}

// Notify implements the handoff.Notifier interface.  Failures are logged.
func (w *Webhook) Notify(o handoff.Outcome) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	if err := w.Send(ctx, o); err != nil {
		w.logger.Error("webhook delivery failed", "state", o.State, "outcome", o.Kind.String(), "error", err)
		return
	}
	w.logger.Debug("webhook delivered", "state", o.State, "outcome", o.Kind.String())
}

// webhookOptions is the set of available options for NewWebhook
type webhookOptions struct {
	withLogger  hclog.Logger
	withTimeout time.Duration
	withCA      string
	withClient  *http.Client
	withHeaders [][2]string
}

func webhookDefaults() webhookOptions {
	return webhookOptions{
		withLogger:  hclog.NewNullLogger(),
		withTimeout: DefaultTimeout,
	}
}

func getWebhookOpts(opt ...Option) webhookOptions {
	opts := webhookDefaults()
	ApplyOpts(&opts, opt...)
	if opts.withLogger == nil {
		opts.withLogger = hclog.NewNullLogger()
	}
	return opts
}
