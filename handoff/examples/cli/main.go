// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/hashicorp/appsso/handoff"
	"github.com/hashicorp/appsso/handoff/callback"
	"github.com/hashicorp/appsso/handoff/notify"
	"github.com/hashicorp/go-hclog"
)

// List of configuration environment variables
const (
	appID          = "APPSSO_APP_ID"
	port           = "APPSSO_PORT"
	callbackScheme = "APPSSO_CALLBACK_SCHEME"
	authURL        = "APPSSO_AUTH_URL"
	webhookURL     = "APPSSO_WEBHOOK_URL"
	logLevel       = "APPSSO_LOG_LEVEL"
)

func envConfig() (map[string]string, error) {
	const op = "envConfig"
	env := map[string]string{
		appID:          os.Getenv(appID),
		port:           os.Getenv(port),
		callbackScheme: os.Getenv(callbackScheme),
		authURL:        os.Getenv(authURL),
		webhookURL:     os.Getenv(webhookURL),
		logLevel:       os.Getenv(logLevel),
	}
	for _, k := range []string{appID, port} {
		if env[k] == "" {
			return nil, fmt.Errorf("%s: %s is empty", op, k)
		}
	}
	if env[logLevel] == "" {
		env[logLevel] = "info"
	}
	return env, nil
}

func main() {
	scope := flag.String("scope", handoff.DefaultScope, "authorization scope to request")
	expiry := flag.Duration("expiry", handoff.DefaultExpiry, "how long to wait for the provider app to return")
	flag.Parse()

	env, err := envConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n\n", err)
		return
	}
	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "appsso",
		Level: hclog.LevelFromString(env[logLevel]),
	})

	// handle ctrl-c while waiting for the callback
	sigintCh := make(chan os.Signal, 1)
	signal.Notify(sigintCh, os.Interrupt)
	defer signal.Stop(sigintCh)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := []handoff.Option{
		handoff.WithScope(*scope),
		handoff.WithExpiry(*expiry),
		handoff.WithLogger(logger),
	}
	if env[callbackScheme] != "" {
		opts = append(opts, handoff.WithCallbackScheme(env[callbackScheme]))
	}
	cfg, err := handoff.NewConfig(env[appID], opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return
	}

	redirectURL := fmt.Sprintf("http://localhost:%s/callback", env[port])
	var launcher handoff.Launcher = handoff.NewOpenerLauncher(handoff.OSOpener)
	if env[authURL] != "" {
		launcher = &handoff.BrowserLauncher{
			AuthURL:     env[authURL],
			RedirectURL: redirectURL,
			Opener:      handoff.OSOpener,
		}
	}

	notifier, err := newNotifier(env[webhookURL], logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return
	}

	co, err := handoff.NewCoordinator(cfg, launcher, notifier)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return
	}
	defer co.Close()

	// "/open?url=..." is where an OS url handler forwards callbacks, and
	// "/callback" is where a browser redirect lands.
	openHandler, err := callback.OpenURL(co, "", "", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return
	}
	redirectHandler, err := callback.OpenURL(co, cfg.CallbackScheme, cfg.CallbackHost, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/open", openHandler)
	mux.HandleFunc("/callback", redirectHandler)

	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%s", env[port]))
	if err != nil {
		fmt.Fprint(os.Stderr, err.Error())
		return
	}
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	defer srv.Close()

	srvCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvCh <- err
		}
	}()

	fmt.Fprintf(os.Stderr, "Complete the login in the provider app. Callbacks are accepted on:\n\n    %s\n    http://localhost:%s/open?url=<callback url>\n\n", redirectURL, env[port])
	doneCh, err := co.BeginAuth(ctx, cfg.AppID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to start login: %s\n", err)
		return
	}

	select {
	case err := <-srvCh:
		fmt.Fprintf(os.Stderr, "server closed with error: %s\n", err)
	case o := <-doneCh:
		if err := o.Err(); err != nil {
			fmt.Fprintf(os.Stderr, "login failed: %s\n", err)
			return
		}
		fmt.Fprintf(os.Stderr, "login succeeded.\nauthorization code: %s\n", o.Code)
	case <-sigintCh:
		fmt.Fprintf(os.Stderr, "Interrupted\n")
	}
}

// newNotifier logs every outcome, and also posts it to webhook when one is
// configured.
func newNotifier(webhook string, logger hclog.Logger) (handoff.Notifier, error) {
	logNotifier := handoff.NotifierFunc(func(o handoff.Outcome) {
		logger.Info("login outcome", "outcome", o.Kind.String(), "state", o.State, "detail", o.ErrorDetail)
	})
	if webhook == "" {
		return logNotifier, nil
	}
	w, err := notify.NewWebhook(webhook, notify.WithLogger(logger.Named("webhook")))
	if err != nil {
		return nil, err
	}
	m, err := notify.NewMulti([]notify.Sender{notify.FromNotifier(logNotifier), w}, notify.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return m, nil
}
