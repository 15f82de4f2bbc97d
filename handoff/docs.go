// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
handoff is a package for signing users in through an identity provider app
installed on the same device.  Instead of calling the provider over the
network, the host application asks the OS to open the provider app, and the
OS later hands the provider's answer back as a callback URL.

Primary types provided by the package:

* Coordinator: owns the one authentication Session a host application may
have outstanding.  BeginAuth starts it, HandleOpenURL/ResolveCallback
correlate the OS delivered callback with it via its state nonce, and an
expiry timer ends it if the provider app never returns.  IsAppInstalled
asks the Launcher, when it is a Prober, whether the provider app is present
without starting a session.

* Session: the record of the pending request (app id, state nonce, issued at,
expiration, status).

* Launcher: hands an AuthRequest to the OS.  OpenerLauncher opens the
provider app's request URL, BrowserLauncher opens an oauth2 authorization URL
for providers without an app.

* Notifier: receives the single Outcome of every session.

* ParseCallbackURL: decodes a callback URL into a CallbackResult.

The handoff/callback package

The callback package provides an http.HandlerFunc which feeds callback URLs
into a Coordinator, for hosts where the OS delivers them to a loopback
listener.

The handoff/notify package

The notify package provides Notifiers which forward Outcomes elsewhere (an
http webhook, several sinks at once).
*/
package handoff
