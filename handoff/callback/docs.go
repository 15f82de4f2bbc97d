// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
callback is a package that provides an http.HandlerFunc for hosts where the
OS (or a browser) delivers provider callbacks to a loopback listener rather
than through an in-process open-url hook.
*/
package callback
