// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// appsso provides packages which sign users in through an identity provider
// app installed on the same device, using an OS level URL handoff instead of
// a network call to the provider.
//
// See the handoff package.
package appsso
