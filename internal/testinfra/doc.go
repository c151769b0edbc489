// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

// Package testinfra provides container-backed infrastructure for
// integration tests, built on testcontainers-go.
//
// Every file carries the integration build tag, so regular test runs
// never need Docker:
//
//	go test -tags integration ./internal/cache/...
//
// Tests call SkipIfNoDocker first and are skipped when the daemon is
// unreachable. The first run pulls the images; later runs use the local
// image cache.
package testinfra
