// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

/*
Package services adapts components without a Serve(ctx) error method to
suture.Service.

  - HTTPServerService: ListenAndServe/Shutdown with a drain timeout
  - PeriodicService: a ticker-driven job; three failures in a row end
    Serve so the supervisor backs off and restarts it
  - FuncService: names a blocking function, e.g. cache.Memory.RunJanitor

The hub, event router, embedded NATS server and feed refresher implement
suture.Service themselves and are added to the tree directly.
*/
package services
