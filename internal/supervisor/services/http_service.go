// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/shelfwise/internal/logging"
)

const defaultDrainTimeout = 10 * time.Second

// HTTPServer is the part of *http.Server the service drives.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService keeps the API listener running under the api layer.
// Cancelling the service context stops accepting connections and lets
// in-flight requests (feed builds included) finish for up to the drain
// timeout.
type HTTPServerService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
}

// NewHTTPServerService wraps server. A non-positive drain timeout falls
// back to 10s.
func NewHTTPServerService(server HTTPServer, shutdownTimeout time.Duration) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultDrainTimeout
	}
	return &HTTPServerService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve implements suture.Service.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	listenErr := make(chan error, 1)
	go func() {
		err := h.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		listenErr <- err
	}()

	select {
	case err := <-listenErr:
		if err == nil {
			return nil
		}
		return fmt.Errorf("http listener: %w", err)
	case <-ctx.Done():
	}

	return h.drain(ctx, listenErr)
}

// drain runs on a fresh context because ctx is already done.
func (h *HTTPServerService) drain(ctx context.Context, listenErr <-chan error) error {
	logger := logging.WithComponent("http-server")
	logger.Info().Dur("timeout", h.shutdownTimeout).Msg("Draining HTTP connections")

	drainCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
	defer cancel()
	started := time.Now()
	if err := h.server.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("http drain: %w", err)
	}
	<-listenErr

	logger.Info().Dur("took", time.Since(started)).Msg("HTTP server drained")
	return ctx.Err()
}

func (h *HTTPServerService) String() string { return "http-server" }
