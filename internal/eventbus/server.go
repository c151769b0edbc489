// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package eventbus

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/nats-io/nats-server/v2/server"

	"github.com/tomtom215/shelfwise/internal/config"
	"github.com/tomtom215/shelfwise/internal/logging"
)

// ServerConfig configures the embedded NATS server.
type ServerConfig struct {
	Host      string
	Port      int // server.RANDOM_PORT picks a free port
	StoreDir  string
	MaxMemory int64
	MaxStore  int64
}

// ServerConfigFrom listens where cfg.URL points, so the in-process
// clients and any external ones share one address.
func ServerConfigFrom(c config.NATSConfig) (ServerConfig, error) {
	u, err := url.Parse(c.URL)
	if err != nil {
		return ServerConfig{}, fmt.Errorf("parse nats url: %w", err)
	}
	host, portStr, err := net.SplitHostPort(u.Host)
	if err != nil {
		return ServerConfig{}, fmt.Errorf("nats url %q: %w", c.URL, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return ServerConfig{}, fmt.Errorf("nats url port %q: %w", portStr, err)
	}
	return ServerConfig{
		Host:      host,
		Port:      port,
		StoreDir:  c.StoreDir,
		MaxMemory: c.MaxMemory,
		MaxStore:  c.MaxStore,
	}, nil
}

// EmbeddedServer is a JetStream-enabled NATS server running in process.
type EmbeddedServer struct {
	server    *server.Server
	clientURL string
}

// StartEmbeddedServer starts the server and waits until it accepts
// connections.
func StartEmbeddedServer(cfg ServerConfig) (*EmbeddedServer, error) {
	opts := &server.Options{
		ServerName:         "shelfwise-events",
		Host:               cfg.Host,
		Port:               cfg.Port,
		JetStream:          true,
		StoreDir:           cfg.StoreDir,
		JetStreamMaxMemory: cfg.MaxMemory,
		JetStreamMaxStore:  cfg.MaxStore,
		NoSigs:             true,
		MaxPayload:         1024 * 1024,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create NATS server: %w", err)
	}
	go ns.Start()

	if !ns.ReadyForConnections(30 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("NATS server not ready within timeout")
	}

	logging.Info().Str("url", ns.ClientURL()).Str("store_dir", cfg.StoreDir).Msg("embedded NATS server started")
	return &EmbeddedServer{server: ns, clientURL: ns.ClientURL()}, nil
}

// ClientURL is the address clients should dial.
func (s *EmbeddedServer) ClientURL() string { return s.clientURL }

// IsRunning reports whether the server is up.
func (s *EmbeddedServer) IsRunning() bool { return s.server.Running() }

// Shutdown stops the server and waits for it to finish unless ctx ends
// first.
func (s *EmbeddedServer) Shutdown(ctx context.Context) error {
	s.server.Shutdown()
	done := make(chan struct{})
	go func() {
		s.server.WaitForShutdown()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Serve keeps the server up until ctx is done. It implements
// suture.Service; the server itself is started before the tree so the
// bus can connect during wiring.
func (s *EmbeddedServer) Serve(ctx context.Context) error {
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		logging.Warn().Err(err).Msg("embedded NATS server shutdown incomplete")
	}
	return ctx.Err()
}

func (s *EmbeddedServer) String() string { return "nats-server" }
