// Package server implements the GoTalk chat server: the TCP listener, the
// per-connection protocol engine, the session registry, and the broadcast
// dispatcher.
package server

import (
	"context"
	"net"

	"github.com/NicolasHaas/gotalk/pkg/auth"
	"github.com/NicolasHaas/gotalk/pkg/datastore"
)

// Config holds server configuration.
type Config struct {
	Addr         string // TCP bind address (e.g. ":5000")
	DBPath       string // SQLite database path
	MetricsAddr  string // HTTP bind address for /metrics endpoint (empty = disabled)
	HistoryLimit int    // number of stored messages replayed on login
	MOTD         string // optional extra line sent after the welcome banner
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:         ":5000",
		DBPath:       "gotalk.db",
		MetricsAddr:  ":5602",
		HistoryLimit: 20,
	}
}

// Dependencies holds external dependencies for the server.
// The caller keeps ownership of Store and closes it after Run returns.
type Dependencies struct {
	Store datastore.DataProviderFactory
}

// Server is the main GoTalk server.
type Server struct {
	cfg        Config
	registry   *Registry
	accounts   *auth.Service
	dispatcher *Dispatcher
	metrics    *Metrics
	store      datastore.DataProviderFactory
	listener   net.Listener
	ctx        context.Context
	cancel     context.CancelFunc
}

// New creates a new Server instance.
func New(cfg Config, deps Dependencies) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	registry := NewRegistry()
	metrics := NewMetrics()
	return &Server{
		cfg:        cfg,
		registry:   registry,
		accounts:   auth.NewService(deps.Store),
		dispatcher: NewDispatcher(deps.Store.NonTx(), registry, metrics),
		metrics:    metrics,
		store:      deps.Store,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Registry returns the session registry.
func (s *Server) Registry() *Registry {
	return s.registry
}

// Metrics returns the server metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}
