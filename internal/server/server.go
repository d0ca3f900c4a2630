// Package server hosts one middleware node behind gRPC: the three RPC
// surfaces on a single listener, an optional metrics endpoint, and a
// policy-preset watcher for hot reload.
package server

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"google.golang.org/grpc"

	"github.com/trace2e-io/trace2e/api/trace2ev1"
	"github.com/trace2e-io/trace2e/internal/audit"
	"github.com/trace2e-io/trace2e/internal/client"
	"github.com/trace2e-io/trace2e/internal/config"
	"github.com/trace2e-io/trace2e/internal/middleware"
	"github.com/trace2e-io/trace2e/internal/policyfile"
)

// Server wires a node's kernel to its listeners.
type Server struct {
	cfg config.Config
	log *slog.Logger

	mw       *middleware.Middleware
	auditLog *audit.Log
	dialer   *client.PeerDialer

	grpcServer *grpc.Server
	metricsSrv *http.Server
}

// New builds a server from configuration: audit log, peer dialer,
// middleware kernel, and the registered gRPC services. Policy presets are
// applied before the node starts listening.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	var auditLog *audit.Log
	if cfg.AuditLog != "" {
		var err error
		auditLog, err = audit.Open(cfg.AuditLog)
		if err != nil {
			return nil, fmt.Errorf("server: open audit log: %w", err)
		}
	}

	dialer := client.NewPeerDialer(cfg.M2MPort)

	mw := middleware.New(middleware.Config{
		Node:           cfg.Node,
		Peers:          dialer,
		ConsentTimeout: cfg.ConsentTimeout.Std(),
		PeerTimeout:    cfg.PeerTimeout.Std(),
		Logger:         logger,
		Audit:          auditLog,
	})

	s := &Server{
		cfg:        cfg,
		log:        logger.With("component", "server", "node", cfg.Node),
		mw:         mw,
		auditLog:   auditLog,
		dialer:     dialer,
		grpcServer: grpc.NewServer(),
	}

	trace2ev1.RegisterP2mServiceServer(s.grpcServer, &p2mHandler{mw: mw})
	trace2ev1.RegisterM2mServiceServer(s.grpcServer, &m2mHandler{mw: mw})
	trace2ev1.RegisterO2mServiceServer(s.grpcServer, &o2mHandler{mw: mw})

	if cfg.PolicyFile != "" {
		if err := s.ReloadPolicy(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Middleware exposes the kernel, for tests.
func (s *Server) Middleware() *middleware.Middleware { return s.mw }

// Serve listens on the configured endpoint and blocks until stopped. The
// metrics endpoint, when configured, runs alongside.
func (s *Server) Serve() error {
	lis, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", s.cfg.Listen, err)
	}
	return s.ServeOn(lis)
}

// ServeOn serves on the given listener. For testing.
func (s *Server) ServeOn(lis net.Listener) error {
	if s.cfg.MetricsListen != "" {
		s.metricsSrv = &http.Server{
			Addr:    s.cfg.MetricsListen,
			Handler: s.mw.Metrics().Handler(),
		}
		go func() {
			if err := s.metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				s.log.Warn("metrics endpoint failed", "error", err)
			}
		}()
	}
	s.log.Info("listening", "addr", lis.Addr().String())
	return s.grpcServer.Serve(lis)
}

// GracefulStop drains in-flight RPCs and stops the listeners.
func (s *Server) GracefulStop() {
	s.grpcServer.GracefulStop()
	if s.metricsSrv != nil {
		s.metricsSrv.Close()
	}
}

// Close releases connections and the audit log.
func (s *Server) Close() error {
	s.dialer.Close()
	if s.auditLog != nil {
		return s.auditLog.Close()
	}
	return nil
}

// ReloadPolicy re-applies the policy preset file. Called at startup and by
// the hot-reload watcher.
func (s *Server) ReloadPolicy() error {
	f, err := policyfile.Load(s.cfg.PolicyFile)
	if err != nil {
		return err
	}
	f.Apply(s.mw)
	s.log.Info("policy presets applied", "entries", len(f.Policies))
	return nil
}
