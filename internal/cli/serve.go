package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/trace2e-io/trace2e/internal/config"
	"github.com/trace2e-io/trace2e/internal/server"
)

var (
	serveConfig   string
	serveNode     string
	serveListen   string
	servePolicy   string
	serveAuditLog string
	serveMetrics  string
	serveVerbose  bool
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveConfig, "config", "", "Path to YAML config")
	serveCmd.Flags().StringVar(&serveNode, "node", "", "Node id (host peers dial for M2M)")
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen endpoint for all three surfaces")
	serveCmd.Flags().StringVar(&servePolicy, "policy", "", "Path to policy preset YAML")
	serveCmd.Flags().StringVar(&serveAuditLog, "audit-log", "", "Path to audit log JSONL file")
	serveCmd.Flags().StringVar(&serveMetrics, "metrics-listen", "", "Optional Prometheus endpoint")
	serveCmd.Flags().BoolVarP(&serveVerbose, "verbose", "v", false, "Debug logging")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the middleware node",
	Long: "Runs one trace2e node: P2M, M2M, and O2M services on a single\n" +
		"listener, with optional metrics endpoint and policy preset hot-reload.",
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(serveConfig)
	if err != nil {
		return err
	}
	if serveNode != "" {
		cfg.Node = serveNode
	}
	if serveListen != "" {
		cfg.Listen = serveListen
	}
	if servePolicy != "" {
		cfg.PolicyFile = servePolicy
	}
	if serveAuditLog != "" {
		cfg.AuditLog = serveAuditLog
	}
	if serveMetrics != "" {
		cfg.MetricsListen = serveMetrics
	}

	level := slog.LevelInfo
	if serveVerbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.PolicyFile != "" {
		reloader, err := server.NewReloader(srv)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: hot-reload disabled: %v\n", err)
		} else {
			go reloader.Run(ctx)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down middleware...")
		cancel()
		srv.GracefulStop()
	}()

	fmt.Fprintf(os.Stderr, "trace2e node %s listening on %s\n", cfg.Node, cfg.Listen)
	return srv.Serve()
}
