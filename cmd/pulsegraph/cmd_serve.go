package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"pulsegraph/internal/logging"
	mcpserver "pulsegraph/internal/mcp"
	"pulsegraph/internal/metrics"
)

var serveFlags struct {
	metricsAddr string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over stdio",
	Long: `Starts an MCP server over stdin/stdout exposing extract_features,
evaluate_graph, session and render tools. Sessions and saved snapshots go to
the configured store.

With --metrics-addr, Prometheus metrics are served at /metrics on that
address while the server runs.

The server exits when its parent process goes away.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9464)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	logger := logging.New("mcp")
	opts := []mcpserver.Option{
		mcpserver.WithStore(st),
		mcpserver.WithFeatureConfig(cfg.Features),
		mcpserver.WithEvalConfig(cfg.Eval),
		mcpserver.WithLogger(logger),
		mcpserver.WithVersion(version),
	}
	if serveFlags.metricsAddr != "" {
		collector := metrics.NewCollector()
		_, stop, err := serveMetrics(ctx, serveFlags.metricsAddr, collector, logger)
		if err != nil {
			return err
		}
		defer stop()
		opts = append(opts, mcpserver.WithMetrics(collector))
	}
	srv := mcpserver.NewServer(opts...)

	mcpserver.WatchParent(ctx, logger, cancel)

	logger.Info("starting pulsegraph MCP server over stdio (parent watchdog active)", "store", cfg.Store.Path)
	return srv.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

// serveMetrics listens on addr and serves collector at /metrics until the
// returned stop function is called. It returns the bound address.
func serveMetrics(ctx context.Context, addr string, collector *metrics.Collector, logger *slog.Logger) (string, func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	hs := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := hs.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())

	return ln.Addr().String(), func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = hs.Shutdown(shutdownCtx)
	}, nil
}
