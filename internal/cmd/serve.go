package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/atikulmunna/logsift/internal/aggregator"
	"github.com/atikulmunna/logsift/internal/hub"
	"github.com/atikulmunna/logsift/internal/logsource"
	"github.com/atikulmunna/logsift/internal/matcher"
	"github.com/atikulmunna/logsift/internal/runner"
	"github.com/atikulmunna/logsift/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve filter queries over HTTP for a watched log file",
	Long: `Keep a log file loaded, reload it on change, and answer filter queries.

Endpoints:
  GET /api/filter?filters=200,GET   filter report as JSON
  GET /ws?filters=8.8.8.8           websocket stream, one report per reload
  GET /api/stats                    run statistics
  GET /metrics                      Prometheus metrics
  GET /healthz                      liveness

Examples:
  logsift serve --logfile server.log --port 9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringSliceVarP(&logFiles, "logfile", "f", nil, "log file path or glob (repeatable)")
	serveCmd.Flags().StringP("port", "p", "8080", "HTTP listen port")
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = serveCmd.MarkFlagRequired("logfile")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, paths, err := startWatcher(ctx, logFiles)
	if err != nil {
		return describeRunError(cmd, err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	agg := aggregator.New(aggregator.NewMetrics(reg))

	h := hub.New(logsource.Follow(ctx, w, paths))
	go h.Start(ctx)

	srv, err := server.New(h, runner.New(matcher.New(cfg.MatcherOptions()), agg), agg, reg, server.Options{
		Port:      cfg.Server.Port,
		CacheSize: cfg.Server.CacheSize,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "logsift serving %d file(s) on :%s\n", len(paths), cfg.Server.Port)
	return srv.Start(ctx)
}
