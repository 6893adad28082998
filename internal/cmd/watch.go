package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/atikulmunna/logsift/internal/logsource"
	"github.com/atikulmunna/logsift/internal/matcher"
	"github.com/atikulmunna/logsift/internal/runner"
	"github.com/atikulmunna/logsift/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run a filter every time the log file changes",
	Long: `Run a filter once, then again over the whole file after every write.

Examples:
  logsift watch --logfile server.log --filters 500,POST
  logsift watch -f "/var/log/**/*.log" -F 8.8.8.8 --verbose`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringSliceVarP(&logFiles, "logfile", "f", nil, "log file path or glob (repeatable)")
	watchCmd.Flags().StringVarP(&filterSpec, "filters", "F", "", "comma-separated filters: IP, status code, HTTP method or date")
	watchCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print matching lines when fewer than verbose_threshold matched")
	watchCmd.Flags().StringVarP(&outputFmt, "output", "o", "text", "output format: text, json")
	_ = watchCmd.MarkFlagRequired("logfile")
	_ = watchCmd.MarkFlagRequired("filters")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	tokens := matcher.SplitTokens(filterSpec)
	if _, err := matcher.NewGrouping(tokens); err != nil {
		return describeRunError(cmd, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, paths, err := startWatcher(ctx, logFiles)
	if err != nil {
		return describeRunError(cmd, err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "logsift watching %d file(s):\n", len(paths))
	for _, p := range paths {
		fmt.Fprintf(cmd.ErrOrStderr(), "   • %s\n", p)
	}

	r := runner.New(matcher.New(cfg.MatcherOptions()), nil)
	renderer := newRenderer(cmd)

	for snap := range logsource.Follow(ctx, w, paths) {
		report, err := r.Apply(snap, tokens)
		if err != nil {
			return describeRunError(cmd, err)
		}
		if err := renderer.Render(report); err != nil {
			slog.Error("render failed", "err", err)
		}
	}
	return nil
}

// startWatcher expands patterns, checks every file is readable, and starts
// watching them in the background.
func startWatcher(ctx context.Context, patterns []string) (*watcher.Watcher, []string, error) {
	paths, err := logsource.Expand(patterns)
	if err != nil {
		return nil, nil, err
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return nil, nil, fmt.Errorf("read log file: %w", err)
		}
	}

	w, err := watcher.New(paths)
	if err != nil {
		return nil, nil, err
	}
	go w.Start(ctx)
	return w, paths, nil
}
