package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/atikulmunna/logsift/internal/matcher"
	"github.com/atikulmunna/logsift/internal/output"
	"github.com/atikulmunna/logsift/internal/runner"
)

var (
	logFiles   []string
	filterSpec string
	exportName string
	verbose    bool
	outputFmt  string
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Print the lines of a log file that match the filters",
	Long: `Filter a log file once and report how many lines matched.

Examples:
  logsift filter --logfile server.log --filters 200,GET
  logsift filter -f server.log -F 8.8.8.8 --verbose
  logsift filter -f "/var/log/nginx/*.log" -F 01/Jan/2021,404 --export errors`,
	Args: cobra.NoArgs,
	RunE: runFilter,
}

func init() {
	filterCmd.Flags().StringSliceVarP(&logFiles, "logfile", "f", nil, "log file path or glob (repeatable)")
	filterCmd.Flags().StringVarP(&filterSpec, "filters", "F", "", "comma-separated filters: IP, status code, HTTP method or date")
	filterCmd.Flags().StringVarP(&exportName, "export", "e", "", "write matching lines to NAME.txt")
	filterCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print matching lines when fewer than verbose_threshold matched")
	filterCmd.Flags().StringVarP(&outputFmt, "output", "o", "text", "output format: text, json")
	filterCmd.Flags().Int("verbose-threshold", 100, "line count below which --verbose echoes lines")
	_ = viper.BindPFlag("verbose_threshold", filterCmd.Flags().Lookup("verbose-threshold"))
	_ = filterCmd.MarkFlagRequired("logfile")
	_ = filterCmd.MarkFlagRequired("filters")

	rootCmd.AddCommand(filterCmd)
}

func runFilter(cmd *cobra.Command, args []string) error {
	r := runner.New(matcher.New(cfg.MatcherOptions()), nil)
	tokens := matcher.SplitTokens(filterSpec)

	report, err := r.Run(cmd.Context(), logFiles, tokens)
	if err != nil {
		return describeRunError(cmd, err)
	}

	if err := newRenderer(cmd).Render(report); err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	if exportName != "" && report.Count() > 0 {
		path, err := output.Export(cfg.ExportDir, exportName, report.Lines)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logs exported successfully to %s\n", path)
	}
	return nil
}

func newRenderer(cmd *cobra.Command) output.Renderer {
	switch strings.ToLower(outputFmt) {
	case "json":
		return output.NewJSONRenderer(cmd.OutOrStdout())
	default:
		return output.NewTextRenderer(cmd.OutOrStdout(), verbose, cfg.VerboseThreshold)
	}
}

// describeRunError prints the user-facing message for a failed run and
// returns the error so the process exits non-zero.
func describeRunError(cmd *cobra.Command, err error) error {
	var invalid *matcher.InvalidTokenError
	var pathErr *fs.PathError
	switch {
	case errors.As(err, &invalid):
		fmt.Fprintf(cmd.ErrOrStderr(), "Pattern not found: %q is not an IP, status code, HTTP method or date\n", invalid.Token)
	case errors.Is(err, matcher.ErrNoFilters):
		fmt.Fprintln(cmd.ErrOrStderr(), "No filters given")
	case errors.Is(err, fs.ErrNotExist) && errors.As(err, &pathErr):
		fmt.Fprintf(cmd.ErrOrStderr(), "File %s not found.\n", pathErr.Path)
	default:
		fmt.Fprintf(cmd.ErrOrStderr(), "An error occurred: %v\n", err)
	}
	return reportedError{err}
}

// reportedError marks an error already explained to the user.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }
