package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/atikulmunna/logsift/internal/config"
	"github.com/atikulmunna/logsift/internal/logging"
)

var (
	cfgFile string
	cfg     config.Config
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "logsift",
	Short: "logsift — filter access logs by IP, status, method and date",
	Long: `logsift reads a log file and keeps only the lines whose IP address,
HTTP status code, HTTP method or date equals one of the filters you pass.

Filters of the same kind are alternatives; filters of different kinds must
all hold. Each filter's kind is inferred from its shape:

  8.8.8.8       IP address
  01/Jan/2021   date
  404           status code
  GET           HTTP method`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		cfg = loaded
		logging.Init(cfg.LogFormat, logging.ParseLevel(cfg.LogLevel))
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var reported reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	config.SetDefaults(viper.GetViper())

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: $HOME/.logsift.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "diagnostic log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("empty-filters", "allow", "empty filter list: allow (match all) or reject")
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("empty_filters", rootCmd.PersistentFlags().Lookup("empty-filters"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".logsift")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("logsift")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}
