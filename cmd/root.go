package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/riptide-dl/riptide/internal/client"
	"github.com/riptide-dl/riptide/internal/config"
	"github.com/riptide-dl/riptide/internal/version"
)

var (
	cfgFile  string
	flagHost string
	flagPort int
	flagTok  string
	flagLog  string

	cfg    *config.Config
	logger zerolog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "riptide",
	Short:   "Terminal client for the riptide download daemon",
	Long:    `Riptide drives a running riptide download daemon: submit downloads, control them, and watch live progress over the daemon's event stream.`,
	Version: version.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("host") {
			cfg.Host = flagHost
		}
		if cmd.Flags().Changed("port") {
			cfg.Port = flagPort
		}
		if flagTok != "" {
			cfg.Token = flagTok
		} else if env := os.Getenv("RIPTIDE_TOKEN"); env != "" && cfg.Token == "" {
			cfg.Token = env
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Log.Level = flagLog
		}

		level, err := zerolog.ParseLevel(cfg.Log.Level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
		}
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(level).
			With().Timestamp().Logger()
		return nil
	},
}

// newClient builds a transport client from the resolved config. One
// client per invocation; commands own its lifecycle.
func newClient() *client.Client {
	return client.New(client.Config{
		BaseURL:           cfg.BaseURL(),
		Token:             cfg.Token,
		CommandTimeout:    cfg.CommandTimeout,
		ConnectTimeout:    cfg.ConnectTimeout,
		PingTimeout:       cfg.PingTimeout,
		KeepaliveInterval: cfg.KeepaliveInterval,
	}, logger)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flagHost, "host", "127.0.0.1", "Daemon host")
	rootCmd.PersistentFlags().IntVarP(&flagPort, "port", "p", config.DefaultPort, "Daemon port")
	rootCmd.PersistentFlags().StringVar(&flagTok, "token", "", "Bearer token for the daemon (or set RIPTIDE_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&flagLog, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	rootCmd.SetVersionTemplate("riptide version {{.Version}}\n")
}
