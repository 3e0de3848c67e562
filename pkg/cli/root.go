package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/getmockd/billingmock/pkg/config"
	"github.com/getmockd/billingmock/pkg/logging"
)

var (
	// Persistent flags available to all subcommands
	configFile string
	logLevel   string
	jsonOutput bool

	// Version is injected during build
	Version = "dev"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "billingmock",
	Short: "billingmock simulates a billing API's resources in memory",
	Long: `billingmock creates, validates and stores billing resources (plans, products,
coupons, customers, tokens) the way the real billing API would, without a network.

Fixtures can be replayed against the in-memory engine or, in live mode,
against the real API with best-effort cleanup.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if hint := errors.FlattenHints(err); hint != "" {
			fmt.Fprintln(os.Stderr, "Hint:", hint)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a YAML config file (env: "+config.EnvConfigFile+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output command results in JSON format")

	rootCmd.AddCommand(kindsCmd, runCmd)
}

// loadEnvironment reads .env when present. Variables already set win.
func loadEnvironment() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "loading .env")
	}
	return nil
}

// loadConfig resolves the configuration for a command run.
func loadConfig() (*config.Config, error) {
	if err := loadEnvironment(); err != nil {
		return nil, err
	}
	path := configFile
	if path == "" {
		path = os.Getenv(config.EnvConfigFile)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	lc := logging.DefaultConfig()
	lc.Level = logging.ParseLevel(cfg.Logging.Level)
	lc.Format = logging.ParseFormat(cfg.Logging.Format)
	return logging.New(lc)
}
