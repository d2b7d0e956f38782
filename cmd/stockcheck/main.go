package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"StockCheck/internal/config"
	"StockCheck/internal/logging"
)

var (
	cfgPath  string
	logLevel string
	cfg      *config.Config
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "stockcheck",
		Short:         "Score a stock from 0 to 13 on technical, fundamental and qualitative factors",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if cfg, err = config.Load(cfgPath); err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return logging.Setup(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
		},
	}

	defaultCfg := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultCfg = v
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", defaultCfg, "path to the YAML config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(newAnalyzeCmd(), newInputsCmd(), newWatchCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("stockcheck failed")
		os.Exit(1)
	}
}
