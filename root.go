package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jalad-shrimali/cdr-analyzer/config"
	"github.com/jalad-shrimali/cdr-analyzer/logging"
)

// app carries what PersistentPreRunE loaded to the subcommands.
type app struct {
	configPath string
	logLevel   string

	cfg config.Config
	log *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "cdr-analyzer",
		Short:         "Normalize operator CDR exports and build investigation reports",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}
	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (silent, error, warn, info, debug)")

	cmd.AddCommand(newAnalyzeCmd(a))
	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newViewsCmd())
	return cmd
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return withCode(exitUsage, err)
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return withCode(exitUsage, err)
	}
	a.cfg, a.log = cfg, log
	return nil
}
