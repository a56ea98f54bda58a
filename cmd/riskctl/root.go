package main

import (
	"github.com/erp/customer-risk/internal/infrastructure/config"
	"github.com/erp/customer-risk/internal/infrastructure/logger"
	"github.com/erp/customer-risk/internal/infrastructure/persistence"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// globalOptions are shared by every subcommand
type globalOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "riskctl",
		Short:         "Customer credit-risk reports from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config.toml (default: ./config.toml or /app/config.toml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newExportCmd(opts))
	root.AddCommand(newInitDBCmd(opts))
	return root
}

// session holds what a subcommand needs to talk to the ERP database
type session struct {
	cfg *config.Config
	log *zap.Logger
	db  *persistence.Database
}

func openSession(opts *globalOptions) (*session, error) {
	cfg, err := config.LoadFile(opts.configPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(logger.CLIConfig(opts.logLevel))
	if err != nil {
		return nil, err
	}
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(log))
	if err != nil {
		_ = logger.Sync(log)
		return nil, err
	}
	return &session{cfg: cfg, log: log, db: db}, nil
}

func (s *session) Close() {
	if err := s.db.Close(); err != nil {
		s.log.Warn("Error closing database", zap.Error(err))
	}
	_ = logger.Sync(s.log)
}
