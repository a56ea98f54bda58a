package main

import (
	"fmt"

	"github.com/erp/customer-risk/internal/infrastructure/persistence"
	"github.com/spf13/cobra"
)

func newInitDBCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the ERP read-model tables in a SQLite development database",
		Long: `init-db creates the customers, sales order, ledger and payment tables the
report reads from. It only works with database.driver = "sqlite"; production
ERP schemas are owned by the ERP itself.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := openSession(global)
			if err != nil {
				return err
			}
			defer sess.Close()

			if sess.cfg.Database.Driver != "sqlite" {
				return fmt.Errorf("init-db only supports the sqlite driver, configured driver is %q", sess.cfg.Database.Driver)
			}
			if err := persistence.AutoMigrateReadModels(sess.db.DB); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "read-model tables ready in %s\n", sess.cfg.Database.SQLitePath)
			return nil
		},
	}
}
