package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/apt777/finance-app/internal/store"
)

func newMigrateCommand(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), *cfgPath)
			if err != nil {
				return err
			}
			defer a.Close()

			pg, ok := a.store.(*store.Postgres)
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "Driver %q keeps no schema; nothing to migrate\n", a.cfg.Database.Driver)
				return nil
			}
			if err := pg.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrating: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
			return nil
		},
	}
}
