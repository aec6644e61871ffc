// Package commands implements the finapp command line.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/apt777/finance-app/internal/buildinfo"
	"github.com/apt777/finance-app/internal/config"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:     "finapp",
		Short:   "Personal multi-currency finance tracker",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.FileName, "path to "+config.FileName)

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newMigrateCommand(&configPath))
	rootCmd.AddCommand(newServeCommand(&configPath))
	rootCmd.AddCommand(newImportCommand(&configPath))
	rootCmd.AddCommand(newExportCommand(&configPath))

	return rootCmd
}
