package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/apt777/finance-app/internal/config"
	"github.com/apt777/finance-app/internal/currency"
	"github.com/apt777/finance-app/internal/importer"
)

func newInitCommand() *cobra.Command {
	var baseCurrency string
	var driver string
	var databaseURL string
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a default finapp.yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd, absDir, initOptions{
				baseCurrency: baseCurrency,
				driver:       driver,
				databaseURL:  databaseURL,
				force:        force,
			})
		},
	}

	cmd.Flags().StringVar(&baseCurrency, "base-currency", "JPY", "currency totals are reported in")
	cmd.Flags().StringVar(&driver, "driver", "postgres", "storage driver (postgres or memory)")
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "postgres connection URL")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing finapp.yaml")

	return cmd
}

type initOptions struct {
	baseCurrency string
	driver       string
	databaseURL  string
	force        bool
}

func runInit(cmd *cobra.Command, dir string, opts initOptions) error {
	base, err := currency.Normalize(opts.baseCurrency)
	if err != nil {
		return fmt.Errorf("base currency: %w", err)
	}

	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil && !opts.force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfgPath)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", cfgPath, err)
	}

	// Bank exports dropped into import/ are picked up by "finapp import --dir".
	for _, d := range []string{"import", filepath.Join("import", importer.ProcessedDir)} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	cfg := config.Default(base)
	cfg.Database.Driver = opts.driver
	if opts.databaseURL != "" {
		cfg.Database.URL = opts.databaseURL
	}
	if opts.driver == "memory" {
		cfg.Database.URL = ""
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized finapp at %s (base currency %s)\n", dir, base)
	return nil
}
