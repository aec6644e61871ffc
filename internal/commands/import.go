package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/apt777/finance-app/internal/importer"
	"github.com/apt777/finance-app/internal/ledger"
)

type importOptions struct {
	accountID string
	userID    string
	format    string
	currency  string
	dir       string
}

func newImportCommand(cfgPath *string) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import a bank CSV file into an account",
		Long: `Import records every row of a CSV file against one account.

Pass a file, or --dir to import every CSV file waiting in a directory.
Files imported from a directory are moved to its processed/ subdirectory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && opts.dir == "" {
				return fmt.Errorf("pass a file or --dir")
			}
			if len(args) == 1 && opts.dir != "" {
				return fmt.Errorf("pass either a file or --dir, not both")
			}

			parser, err := importer.RegistryFor(opts.currency).Lookup(opts.format)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), *cfgPath)
			if err != nil {
				return err
			}
			defer a.Close()
			svc := a.ledger()

			if len(args) == 1 {
				return importFile(cmd.Context(), cmd.OutOrStdout(), svc, parser, opts, args[0])
			}

			files, err := importer.Scan(opts.dir)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No CSV files in %s\n", opts.dir)
				return nil
			}
			for _, f := range files {
				if err := importFile(cmd.Context(), cmd.OutOrStdout(), svc, parser, opts, f.Path); err != nil {
					return err
				}
				dst, err := importer.MarkProcessed(opts.dir, f.Name)
				if err != nil {
					return err
				}
				a.logger.Info("file processed", zap.String("file", f.Name), zap.String("moved_to", dst))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.accountID, "account", "", "account ID to import into (required)")
	cmd.Flags().StringVar(&opts.userID, "user", "", "owner of the account (required)")
	cmd.Flags().StringVar(&opts.format, "format", importer.DefaultFormat, "CSV format")
	cmd.Flags().StringVar(&opts.currency, "currency", "", "currency of a file whose format does not name one (default: the account's)")
	cmd.Flags().StringVar(&opts.dir, "dir", "", "import every CSV file in this directory")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func importFile(ctx context.Context, out io.Writer, svc *ledger.Service, parser importer.Parser, opts importOptions, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	rows, err := parser.Parse(f)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	res, err := svc.Import(ctx, opts.userID, opts.accountID, rows)
	if err != nil {
		return fmt.Errorf("importing %s: %w", path, err)
	}

	fmt.Fprintf(out, "%s: imported %d, skipped %d, balance %s\n",
		filepath.Base(path), res.Imported, res.Skipped, res.Balance.String())
	return nil
}
