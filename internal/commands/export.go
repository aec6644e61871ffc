package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/apt777/finance-app/internal/export"
	"github.com/apt777/finance-app/internal/store"
)

type exportOptions struct {
	userID    string
	what      string
	accountID string
	output    string
}

func newExportCommand(cfgPath *string) *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write transactions or accounts as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.what != "transactions" && opts.what != "accounts" {
				return fmt.Errorf("--what must be transactions or accounts, got %q", opts.what)
			}

			a, err := openApp(cmd.Context(), *cfgPath)
			if err != nil {
				return err
			}
			defer a.Close()
			svc := a.ledger()

			var out io.Writer = cmd.OutOrStdout()
			if opts.output != "" && opts.output != "-" {
				f, err := os.Create(opts.output)
				if err != nil {
					return fmt.Errorf("creating %s: %w", opts.output, err)
				}
				defer f.Close()
				out = f
			}

			switch opts.what {
			case "accounts":
				accts, err := svc.ListAccounts(cmd.Context(), opts.userID)
				if err != nil {
					return err
				}
				return export.WriteAccounts(out, accts)
			default:
				txns, err := svc.ListTransactions(cmd.Context(), opts.userID, store.TransactionFilter{AccountID: opts.accountID})
				if err != nil {
					return err
				}
				return export.WriteTransactions(out, txns)
			}
		},
	}

	cmd.Flags().StringVar(&opts.userID, "user", "", "owner of the data (required)")
	cmd.Flags().StringVar(&opts.what, "what", "transactions", "transactions or accounts")
	cmd.Flags().StringVar(&opts.accountID, "account", "", "only transactions touching this account")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write to this file instead of stdout")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
