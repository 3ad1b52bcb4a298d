package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/fxreplay/ledger"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Show finalized accounts from the store",
	Long: `Print the stored account history as an org-mode document, newest
account first.

Examples:
  fxreplay accounts
  fxreplay accounts --summary
  fxreplay accounts --json`,
	Args: cobra.NoArgs,
	RunE: runAccounts,
}

var (
	accountsSummary bool
	accountsJSON    bool
)

func init() {
	rootCmd.AddCommand(accountsCmd)

	accountsCmd.Flags().BoolVarP(&accountsSummary, "summary", "s", false, "print one line per account")
	accountsCmd.Flags().BoolVar(&accountsJSON, "json", false, "print the stored history as JSON")
}

func runAccounts(cmd *cobra.Command, args []string) error {
	kv, err := openStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer kv.Close()

	l, err := ledger.Load(kv)
	if err != nil {
		logger.Warn("stored history ignored", zap.Error(err))
	}

	out := cmd.OutOrStdout()
	switch {
	case accountsJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(l.History())
	case accountsSummary:
		fmt.Fprintln(out, l.SummaryLine())
		fmt.Fprintf(out, "Next account: %d\n", l.NextID())
	default:
		fmt.Fprintln(out, ledger.FormatHistoryOrg(l.History()))
	}
	return nil
}
