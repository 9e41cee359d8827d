package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/freshtrack/expiry-cli/internal/model"
	"github.com/freshtrack/expiry-cli/internal/store"
)

var (
	expiringWithin  int
	expiringRefresh bool
)

var expiringCmd = &cobra.Command{
	Use:   "expiring",
	Short: "List scanned stock that is expired or expiring soon",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		today := model.Today()

		if expiringRefresh {
			updated, err := st.RefreshDaysRemaining(ctx, today)
			if err != nil {
				return err
			}
			zap.L().Info("refreshed stored days remaining", zap.Int("updated", updated))
		}

		items, err := st.ListExpiring(ctx, expiringWithin, today)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Fprintf(os.Stderr, "Nothing expiring within %d days.\n", expiringWithin)
			return nil
		}

		printExpiring(os.Stdout, items)
		return nil
	},
}

func printExpiring(w io.Writer, items []store.ExpiringItem) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BARCODE\tNAME\tEXPIRY\tDAYS LEFT\tSCANNED")
	for _, item := range items {
		barcode := item.Barcode
		if barcode == "" {
			barcode = "-"
		}
		name := item.Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			barcode, name, item.ExpiryDate, item.DaysRemaining,
			item.ScannedAt.Local().Format("2006-01-02"))
	}
	tw.Flush() //nolint:errcheck
}

func init() {
	expiringCmd.Flags().IntVar(&expiringWithin, "within", 7, "days ahead to include")
	expiringCmd.Flags().BoolVar(&expiringRefresh, "refresh", false, "recompute stored days-remaining first")
	rootCmd.AddCommand(expiringCmd)
}
