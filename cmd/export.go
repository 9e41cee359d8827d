package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/freshtrack/expiry-cli/internal/export"
	"github.com/freshtrack/expiry-cli/internal/model"
)

var (
	exportOut    string
	exportWithin int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the expiring-stock report to an XLSX workbook",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		items, err := st.ListExpiring(ctx, exportWithin, model.Today())
		if err != nil {
			return err
		}

		if err := export.WriteExpiringReport(exportOut, items); err != nil {
			return err
		}
		fmt.Printf("wrote %d item(s) to %s\n", len(items), exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "expiring.xlsx", "output file path")
	exportCmd.Flags().IntVar(&exportWithin, "within", 7, "days ahead to include")
	rootCmd.AddCommand(exportCmd)
}
