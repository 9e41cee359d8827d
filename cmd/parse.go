package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/freshtrack/expiry-cli/internal/dateparse"
	"github.com/freshtrack/expiry-cli/internal/expiry"
	"github.com/freshtrack/expiry-cli/internal/model"
)

var parseCmd = &cobra.Command{
	Use:   "parse <text>",
	Short: "Parse a typed production date and show the derived expiry",
	Long:  "Parses manually entered date text (2024-01-15, 2024年1月15日, 15/01/2024, ...) as a production date and derives the expiry with the default shelf life.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := dateparse.ParseTyped(args[0])
		if err != nil {
			var upe *dateparse.UnparseableError
			if errors.As(err, &upe) {
				return fmt.Errorf("unrecognized date %q", upe.Text)
			}
			return err
		}

		result := expiry.Compute(expiry.Input{Production: date}, model.Today())
		fmt.Printf("production: %s\n", date)
		fmt.Printf("expiry:     %s (default %d-day shelf life)\n", result.ExpiryDate, expiry.DefaultShelfLifeDays)
		fmt.Printf("days left:  %d\n", result.DaysRemaining)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
}
