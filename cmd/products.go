package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/freshtrack/expiry-cli/internal/export"
	"github.com/freshtrack/expiry-cli/internal/model"
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Manage the product catalog",
}

// -- products add --

var (
	productName      string
	productShelfDays int
	productReturn    int
)

var productsAddCmd = &cobra.Command{
	Use:   "add <barcode>",
	Short: "Add or update a catalog entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		p, err := st.UpsertProduct(ctx, model.Product{
			Barcode:       args[0],
			Name:          productName,
			ShelfLifeDays: productShelfDays,
			ReturnDays:    productReturn,
		})
		if err != nil {
			return err
		}

		fmt.Printf("saved %s (%s, shelf life %d days)\n", p.Barcode, p.Name, p.ShelfLifeDays)
		return nil
	},
}

// -- products list --

var productsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog entries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		products, err := st.ListProducts(ctx)
		if err != nil {
			return err
		}
		if len(products) == 0 {
			fmt.Fprintln(os.Stderr, "No products in catalog.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "BARCODE\tNAME\tSHELF LIFE\tRETURN WINDOW")
		for _, p := range products {
			fmt.Fprintf(w, "%s\t%s\t%dd\t%dd\n", p.Barcode, p.Name, p.ShelfLifeDays, p.ReturnDays)
		}
		return w.Flush()
	},
}

// -- products import --

var productsImportCmd = &cobra.Command{
	Use:   "import <catalog.xlsx>",
	Short: "Bulk-import catalog entries from an XLSX workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		products, err := export.ReadProductCatalog(args[0])
		if err != nil {
			return err
		}
		if len(products) == 0 {
			fmt.Fprintln(os.Stderr, "No products found in workbook.")
			return nil
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		for _, p := range products {
			if _, err := st.UpsertProduct(ctx, p); err != nil {
				return err
			}
		}
		fmt.Printf("imported %d product(s)\n", len(products))
		return nil
	},
}

// -- products rm --

var productsRmCmd = &cobra.Command{
	Use:   "rm <barcode>",
	Short: "Remove a catalog entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.DeleteProduct(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("removed %s\n", args[0])
		return nil
	},
}

func init() {
	productsAddCmd.Flags().StringVar(&productName, "name", "", "product name")
	productsAddCmd.Flags().IntVar(&productShelfDays, "shelf-life", 180, "shelf life in days")
	productsAddCmd.Flags().IntVar(&productReturn, "return-days", 0, "return window in days")

	productsCmd.AddCommand(productsAddCmd, productsListCmd, productsImportCmd, productsRmCmd)
	rootCmd.AddCommand(productsCmd)
}
