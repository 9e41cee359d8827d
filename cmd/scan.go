package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/freshtrack/expiry-cli/internal/expiry"
	"github.com/freshtrack/expiry-cli/internal/model"
	"github.com/freshtrack/expiry-cli/internal/ocr"
	"github.com/freshtrack/expiry-cli/internal/recognize"
)

var (
	scanBarcode string
	scanNoSave  bool
	scanWorkers int
)

var scanCmd = &cobra.Command{
	Use:   "scan <image>...",
	Short: "Recognize dates on packaging photos and record the scans",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		extractor, err := ocr.NewExtractor(cfg.OCR)
		if err != nil {
			return err
		}
		rec, err := newRecognizer()
		if err != nil {
			return err
		}

		// The catalog entry supplies the shelf-life fallback for labels
		// that carry a production date but no duration or expiry text.
		var product *model.Product
		if scanBarcode != "" {
			product, err = st.GetProduct(ctx, scanBarcode)
			if err != nil {
				return err
			}
			if product == nil {
				zap.L().Warn("barcode not in catalog, using default shelf life",
					zap.String("barcode", scanBarcode))
			}
		}

		scans := processImages(ctx, extractor, rec, product, args)
		if len(scans) == 0 {
			return eris.Errorf("no dates recognized in %d image(s)", len(args))
		}

		if !scanNoSave {
			if _, err := st.RecordScans(ctx, scans); err != nil {
				return err
			}
		}

		printScans(scans)
		return nil
	},
}

// processImages runs OCR and recognition over the images concurrently.
// Images that yield no date are logged and skipped, not fatal.
func processImages(ctx context.Context, extractor ocr.Extractor, rec *recognize.Recognizer, product *model.Product, images []string) []model.Scan {
	var (
		mu    sync.Mutex
		scans []model.Scan
	)

	workers := scanWorkers
	if workers < 1 {
		workers = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, image := range images {
		image := image
		g.Go(func() error {
			fragments, err := extractor.ExtractFragments(ctx, image)
			if err != nil {
				zap.L().Warn("ocr failed", zap.String("image", image), zap.Error(err))
				return nil
			}

			result, err := rec.Recognize(fragments)
			if err != nil {
				if errors.Is(err, recognize.ErrNoText) || errors.Is(err, recognize.ErrNoDate) {
					zap.L().Warn("no date recognized", zap.String("image", image), zap.Error(err))
					return nil
				}
				return err
			}

			scan := buildScan(result, product)
			mu.Lock()
			scans = append(scans, scan)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		zap.L().Error("scan batch aborted", zap.Error(err))
	}
	return scans
}

// buildScan converts a recognition result into a scan record, substituting
// the catalog shelf life when the label itself gave no duration or expiry.
func buildScan(result *recognize.Result, product *model.Product) model.Scan {
	exp := result.Expiry
	barcode := ""
	if product != nil {
		barcode = product.Barcode
		labelHasDuration := !result.ExplicitExpiry.IsZero() ||
			result.ShelfLifeMonths > 0 || result.ShelfLifeDays > 0
		if !labelHasDuration && !result.Production.IsZero() && product.ShelfLifeDays > 0 {
			exp = expiry.Compute(expiry.Input{
				Production:    result.Production,
				ShelfLifeDays: product.ShelfLifeDays,
			}, model.Today())
		}
	} else if scanBarcode != "" {
		barcode = scanBarcode
	}

	return model.Scan{
		Barcode:        barcode,
		ProductionDate: result.Production,
		ExpiryDate:     exp.ExpiryDate,
		DaysRemaining:  exp.DaysRemaining,
		Confidence:     result.Confidence,
		Engine:         result.Engine,
	}
}

func printScans(scans []model.Scan) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRODUCTION\tEXPIRY\tDAYS LEFT\tCONFIDENCE\tENGINE")
	for _, sc := range scans {
		production := "-"
		if !sc.ProductionDate.IsZero() {
			production = sc.ProductionDate.String()
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%s\n",
			production, sc.ExpiryDate, sc.DaysRemaining, sc.Confidence, sc.Engine)
	}
	w.Flush() //nolint:errcheck
}

func init() {
	scanCmd.Flags().StringVar(&scanBarcode, "barcode", "", "product barcode to attach to the scans")
	scanCmd.Flags().BoolVar(&scanNoSave, "no-save", false, "recognize only, do not record scans")
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 4, "concurrent image workers")
	rootCmd.AddCommand(scanCmd)
}
