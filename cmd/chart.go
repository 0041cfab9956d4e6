package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/viktsys/cryptostock/analysis"
	"github.com/viktsys/cryptostock/chart"
	"github.com/viktsys/cryptostock/database"
	"gorm.io/gorm"
)

var withPDF bool

var chartCMD = &cobra.Command{
	Use:   "chart",
	Short: "Render the price movement chart and correlation heatmap",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(_ *gorm.DB, store *database.Store) error {
			res, err := runEngine(cmd.Context(), store)
			if err != nil {
				return err
			}
			return renderCharts(cmd.Context(), cmd.OutOrStdout(), res)
		})
	},
}

func init() {
	chartCMD.Flags().BoolVar(&withPDF, "pdf", false, "also bundle the report and charts into a PDF")
}

func renderCharts(ctx context.Context, out io.Writer, res *analysis.Result) error {
	r := chart.NewRenderer(cfg.Output.VisualizationsDir(), log)

	price, err := r.PriceMovement(res)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved %s\n", price)

	if err := ctx.Err(); err != nil {
		return err
	}

	heat, err := r.CorrelationHeatmap(res)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved %s\n", heat)

	if !withPDF {
		return nil
	}
	var report bytes.Buffer
	if err := analysis.WriteReport(&report, res); err != nil {
		return err
	}
	path := filepath.Join(cfg.Output.Dir, chart.BundleFile)
	if err := chart.Bundle(path, report.Bytes(), []string{price, heat}); err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved %s\n", path)
	return nil
}
