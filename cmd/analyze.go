package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/viktsys/cryptostock/analysis"
	"github.com/viktsys/cryptostock/database"
	"gorm.io/gorm"
)

var analyzeCMD = &cobra.Command{
	Use:   "analyze",
	Short: "Compute statistics and write the text report",
	Long:  `Read every stored price through the joined views, compute returns, volatility, momentum and cross-market correlations, and write the report to output/analysis_results.txt.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(_ *gorm.DB, store *database.Store) error {
			if _, err := analyze(cmd.Context(), store); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Results written to %s\n", cfg.Output.ResultsFile())
			return nil
		})
	},
}

func runEngine(ctx context.Context, store *database.Store) (*analysis.Result, error) {
	res, err := analysis.NewEngine(store, analysis.OptionsFromConfig(cfg.Analysis), log).Run(ctx)
	if errors.Is(err, analysis.ErrInsufficientData) {
		return nil, fmt.Errorf("%w: run init and collect first", err)
	}
	return res, err
}

// analyze runs the engine and writes the report file.
func analyze(ctx context.Context, store *database.Store) (*analysis.Result, error) {
	res, err := runEngine(ctx, store)
	if err != nil {
		return nil, err
	}
	if err := analysis.WriteReportFile(cfg.Output.ResultsFile(), res); err != nil {
		return nil, err
	}
	log.Info().Str("path", cfg.Output.ResultsFile()).Msg("report written")
	return res, nil
}
