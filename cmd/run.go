package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/viktsys/cryptostock/database"
	"github.com/viktsys/cryptostock/models"
	"gorm.io/gorm"
)

var rounds int

var runCMD = &cobra.Command{
	Use:   "run",
	Short: "Initialize, collect several rounds, analyze and chart",
	Long: `Run every step in order: init, the given number of collection rounds per
market, progress, analyze and chart. Collection is rate limited, so several
rounds take minutes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if rounds < 1 {
			return fmt.Errorf("--rounds must be at least 1, got %d", rounds)
		}
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		return withStore(func(db *gorm.DB, store *database.Store) (err error) {
			if err := initialize(ctx, db, store); err != nil {
				return err
			}

			s := newCollectSession(store)
			defer func() { err = errors.Join(err, s.flushMetrics()) }()

			for _, m := range []models.Market{models.MarketCrypto, models.MarketStock} {
				for i := 1; i <= rounds; i++ {
					log.Info().Str("market", string(m)).Int("round", i).Int("rounds", rounds).Msg("collection round")
					if err := s.collect(ctx, out, m); err != nil {
						return err
					}
				}
			}

			fmt.Fprintln(out)
			if _, err := writeProgress(ctx, out, store); err != nil {
				return err
			}

			res, err := analyze(ctx, store)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\nResults written to %s\n", cfg.Output.ResultsFile())
			return renderCharts(ctx, out, res)
		})
	},
}

func init() {
	runCMD.Flags().IntVar(&rounds, "rounds", 5, "collection rounds per market")
	runCMD.Flags().BoolVar(&withPDF, "pdf", false, "also bundle the report and charts into a PDF")
}
