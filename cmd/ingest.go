package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/viktsys/cryptostock/database"
	"github.com/viktsys/cryptostock/ingest"
	"github.com/viktsys/cryptostock/metrics"
	"github.com/viktsys/cryptostock/models"
	"github.com/viktsys/cryptostock/provider"
	"gorm.io/gorm"
)

var errNoAPIKey = errors.New("alpha vantage api key not set, use alphavantage.api_key or ALPHA_VANTAGE_API_KEY")

var collectCMD = &cobra.Command{
	Use:   "collect",
	Short: "Collect a bounded batch of new price rows for both markets",
	Long:  `Fetch recent daily prices and insert only dates not yet stored, at most collector.max_rows_per_run rows per symbol. Run repeatedly to accumulate history.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCollect(cmd, models.MarketCrypto, models.MarketStock)
	},
}

var collectCryptoCMD = &cobra.Command{
	Use:   "crypto",
	Short: "Collect new daily prices from CoinGecko",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCollect(cmd, models.MarketCrypto)
	},
}

var collectStockCMD = &cobra.Command{
	Use:   "stock",
	Short: "Collect new daily bars from Alpha Vantage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCollect(cmd, models.MarketStock)
	},
}

func init() {
	collectCMD.AddCommand(collectCryptoCMD, collectStockCMD)
}

func runCollect(cmd *cobra.Command, markets ...models.Market) error {
	return withStore(func(_ *gorm.DB, store *database.Store) error {
		s := newCollectSession(store)
		err := s.collect(cmd.Context(), cmd.OutOrStdout(), markets...)
		return errors.Join(err, s.flushMetrics())
	})
}

// collectSession keeps one collector, and so one pair of rate limiters,
// across every batch of an invocation.
type collectSession struct {
	collector *ingest.Collector
	metrics   *metrics.Recorder
}

func newCollectSession(store *database.Store) *collectSession {
	s := &collectSession{}

	var rec ingest.Recorder
	if cfg.Metrics.Textfile != "" {
		s.metrics = metrics.New()
		rec = s.metrics
	}

	s.collector = ingest.NewCollector(
		store,
		provider.NewCoinGecko(cfg.CoinGecko, provider.WithLogger(log)),
		provider.NewAlphaVantage(cfg.AlphaVantage, provider.WithLogger(log)),
		ingest.OptionsFromConfig(cfg),
		log,
		rec,
	)
	return s
}

func (s *collectSession) collect(ctx context.Context, out io.Writer, markets ...models.Market) error {
	for _, m := range markets {
		var (
			sum *ingest.Summary
			err error
		)
		switch m {
		case models.MarketCrypto:
			sum, err = s.collector.CollectCrypto(ctx, cfg.CryptoAssets)
		case models.MarketStock:
			if cfg.AlphaVantage.APIKey == "" {
				return errNoAPIKey
			}
			sum, err = s.collector.CollectStocks(ctx, cfg.StockAssets)
		}
		if sum != nil {
			printSummary(out, sum)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *collectSession) flushMetrics() error {
	if s.metrics == nil {
		return nil
	}
	if err := s.metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		return err
	}
	log.Debug().Str("path", cfg.Metrics.Textfile).Msg("metrics written")
	return nil
}

func printSummary(out io.Writer, sum *ingest.Summary) {
	fmt.Fprintf(out, "\n%s collection: %d new rows\n", sum.Market, sum.Inserted)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  SYMBOL\tSTATUS\tEXISTING\tFETCHED\tINSERTED\tSKIPPED\tTOTAL")
	for _, s := range sum.Symbols {
		fmt.Fprintf(tw, "  %s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			s.Symbol, s.Status, s.Existing, s.Fetched, s.Inserted, s.Skipped, s.Total)
	}
	tw.Flush()
}
