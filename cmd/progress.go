package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/viktsys/cryptostock/database"
	"github.com/viktsys/cryptostock/models"
	"gorm.io/gorm"
)

var progressCMD = &cobra.Command{
	Use:   "progress",
	Short: "Show stored rows per symbol against the target",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(_ *gorm.DB, store *database.Store) error {
			_, err := writeProgress(cmd.Context(), cmd.OutOrStdout(), store)
			return err
		})
	},
}

type symbolProgress struct {
	symbol string
	seeded bool
	rows   int64
	last   int
}

// writeProgress prints per-symbol row counts and reports whether every
// configured symbol has reached collector.target_rows.
func writeProgress(ctx context.Context, out io.Writer, store *database.Store) (bool, error) {
	target := int64(cfg.Collector.TargetRows)

	crypto := make([]string, len(cfg.CryptoAssets))
	for i, a := range cfg.CryptoAssets {
		crypto[i] = a.Symbol
	}
	stock := make([]string, len(cfg.StockAssets))
	for i, a := range cfg.StockAssets {
		stock[i] = a.Symbol
	}

	var total int64
	ready := map[models.Market]bool{}
	for _, sec := range []struct {
		title   string
		market  models.Market
		symbols []string
	}{
		{"CRYPTOCURRENCY DATA", models.MarketCrypto, crypto},
		{"STOCK DATA", models.MarketStock, stock},
	} {
		rows, err := progressOf(ctx, store, sec.market, sec.symbols)
		if err != nil {
			return false, err
		}

		fmt.Fprintf(out, "%s:\n", sec.title)
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		ready[sec.market] = true
		for _, p := range rows {
			if !p.seeded {
				fmt.Fprintf(tw, "  %s:\tNOT INITIALIZED\t\n", p.symbol)
				ready[sec.market] = false
				continue
			}
			total += p.rows
			status := "DONE"
			if p.rows < target {
				status = fmt.Sprintf("need %d more", target-p.rows)
				ready[sec.market] = false
			}
			latest := "-"
			if p.last != 0 {
				latest = "latest " + models.FormatDate(p.last)
			}
			fmt.Fprintf(tw, "  %s:\t%d rows\t%s\t[%s]\n", p.symbol, p.rows, latest, status)
		}
		tw.Flush()
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "TOTAL: %d rows collected\n", total)
	fmt.Fprintf(out, "Target: %d+ rows for each cryptocurrency and stock\n", target)

	done := ready[models.MarketCrypto] && ready[models.MarketStock]
	switch {
	case done:
		fmt.Fprintln(out, "All data collection complete, ready for analysis.")
	case !ready[models.MarketCrypto]:
		fmt.Fprintln(out, "Need more crypto data, run `collect crypto` again.")
	default:
		fmt.Fprintln(out, "Need more stock data, run `collect stock` again.")
	}
	return done, nil
}

func progressOf(ctx context.Context, store *database.Store, market models.Market, symbols []string) ([]symbolProgress, error) {
	out := make([]symbolProgress, 0, len(symbols))
	for _, sym := range symbols {
		p := symbolProgress{symbol: sym}
		id, found, err := store.SymbolID(ctx, market, sym)
		if err != nil {
			return nil, err
		}
		if found {
			p.seeded = true
			if p.rows, err = store.RowCount(ctx, market, id); err != nil {
				return nil, err
			}
			if p.last, _, err = store.LastDate(ctx, market, id); err != nil {
				return nil, err
			}
		}
		out = append(out, p)
	}
	return out, nil
}
