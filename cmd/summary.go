package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/viktsys/cryptostock/database"
	"github.com/viktsys/cryptostock/models"
	"gorm.io/gorm"
)

const sampleRows = 5

var summaryCMD = &cobra.Command{
	Use:   "summary",
	Short: "Show table sizes, seeded symbols and sample joined rows",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(_ *gorm.DB, store *database.Store) error {
			return writeSummary(cmd.Context(), cmd.OutOrStdout(), store)
		})
	},
}

func writeSummary(ctx context.Context, out io.Writer, store *database.Store) error {
	counts, err := store.TableCounts(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "ROW COUNTS:")
	for _, c := range counts {
		fmt.Fprintf(out, "  %-14s %d rows\n", c.Table+":", c.Rows)
	}

	for _, m := range []models.Market{models.MarketCrypto, models.MarketStock} {
		symbols, err := store.Symbols(ctx, m)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%s_SYMBOL TABLE:\n", strings.ToUpper(string(m)))
		for _, s := range symbols {
			fmt.Fprintf(out, "  ID %d: %s (%s)\n", s.ID, s.Symbol, s.Name)
		}
	}

	crypto, err := store.CryptoPricesWithSymbols(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "\nSAMPLE CRYPTO_PRICE DATA (joined):")
	for i := 0; i < len(crypto) && i < sampleRows; i++ {
		r := crypto[i]
		fmt.Fprintf(out, "  %s: $%.2f on %s\n", r.Symbol, r.PriceUSD, models.FormatDate(r.Date))
	}

	stock, err := store.StockPricesWithSymbols(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "\nSAMPLE STOCK_PRICE DATA (joined):")
	for i := 0; i < len(stock) && i < sampleRows; i++ {
		r := stock[i]
		fmt.Fprintf(out, "  %s: $%.2f on %s\n", r.Symbol, r.Close, models.FormatDate(r.Date))
	}
	return nil
}
