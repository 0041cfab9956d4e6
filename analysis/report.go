package analysis

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/viktsys/cryptostock/models"
)

const reportWidth = 70

// WriteReport renders res as the plain text analysis report.
func WriteReport(w io.Writer, res *Result) error {
	// bufio.Writer keeps the first write error, Flush reports it
	b := bufio.NewWriter(w)
	rule := strings.Repeat("=", reportWidth)
	thin := strings.Repeat("-", reportWidth)

	fmt.Fprintln(b, rule)
	fmt.Fprintln(b, "CRYPTOCURRENCY & TECH STOCK ANALYSIS RESULTS")
	fmt.Fprintf(b, "%s\n\n", rule)

	fmt.Fprintln(b, "CROSS-MARKET CORRELATIONS")
	fmt.Fprintln(b, thin)
	fmt.Fprintf(b, "Correlation between cryptocurrency and stock daily returns:\n\n")

	keys := make([]string, 0, len(res.Pairs))
	for _, p := range res.Pairs {
		keys = append(keys, p.Key())
	}
	sort.Strings(keys)
	for _, k := range keys {
		v, _ := res.Scalar(MetricCorrelation, k)
		if math.IsNaN(v) {
			fmt.Fprintf(b, "  %-20s: %7s\n", k, "n/a")
			continue
		}
		fmt.Fprintf(b, "  %-20s: %7.4f\n", k, v)
	}

	fmt.Fprintln(b, "\nInterpretation:")
	fmt.Fprintln(b, "  1.0 = Perfect positive correlation")
	fmt.Fprintln(b, "  0.0 = No correlation")
	fmt.Fprintln(b, " -1.0 = Perfect negative correlation")
	fmt.Fprintln(b, "  n/a = Not enough overlapping days or a constant series")

	fmt.Fprintf(b, "\n%s\n", rule)
	fmt.Fprintln(b, "AVERAGE VOLATILITY RANKINGS")
	fmt.Fprintf(b, "%s\n\n", thin)
	fmt.Fprintln(b, "Cryptocurrencies:")
	writeVolatility(b, res, models.MarketCrypto)
	fmt.Fprintln(b, "\nStocks:")
	writeVolatility(b, res, models.MarketStock)

	fmt.Fprintf(b, "\n%s\n", rule)
	fmt.Fprintf(b, "TOP %d MOMENTUM DAYS (%d-Day Price Change)\n", res.TopN, res.MomentumWindow)
	fmt.Fprintf(b, "%s\n\n", thin)
	fmt.Fprintln(b, "Cryptocurrencies:")
	writeMomentum(b, res, models.MarketCrypto)
	fmt.Fprintln(b, "\nStocks:")
	writeMomentum(b, res, models.MarketStock)

	fmt.Fprintf(b, "\n%s\n", rule)
	fmt.Fprintf(b, "Analysis complete. %d crypto and %d stock rows read from the database.\n", res.CryptoRows, res.StockRows)
	fmt.Fprintln(b, rule)

	return b.Flush()
}

func writeVolatility(w io.Writer, res *Result, market models.Market) {
	type entry struct {
		symbol string
		vol    float64
	}
	var entries []entry
	for _, sym := range res.Symbols(MetricAvgVolatility, market) {
		v, _ := res.Scalar(MetricAvgVolatility, sym)
		entries = append(entries, entry{symbol: sym, vol: v})
	}
	// highest first, undefined last
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].vol, entries[j].vol
		if math.IsNaN(b) {
			return !math.IsNaN(a)
		}
		return a > b
	})
	for _, e := range entries {
		if math.IsNaN(e.vol) {
			fmt.Fprintf(w, "  %-5s: %6s  average daily volatility\n", e.symbol, "n/a")
			continue
		}
		fmt.Fprintf(w, "  %-5s: %6.2f%% average daily volatility\n", e.symbol, e.vol)
	}
}

func writeMomentum(w io.Writer, res *Result, market models.Market) {
	for _, sym := range res.Symbols(MetricTopMomentum, market) {
		fmt.Fprintf(w, "\n  %s:\n", sym)
		top := res.SeriesOf(MetricTopMomentum, sym)
		if len(top) == 0 {
			fmt.Fprintf(w, "    fewer than %d rows, no momentum yet\n", res.MomentumWindow+1)
			continue
		}
		for _, p := range top {
			fmt.Fprintf(w, "    %s: %+7.2f%%\n", models.FormatDate(p.Date), p.Value)
		}
	}
}

// WriteReportFile writes the report to path, creating its directory.
func WriteReportFile(path string, res *Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := WriteReport(f, res); err != nil {
		f.Close()
		return fmt.Errorf("write report: %w", err)
	}
	return f.Close()
}
