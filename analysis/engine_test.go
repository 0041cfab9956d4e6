package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viktsys/cryptostock/models"
)

type fakeSource struct {
	crypto []models.CryptoPriceRow
	stock  []models.StockPriceRow
	err    error
}

func (f fakeSource) CryptoPricesWithSymbols(context.Context) ([]models.CryptoPriceRow, error) {
	return f.crypto, f.err
}

func (f fakeSource) StockPricesWithSymbols(context.Context) ([]models.StockPriceRow, error) {
	return f.stock, f.err
}

func cryptoRows(symbol string, prices ...float64) []models.CryptoPriceRow {
	out := make([]models.CryptoPriceRow, len(prices))
	for i, p := range prices {
		out[i] = models.CryptoPriceRow{Date: 20240101 + i, Symbol: symbol, Name: symbol, PriceUSD: p}
	}
	return out
}

func stockRows(symbol string, closes ...float64) []models.StockPriceRow {
	out := make([]models.StockPriceRow, len(closes))
	for i, c := range closes {
		out[i] = models.StockPriceRow{Date: 20240101 + i, Symbol: symbol, Name: symbol, Open: c, High: c * 1.02, Low: c * 0.98, Close: c}
	}
	return out
}

func fixture() fakeSource {
	var crypto []models.CryptoPriceRow
	crypto = append(crypto, cryptoRows("BTC", 100, 102, 101, 105, 110, 108, 107, 115, 113)...)
	crypto = append(crypto, cryptoRows("ETH", 10, 10, 10, 10, 10, 10, 10, 10, 10)...)

	var stock []models.StockPriceRow
	stock = append(stock, stockRows("AMD", 50, 51, 50.5, 52.5, 55, 54, 53.5, 57.5, 56.5)...)
	stock = append(stock, stockRows("NVDA", 200, 196, 198, 190, 180, 184, 186, 170, 174)...)
	return fakeSource{crypto: crypto, stock: stock}
}

func TestEngineRun(t *testing.T) {
	e := NewEngine(fixture(), Options{MomentumWindow: 7, TopN: 5}, zerolog.Nop())
	res, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"BTC", "ETH"}, res.Symbols(MetricMomentum, models.MarketCrypto))
	assert.Equal(t, []string{"AMD", "NVDA"}, res.Symbols(MetricAvgVolatility, models.MarketStock))
	assert.Len(t, res.Pairs, 4)

	m := res.SeriesOf(MetricMomentum, "BTC")
	require.Len(t, m, 2)
	assert.InDelta(t, 15.0, m[0].Value, 1e-9)

	for _, p := range res.SeriesOf(MetricMomentum, "ETH") {
		assert.Zero(t, p.Value)
	}

	// BTC returns mirror AMD exactly (AMD is BTC halved)
	assert.InDelta(t, 1.0, res.Correlation("BTC", "AMD"), 1e-9)
	assert.Less(t, res.Correlation("BTC", "NVDA"), 0.0)
	assert.True(t, math.IsNaN(res.Correlation("ETH", "AMD")), "constant ETH has no correlation")

	vol, ok := res.Scalar(MetricAvgVolatility, "NVDA")
	require.True(t, ok)
	assert.InDelta(t, 4.0, vol, 1e-9)

	assert.Equal(t, 9, len(res.SeriesOf(MetricNormalized, "AMD")))
	assert.Equal(t, 100.0, res.SeriesOf(MetricNormalized, "AMD")[0].Value)
	assert.Len(t, res.SeriesOf(MetricReturns, "BTC"), 8)
}

func TestEngineInsufficientData(t *testing.T) {
	src := fixture()
	src.stock = nil
	_, err := NewEngine(src, Options{}, zerolog.Nop()).Run(context.Background())
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = NewEngine(fakeSource{}, Options{}, zerolog.Nop()).Run(context.Background())
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestEngineSourceError(t *testing.T) {
	boom := errors.New("database is locked")
	_, err := NewEngine(fakeSource{err: boom}, Options{}, zerolog.Nop()).Run(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestWriteReport(t *testing.T) {
	res, err := NewEngine(fixture(), Options{MomentumWindow: 7, TopN: 5}, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, res))
	out := buf.String()

	assert.Contains(t, out, "CROSS-MARKET CORRELATIONS")
	assert.Contains(t, out, fmt.Sprintf("  %-20s: %7s\n", "BTC-AMD", "1.0000"))
	assert.Contains(t, out, fmt.Sprintf("  %-20s: %7s\n", "ETH-NVDA", "n/a"))
	assert.Contains(t, out, "TOP 5 MOMENTUM DAYS (7-Day Price Change)")
	assert.Contains(t, out, "    2024-01-08:  +15.00%")
	assert.Contains(t, out, "  NVDA :   4.00% average daily volatility")

	// pairs are listed alphabetically
	assert.Less(t, strings.Index(out, "BTC-AMD"), strings.Index(out, "BTC-NVDA"))
	assert.Less(t, strings.Index(out, "BTC-NVDA"), strings.Index(out, "ETH-AMD"))
}

func TestWriteReportFile(t *testing.T) {
	res, err := NewEngine(fixture(), Options{}, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "output", "analysis_results.txt")
	require.NoError(t, WriteReportFile(path, res))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), strings.Repeat("=", 70)))
}
