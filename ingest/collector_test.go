package ingest

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viktsys/cryptostock/config"
	"github.com/viktsys/cryptostock/database"
	"github.com/viktsys/cryptostock/models"
)

type fakeCrypto struct {
	quotes map[string][]models.CryptoQuote
	err    map[string]error
	calls  int
}

func (f *fakeCrypto) MarketChart(_ context.Context, coinID string, _ int) ([]models.CryptoQuote, error) {
	f.calls++
	if err := f.err[coinID]; err != nil {
		return nil, err
	}
	return f.quotes[coinID], nil
}

type fakeStocks struct {
	quotes map[string][]models.StockQuote
	err    map[string]error
	calls  int
}

func (f *fakeStocks) DailySeries(_ context.Context, symbol string) ([]models.StockQuote, error) {
	f.calls++
	if err := f.err[symbol]; err != nil {
		return nil, err
	}
	return f.quotes[symbol], nil
}

var (
	btc = config.CryptoSymbol{Symbol: "BTC", CoinGeckoID: "bitcoin", Name: "Bitcoin"}
	eth = config.CryptoSymbol{Symbol: "ETH", CoinGeckoID: "ethereum", Name: "Ethereum"}
	sol = config.CryptoSymbol{Symbol: "SOL", CoinGeckoID: "solana", Name: "Solana"}
)

func newStore(t *testing.T) *database.Store {
	t.Helper()
	db, err := database.Open(config.Database{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "ingest.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.Migrate(db))
	return database.NewStore(db)
}

func seed(t *testing.T, s *database.Store, market models.Market, tickers ...string) {
	t.Helper()
	for _, tk := range tickers {
		_, err := s.ResolveOrCreateSymbol(context.Background(), market, tk, tk)
		require.NoError(t, err)
	}
}

// days returns n consecutive daily quotes starting 2024-01-01.
func days(n int) []models.CryptoQuote {
	out := make([]models.CryptoQuote, n)
	for i := range out {
		d, _ := models.EncodeDate(dateAt(i))
		out[i] = models.CryptoQuote{Date: d, PriceUSD: 100 + float64(i)}
	}
	return out
}

func bars(n int) []models.StockQuote {
	out := make([]models.StockQuote, n)
	for i := range out {
		d, _ := models.EncodeDate(dateAt(i))
		out[i] = models.StockQuote{Date: d, Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 1000}
	}
	return out
}

func dateAt(i int) string {
	t, _ := models.DateToTime(20240101)
	return t.AddDate(0, 0, i).Format(models.DateLayout)
}

func count(t *testing.T, s *database.Store, market models.Market, ticker string) int64 {
	t.Helper()
	ctx := context.Background()
	id, found, err := s.SymbolID(ctx, market, ticker)
	require.NoError(t, err)
	require.True(t, found)
	n, err := s.RowCount(ctx, market, id)
	require.NoError(t, err)
	return n
}

func opts() Options {
	return Options{MaxRowsPerRun: 25, TargetRows: 100, CryptoDays: 180}
}

func TestCollectorRespectsCapPerSymbol(t *testing.T) {
	store := newStore(t)
	seed(t, store, models.MarketCrypto, "BTC", "ETH")
	src := &fakeCrypto{quotes: map[string][]models.CryptoQuote{"bitcoin": days(180), "ethereum": days(60)}}

	c := NewCollector(store, src, nil, opts(), zerolog.Nop(), nil)
	sum, err := c.CollectCrypto(context.Background(), []config.CryptoSymbol{btc, eth})
	require.NoError(t, err)

	require.Len(t, sum.Symbols, 2)
	assert.Equal(t, 25, sum.Symbols[0].Inserted)
	assert.Equal(t, 25, sum.Symbols[1].Inserted)
	assert.Equal(t, 50, sum.Inserted)
	assert.EqualValues(t, 25, count(t, store, models.MarketCrypto, "BTC"))
	assert.EqualValues(t, 25, count(t, store, models.MarketCrypto, "ETH"))
}

func TestRepeatedRunsNeverDuplicateAndEventuallyCoverWindow(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	seed(t, store, models.MarketCrypto, "BTC")
	src := &fakeCrypto{quotes: map[string][]models.CryptoQuote{"bitcoin": days(60)}}
	c := NewCollector(store, src, nil, opts(), zerolog.Nop(), nil)

	var inserted []int
	for run := 0; run < 4; run++ {
		sum, err := c.CollectCrypto(ctx, []config.CryptoSymbol{btc})
		require.NoError(t, err)
		inserted = append(inserted, sum.Inserted)
	}
	assert.Equal(t, []int{25, 25, 10, 0}, inserted)
	assert.EqualValues(t, 60, count(t, store, models.MarketCrypto, "BTC"))

	rows, err := store.CryptoPricesWithSymbols(ctx)
	require.NoError(t, err)
	seen := map[int]bool{}
	for i, r := range rows {
		assert.False(t, seen[r.Date], "duplicate date %d", r.Date)
		seen[r.Date] = true
		// oldest-first insertion
		assert.Equal(t, days(60)[i].Date, r.Date)
	}
}

func TestTargetRowsStopsFetching(t *testing.T) {
	store := newStore(t)
	seed(t, store, models.MarketStock, "NVDA")
	src := &fakeStocks{quotes: map[string][]models.StockQuote{"NVDA": bars(100)}}
	o := opts()
	o.TargetRows = 30
	c := NewCollector(store, nil, src, o, zerolog.Nop(), nil)
	assets := []config.StockSymbol{{Symbol: "NVDA", Name: "NVIDIA Corporation"}}

	sum, err := c.CollectStocks(context.Background(), assets)
	require.NoError(t, err)
	assert.Equal(t, 25, sum.Inserted)

	sum, err = c.CollectStocks(context.Background(), assets)
	require.NoError(t, err)
	assert.Equal(t, 5, sum.Inserted)

	sum, err = c.CollectStocks(context.Background(), assets)
	require.NoError(t, err)
	assert.Zero(t, sum.Inserted)
	assert.Equal(t, StatusTargetReached, sum.Symbols[0].Status)
	assert.Equal(t, 2, src.calls, "no fetch once the target is reached")
	assert.EqualValues(t, 30, count(t, store, models.MarketStock, "NVDA"))
}

func TestSharedQuotaSpansSymbols(t *testing.T) {
	store := newStore(t)
	seed(t, store, models.MarketCrypto, "BTC", "ETH", "SOL")
	src := &fakeCrypto{quotes: map[string][]models.CryptoQuote{
		"bitcoin":  days(10),
		"ethereum": days(40),
		"solana":   days(40),
	}}
	o := opts()
	o.SharedQuota = true
	c := NewCollector(store, src, nil, o, zerolog.Nop(), nil)

	sum, err := c.CollectCrypto(context.Background(), []config.CryptoSymbol{btc, eth, sol})
	require.NoError(t, err)
	assert.Equal(t, 25, sum.Inserted)
	assert.Equal(t, 10, sum.Symbols[0].Inserted)
	assert.Equal(t, 15, sum.Symbols[1].Inserted)
	assert.Equal(t, StatusQuotaExhausted, sum.Symbols[2].Status)
	assert.Equal(t, 2, src.calls)
}

func TestMalformedObservationsAreSkipped(t *testing.T) {
	store := newStore(t)
	seed(t, store, models.MarketStock, "AMD")
	series := bars(5)
	series[1].Close = math.NaN()
	series[3].Date = 20240231
	src := &fakeStocks{quotes: map[string][]models.StockQuote{"AMD": series}}
	c := NewCollector(store, nil, src, opts(), zerolog.Nop(), nil)

	sum, err := c.CollectStocks(context.Background(), []config.StockSymbol{{Symbol: "AMD", Name: "AMD"}})
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Inserted)
	assert.Equal(t, 2, sum.Symbols[0].Invalid)
	assert.EqualValues(t, 3, count(t, store, models.MarketStock, "AMD"))
}

func TestProviderFailureAbortsBatchKeepingEarlierRows(t *testing.T) {
	store := newStore(t)
	seed(t, store, models.MarketCrypto, "BTC", "ETH", "SOL")
	boom := errors.New("connection reset")
	src := &fakeCrypto{
		quotes: map[string][]models.CryptoQuote{"bitcoin": days(5), "solana": days(5)},
		err:    map[string]error{"ethereum": boom},
	}
	c := NewCollector(store, src, nil, opts(), zerolog.Nop(), nil)

	sum, err := c.CollectCrypto(context.Background(), []config.CryptoSymbol{btc, eth, sol})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 5, sum.Inserted)
	require.Len(t, sum.Symbols, 2)
	assert.Equal(t, StatusFailed, sum.Symbols[1].Status)
	assert.EqualValues(t, 5, count(t, store, models.MarketCrypto, "BTC"))
	assert.EqualValues(t, 0, count(t, store, models.MarketCrypto, "SOL"))
	assert.Equal(t, 2, src.calls)
}

func TestUnseededSymbolIsSkipped(t *testing.T) {
	store := newStore(t)
	seed(t, store, models.MarketCrypto, "ETH")
	src := &fakeCrypto{quotes: map[string][]models.CryptoQuote{"bitcoin": days(3), "ethereum": days(3)}}
	c := NewCollector(store, src, nil, opts(), zerolog.Nop(), nil)

	sum, err := c.CollectCrypto(context.Background(), []config.CryptoSymbol{btc, eth})
	require.NoError(t, err)
	assert.Equal(t, StatusNotSeeded, sum.Symbols[0].Status)
	assert.Equal(t, 3, sum.Inserted)
	assert.Equal(t, 1, src.calls)
}

func TestPartialWindowIsAccepted(t *testing.T) {
	store := newStore(t)
	seed(t, store, models.MarketCrypto, "SOL")
	src := &fakeCrypto{quotes: map[string][]models.CryptoQuote{"solana": days(2)}}
	c := NewCollector(store, src, nil, opts(), zerolog.Nop(), nil)

	s, err := c.CollectCryptoSymbol(context.Background(), sol, 25)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Fetched)
	assert.Equal(t, 2, s.Inserted)
	assert.EqualValues(t, 2, s.Total)
	assert.Equal(t, StatusCollected, s.Status)
}

func TestInsertBoundedSkipsExistingBeforeCounting(t *testing.T) {
	stored := map[int]bool{1: true, 3: true}
	var written []int
	inserted, skipped, err := insertBounded(context.Background(), []int{1, 2, 3, 4, 5, 6}, 2,
		func(d int) int { return d },
		func(_ context.Context, d int) (bool, error) { return stored[d], nil },
		func(_ context.Context, d int) (bool, error) {
			written = append(written, d)
			return true, nil
		},
	)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)
	assert.Equal(t, 2, skipped)
	assert.Equal(t, []int{2, 4}, written)
}

func TestInsertBoundedConflictCountsAsSkip(t *testing.T) {
	inserted, skipped, err := insertBounded(context.Background(), []int{1, 2}, 5,
		func(d int) int { return d },
		func(context.Context, int) (bool, error) { return false, nil },
		func(_ context.Context, d int) (bool, error) { return d == 2, nil },
	)
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.Equal(t, 1, skipped)
}
