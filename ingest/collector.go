package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/viktsys/cryptostock/config"
	"github.com/viktsys/cryptostock/database"
	"github.com/viktsys/cryptostock/models"
)

// ErrSymbolNotSeeded means the symbol has no row in its lookup table yet.
var ErrSymbolNotSeeded = errors.New("symbol not initialized, run init first")

// CryptoSource fetches daily crypto observations.
type CryptoSource interface {
	MarketChart(ctx context.Context, coinID string, days int) ([]models.CryptoQuote, error)
}

// StockSource fetches daily stock bars.
type StockSource interface {
	DailySeries(ctx context.Context, symbol string) ([]models.StockQuote, error)
}

// Recorder receives collection counters.
type Recorder interface {
	RecordInserted(market, symbol string, n int)
	RecordSkipped(market, symbol string, n int)
	RecordFetch(provider string, took time.Duration, err error)
	RecordSymbolRows(market, symbol string, rows int64)
}

type Options struct {
	MaxRowsPerRun int
	TargetRows    int
	SharedQuota   bool
	CryptoDays    int
}

// OptionsFromConfig maps the collector and provider settings onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MaxRowsPerRun: cfg.Collector.MaxRowsPerRun,
		TargetRows:    cfg.Collector.TargetRows,
		SharedQuota:   cfg.Collector.SharedQuota,
		CryptoDays:    cfg.CoinGecko.Days,
	}
}

const (
	StatusCollected      = "collected"
	StatusTargetReached  = "target reached"
	StatusNotSeeded      = "not seeded"
	StatusFailed         = "failed"
	StatusQuotaExhausted = "quota exhausted"
)

// SymbolSummary describes what one symbol's collection did.
type SymbolSummary struct {
	Symbol   string
	Status   string
	Existing int64
	Fetched  int
	Invalid  int
	Inserted int
	Skipped  int
	Total    int64
}

// Summary aggregates a batch over every configured symbol of one market.
type Summary struct {
	Market   models.Market
	Symbols  []SymbolSummary
	Inserted int
}

// Collector appends previously absent price rows, bounded per run.
type Collector struct {
	store   *database.Store
	crypto  CryptoSource
	stocks  StockSource
	metrics Recorder
	log     zerolog.Logger
	opts    Options
}

func NewCollector(store *database.Store, crypto CryptoSource, stocks StockSource, opts Options, log zerolog.Logger, rec Recorder) *Collector {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Collector{
		store:   store,
		crypto:  crypto,
		stocks:  stocks,
		metrics: rec,
		log:     log,
		opts:    opts,
	}
}

// CollectCrypto runs one batch over the given crypto assets.
func (c *Collector) CollectCrypto(ctx context.Context, assets []config.CryptoSymbol) (*Summary, error) {
	return c.batch(ctx, models.MarketCrypto, len(assets), func(ctx context.Context, i, limit int) (SymbolSummary, error) {
		return c.CollectCryptoSymbol(ctx, assets[i], limit)
	}, func(i int) string { return assets[i].Symbol })
}

// CollectStocks runs one batch over the given stock tickers.
func (c *Collector) CollectStocks(ctx context.Context, assets []config.StockSymbol) (*Summary, error) {
	return c.batch(ctx, models.MarketStock, len(assets), func(ctx context.Context, i, limit int) (SymbolSummary, error) {
		return c.CollectStockSymbol(ctx, assets[i].Symbol, limit)
	}, func(i int) string { return assets[i].Symbol })
}

func (c *Collector) batch(
	ctx context.Context,
	market models.Market,
	n int,
	collectOne func(ctx context.Context, i, limit int) (SymbolSummary, error),
	symbolAt func(i int) string,
) (*Summary, error) {
	sum := &Summary{Market: market}

	for i := 0; i < n; i++ {
		limit := c.opts.MaxRowsPerRun
		if c.opts.SharedQuota {
			limit -= sum.Inserted
			if limit <= 0 {
				c.log.Info().Str("market", string(market)).Str("symbol", symbolAt(i)).Msg("run quota exhausted, skipping")
				sum.Symbols = append(sum.Symbols, SymbolSummary{Symbol: symbolAt(i), Status: StatusQuotaExhausted})
				continue
			}
		}

		s, err := collectOne(ctx, i, limit)
		sum.Symbols = append(sum.Symbols, s)
		sum.Inserted += s.Inserted

		if errors.Is(err, ErrSymbolNotSeeded) {
			c.log.Warn().Str("market", string(market)).Str("symbol", s.Symbol).Msg("symbol not found in database, run init first")
			continue
		}
		if err != nil {
			return sum, fmt.Errorf("collect %s %s: %w", market, s.Symbol, err)
		}
	}

	c.log.Info().Str("market", string(market)).Int("inserted", sum.Inserted).Msg("collection batch complete")
	return sum, nil
}

// CollectCryptoSymbol collects at most limit new rows for one crypto asset.
func (c *Collector) CollectCryptoSymbol(ctx context.Context, asset config.CryptoSymbol, limit int) (SymbolSummary, error) {
	s := SymbolSummary{Symbol: asset.Symbol}
	market := models.MarketCrypto

	id, limit, err := c.prepare(ctx, market, &s, limit)
	if err != nil || limit <= 0 {
		return s, err
	}

	start := time.Now()
	quotes, err := c.crypto.MarketChart(ctx, asset.CoinGeckoID, c.opts.CryptoDays)
	c.metrics.RecordFetch("coingecko", time.Since(start), err)
	if err != nil {
		s.Status = StatusFailed
		return s, err
	}
	s.Fetched = len(quotes)

	valid := make([]models.CryptoQuote, 0, len(quotes))
	for _, q := range quotes {
		if err := validateCryptoQuote(q); err != nil {
			s.Invalid++
			c.log.Warn().Str("symbol", asset.Symbol).Int("date", q.Date).Err(err).Msg("skipping malformed observation")
			continue
		}
		valid = append(valid, q)
	}

	err = c.store.Transaction(ctx, func(tx *database.Store) error {
		var err error
		s.Inserted, s.Skipped, err = insertBounded(ctx, valid, limit,
			func(q models.CryptoQuote) int { return q.Date },
			func(ctx context.Context, date int) (bool, error) { return tx.RecordExists(ctx, market, id, date) },
			func(ctx context.Context, q models.CryptoQuote) (bool, error) {
				return tx.InsertCryptoPrice(ctx, toCryptoPrice(id, q))
			},
		)
		return err
	})
	return c.finish(ctx, market, id, s, err)
}

// CollectStockSymbol collects at most limit new rows for one stock ticker.
func (c *Collector) CollectStockSymbol(ctx context.Context, ticker string, limit int) (SymbolSummary, error) {
	s := SymbolSummary{Symbol: ticker}
	market := models.MarketStock

	id, limit, err := c.prepare(ctx, market, &s, limit)
	if err != nil || limit <= 0 {
		return s, err
	}

	start := time.Now()
	quotes, err := c.stocks.DailySeries(ctx, ticker)
	c.metrics.RecordFetch("alphavantage", time.Since(start), err)
	if err != nil {
		s.Status = StatusFailed
		return s, err
	}
	s.Fetched = len(quotes)

	valid := make([]models.StockQuote, 0, len(quotes))
	for _, q := range quotes {
		if err := validateStockQuote(q); err != nil {
			s.Invalid++
			c.log.Warn().Str("symbol", ticker).Int("date", q.Date).Err(err).Msg("skipping malformed observation")
			continue
		}
		valid = append(valid, q)
	}

	err = c.store.Transaction(ctx, func(tx *database.Store) error {
		var err error
		s.Inserted, s.Skipped, err = insertBounded(ctx, valid, limit,
			func(q models.StockQuote) int { return q.Date },
			func(ctx context.Context, date int) (bool, error) { return tx.RecordExists(ctx, market, id, date) },
			func(ctx context.Context, q models.StockQuote) (bool, error) {
				return tx.InsertStockPrice(ctx, toStockPrice(id, q))
			},
		)
		return err
	})
	return c.finish(ctx, market, id, s, err)
}

// prepare resolves the symbol id and narrows limit by the target row count.
// A returned limit of zero means there is nothing to fetch.
func (c *Collector) prepare(ctx context.Context, market models.Market, s *SymbolSummary, limit int) (uint, int, error) {
	id, found, err := c.store.SymbolID(ctx, market, s.Symbol)
	if err != nil {
		s.Status = StatusFailed
		return 0, 0, err
	}
	if !found {
		s.Status = StatusNotSeeded
		return 0, 0, fmt.Errorf("%s: %w", s.Symbol, ErrSymbolNotSeeded)
	}

	s.Existing, err = c.store.RowCount(ctx, market, id)
	if err != nil {
		s.Status = StatusFailed
		return 0, 0, err
	}
	s.Total = s.Existing

	if c.opts.TargetRows > 0 {
		if remaining := c.opts.TargetRows - int(s.Existing); remaining < limit {
			limit = remaining
		}
	}
	if limit <= 0 {
		s.Status = StatusTargetReached
		c.log.Info().Str("symbol", s.Symbol).Int64("rows", s.Existing).Msg("target row count reached, skipping fetch")
		return id, 0, nil
	}

	c.log.Info().Str("symbol", s.Symbol).Int64("existing", s.Existing).Int("limit", limit).Msg("fetching")
	return id, limit, nil
}

func (c *Collector) finish(ctx context.Context, market models.Market, id uint, s SymbolSummary, txErr error) (SymbolSummary, error) {
	if txErr != nil {
		// the transaction rolled back, nothing from this symbol was kept
		s.Inserted, s.Skipped = 0, 0
		s.Status = StatusFailed
		return s, txErr
	}

	total, err := c.store.RowCount(ctx, market, id)
	if err != nil {
		s.Status = StatusFailed
		return s, err
	}
	s.Total = total
	s.Status = StatusCollected

	c.metrics.RecordInserted(string(market), s.Symbol, s.Inserted)
	c.metrics.RecordSkipped(string(market), s.Symbol, s.Skipped)
	c.metrics.RecordSymbolRows(string(market), s.Symbol, total)

	c.log.Info().
		Str("symbol", s.Symbol).
		Int("fetched", s.Fetched).
		Int("inserted", s.Inserted).
		Int("skipped", s.Skipped).
		Int("invalid", s.Invalid).
		Int64("total", total).
		Msg("symbol collected")
	return s, nil
}

type nopRecorder struct{}

func (nopRecorder) RecordInserted(string, string, int)       {}
func (nopRecorder) RecordSkipped(string, string, int)        {}
func (nopRecorder) RecordFetch(string, time.Duration, error) {}
func (nopRecorder) RecordSymbolRows(string, string, int64)   {}
