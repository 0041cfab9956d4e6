package analysis

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/viktsys/cryptostock/config"
	"github.com/viktsys/cryptostock/models"
)

// ErrInsufficientData means one of the markets has no stored rows yet.
var ErrInsufficientData = errors.New("not enough data in database, run collect first")

// Source reads the joined price tables, ordered by symbol then date.
type Source interface {
	CryptoPricesWithSymbols(ctx context.Context) ([]models.CryptoPriceRow, error)
	StockPricesWithSymbols(ctx context.Context) ([]models.StockPriceRow, error)
}

type Options struct {
	MomentumWindow int
	TopN           int
}

func OptionsFromConfig(cfg config.Analysis) Options {
	return Options{MomentumWindow: cfg.MomentumWindow, TopN: cfg.TopN}
}

type Engine struct {
	src  Source
	opts Options
	log  zerolog.Logger
}

func NewEngine(src Source, opts Options, log zerolog.Logger) *Engine {
	if opts.MomentumWindow <= 0 {
		opts.MomentumWindow = 7
	}
	if opts.TopN <= 0 {
		opts.TopN = 5
	}
	return &Engine{src: src, opts: opts, log: log}
}

type stockGroup struct {
	symbol string
	close  Series
	bars   []Bar
}

type cryptoGroup struct {
	symbol string
	price  Series
}

// Run loads both markets and computes every statistic.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	cryptoRows, err := e.src.CryptoPricesWithSymbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("load crypto prices: %w", err)
	}
	stockRows, err := e.src.StockPricesWithSymbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stock prices: %w", err)
	}

	e.log.Info().Int("crypto_rows", len(cryptoRows)).Int("stock_rows", len(stockRows)).Msg("loaded price records")
	if len(cryptoRows) == 0 || len(stockRows) == 0 {
		return nil, ErrInsufficientData
	}

	res := &Result{
		MomentumWindow: e.opts.MomentumWindow,
		TopN:           e.opts.TopN,
		CryptoRows:     len(cryptoRows),
		StockRows:      len(stockRows),
	}

	cryptos := groupCrypto(cryptoRows)
	for _, g := range cryptos {
		e.addPriceStats(res, models.MarketCrypto, g.symbol, g.price, CryptoVolatility(g.price))
	}

	stocks := groupStocks(stockRows)
	for _, g := range stocks {
		e.addPriceStats(res, models.MarketStock, g.symbol, g.close, StockVolatility(g.bars))
	}

	for _, c := range cryptos {
		cr := DailyReturns(c.price)
		for _, s := range stocks {
			p := Pair{Crypto: c.symbol, Stock: s.symbol}
			res.Pairs = append(res.Pairs, p)
			res.addScalar(MetricCorrelation, "", p.Key(), Correlation(cr, DailyReturns(s.close)))
		}
	}

	e.log.Info().
		Int("crypto_symbols", len(cryptos)).
		Int("stock_symbols", len(stocks)).
		Int("pairs", len(res.Pairs)).
		Msg("analysis complete")
	return res, nil
}

func (e *Engine) addPriceStats(res *Result, market models.Market, symbol string, prices, vol Series) {
	momentum := Momentum(prices, e.opts.MomentumWindow)

	res.addSeries(MetricPrice, market, symbol, prices)
	res.addSeries(MetricNormalized, market, symbol, Normalize(prices, 100))
	res.addSeries(MetricReturns, market, symbol, DailyReturns(prices))
	res.addSeries(MetricVolatility, market, symbol, vol)
	res.addSeries(MetricMomentum, market, symbol, momentum)
	res.addSeries(MetricTopMomentum, market, symbol, TopMomentum(momentum, e.opts.TopN))
	res.addScalar(MetricAvgVolatility, market, symbol, AverageVolatility(vol))
}

func groupCrypto(rows []models.CryptoPriceRow) []cryptoGroup {
	var out []cryptoGroup
	for _, r := range rows {
		if len(out) == 0 || out[len(out)-1].symbol != r.Symbol {
			out = append(out, cryptoGroup{symbol: r.Symbol})
		}
		g := &out[len(out)-1]
		g.price = append(g.price, Point{Date: r.Date, Value: r.PriceUSD})
	}
	return out
}

func groupStocks(rows []models.StockPriceRow) []stockGroup {
	var out []stockGroup
	for _, r := range rows {
		if len(out) == 0 || out[len(out)-1].symbol != r.Symbol {
			out = append(out, stockGroup{symbol: r.Symbol})
		}
		g := &out[len(out)-1]
		g.close = append(g.close, Point{Date: r.Date, Value: r.Close})
		g.bars = append(g.bars, Bar{Date: r.Date, High: r.High, Low: r.Low, Close: r.Close})
	}
	return out
}
