package analysis

import (
	"math"

	"github.com/viktsys/cryptostock/models"
)

// Metric names used in Result records.
const (
	MetricPrice         = "price"
	MetricNormalized    = "normalized"
	MetricReturns       = "daily_returns"
	MetricVolatility    = "volatility"
	MetricAvgVolatility = "avg_volatility"
	MetricMomentum      = "momentum"
	MetricTopMomentum   = "top_momentum"
	MetricCorrelation   = "correlation"
)

// ScalarRecord is a single value computed for one symbol, or for one
// crypto/stock pair when Metric is MetricCorrelation.
type ScalarRecord struct {
	Metric string
	Market models.Market
	Symbol string
	Value  float64
}

// SeriesRecord is a dated series computed for one symbol.
type SeriesRecord struct {
	Metric string
	Market models.Market
	Symbol string
	Points Series
}

// Pair identifies one crypto/stock combination in the correlation grid.
type Pair struct {
	Crypto string
	Stock  string
}

// Key is the pair in "CRYPTO-STOCK" form.
func (p Pair) Key() string { return p.Crypto + "-" + p.Stock }

// Result holds everything one analysis run produced.
type Result struct {
	Scalars []ScalarRecord
	Series  []SeriesRecord

	// Pairs lists correlation pairs in crypto then stock order.
	Pairs []Pair

	MomentumWindow int
	TopN           int
	CryptoRows     int
	StockRows      int
}

func (r *Result) addScalar(metric string, market models.Market, symbol string, v float64) {
	r.Scalars = append(r.Scalars, ScalarRecord{Metric: metric, Market: market, Symbol: symbol, Value: v})
}

func (r *Result) addSeries(metric string, market models.Market, symbol string, s Series) {
	r.Series = append(r.Series, SeriesRecord{Metric: metric, Market: market, Symbol: symbol, Points: s})
}

// Scalar looks up a scalar by metric and symbol. For correlations symbol is
// the pair key.
func (r *Result) Scalar(metric, symbol string) (float64, bool) {
	for _, s := range r.Scalars {
		if s.Metric == metric && s.Symbol == symbol {
			return s.Value, true
		}
	}
	return math.NaN(), false
}

// SeriesOf returns the series for metric and symbol, or nil.
func (r *Result) SeriesOf(metric, symbol string) Series {
	for _, s := range r.Series {
		if s.Metric == metric && s.Symbol == symbol {
			return s.Points
		}
	}
	return nil
}

// Symbols lists, in load order, the symbols of market that have metric.
func (r *Result) Symbols(metric string, market models.Market) []string {
	seen := map[string]bool{}
	var out []string
	add := func(m string, mk models.Market, sym string) {
		if m == metric && mk == market && !seen[sym] {
			seen[sym] = true
			out = append(out, sym)
		}
	}
	for _, s := range r.Series {
		add(s.Metric, s.Market, s.Symbol)
	}
	for _, s := range r.Scalars {
		add(s.Metric, s.Market, s.Symbol)
	}
	return out
}

// Correlation returns the return correlation of a crypto/stock pair, NaN when
// undefined or absent.
func (r *Result) Correlation(crypto, stock string) float64 {
	v, _ := r.Scalar(MetricCorrelation, Pair{Crypto: crypto, Stock: stock}.Key())
	return v
}
