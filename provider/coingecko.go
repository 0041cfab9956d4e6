package provider

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/viktsys/cryptostock/config"
	"github.com/viktsys/cryptostock/models"
)

// CoinGecko reads daily market charts from the CoinGecko public API.
type CoinGecko struct {
	*client
	baseURL string
}

func NewCoinGecko(cfg config.CoinGecko, opts ...Option) *CoinGecko {
	return &CoinGecko{
		client:  newClient("coingecko", cfg.Timeout, cfg.MinInterval, opts),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// chartPoint is a [unix millis, value] pair; either side may be null.
type chartPoint [2]*float64

type marketChart struct {
	Prices       []chartPoint `json:"prices"`
	MarketCaps   []chartPoint `json:"market_caps"`
	TotalVolumes []chartPoint `json:"total_volumes"`
}

// MarketChart fetches up to days of daily USD observations for coinID,
// returned in ascending date order with one observation per UTC day.
func (c *CoinGecko) MarketChart(ctx context.Context, coinID string, days int) ([]models.CryptoQuote, error) {
	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("days", strconv.Itoa(days))
	params.Set("interval", "daily")

	var chart marketChart
	endpoint := fmt.Sprintf("%s/coins/%s/market_chart", c.baseURL, url.PathEscape(coinID))
	if err := c.getJSON(ctx, endpoint, params, &chart); err != nil {
		return nil, err
	}
	if chart.Prices == nil {
		return nil, &APIError{Provider: c.name, Message: "response has no prices"}
	}

	return c.parse(coinID, chart), nil
}

func (c *CoinGecko) parse(coinID string, chart marketChart) []models.CryptoQuote {
	caps := indexByTimestamp(chart.MarketCaps)
	vols := indexByTimestamp(chart.TotalVolumes)

	seen := make(map[int]bool, len(chart.Prices))
	quotes := make([]models.CryptoQuote, 0, len(chart.Prices))
	for _, p := range chart.Prices {
		if p[0] == nil || !finite(p[1]) {
			c.log.Warn().Str("coin", coinID).Msg("skipping malformed price point")
			continue
		}
		ms := *p[0]
		date := models.DateFromTime(time.UnixMilli(int64(ms)).UTC())
		if seen[date] {
			continue
		}
		seen[date] = true

		quotes = append(quotes, models.CryptoQuote{
			Date:      date,
			PriceUSD:  *p[1],
			MarketCap: caps[ms],
			Volume:    vols[ms],
		})
	}

	sort.SliceStable(quotes, func(i, j int) bool { return quotes[i].Date < quotes[j].Date })
	return quotes
}

func indexByTimestamp(points []chartPoint) map[float64]*float64 {
	out := make(map[float64]*float64, len(points))
	for _, p := range points {
		if p[0] != nil && finite(p[1]) {
			out[*p[0]] = p[1]
		}
	}
	return out
}

func finite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}
