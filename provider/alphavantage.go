package provider

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/viktsys/cryptostock/config"
	"github.com/viktsys/cryptostock/models"
)

// AlphaVantage reads daily bars from the Alpha Vantage TIME_SERIES_DAILY endpoint.
// The free tier allows 5 calls per minute, hence the default 12s spacing.
type AlphaVantage struct {
	*client
	baseURL    string
	apiKey     string
	outputSize string
}

func NewAlphaVantage(cfg config.AlphaVantage, opts ...Option) *AlphaVantage {
	return &AlphaVantage{
		client:     newClient("alphavantage", cfg.Timeout, cfg.MinInterval, opts),
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		outputSize: cfg.OutputSize,
	}
}

type dailyBar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

type dailySeries struct {
	ErrorMessage string              `json:"Error Message"`
	Note         string              `json:"Note"`
	Information  string              `json:"Information"`
	Series       map[string]dailyBar `json:"Time Series (Daily)"`
}

// DailySeries fetches the daily bars for symbol in ascending date order.
// Bars with a malformed date or any unparseable field are dropped.
func (a *AlphaVantage) DailySeries(ctx context.Context, symbol string) ([]models.StockQuote, error) {
	params := url.Values{}
	params.Set("function", "TIME_SERIES_DAILY")
	params.Set("symbol", symbol)
	params.Set("apikey", a.apiKey)
	params.Set("outputsize", a.outputSize)

	var resp dailySeries
	if err := a.getJSON(ctx, a.baseURL, params, &resp); err != nil {
		return nil, err
	}

	// the API reports quota and symbol errors with a 200 status
	switch {
	case resp.ErrorMessage != "":
		return nil, &APIError{Provider: a.name, Message: resp.ErrorMessage}
	case resp.Note != "":
		return nil, &APIError{Provider: a.name, Message: resp.Note}
	case resp.Series == nil && resp.Information != "":
		return nil, &APIError{Provider: a.name, Message: resp.Information}
	case resp.Series == nil:
		return nil, &APIError{Provider: a.name, Message: "response has no daily time series"}
	}

	quotes := make([]models.StockQuote, 0, len(resp.Series))
	for day, bar := range resp.Series {
		q, err := parseBar(day, bar)
		if err != nil {
			a.log.Warn().Str("symbol", symbol).Str("date", day).Err(err).Msg("skipping malformed bar")
			continue
		}
		quotes = append(quotes, q)
	}

	sort.Slice(quotes, func(i, j int) bool { return quotes[i].Date < quotes[j].Date })
	return quotes, nil
}

func parseBar(day string, bar dailyBar) (models.StockQuote, error) {
	var q models.StockQuote

	date, err := models.EncodeDate(day)
	if err != nil {
		return q, err
	}

	prices := [4]float64{}
	for i, raw := range []string{bar.Open, bar.High, bar.Low, bar.Close} {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return q, fmt.Errorf("invalid price format: %w", err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return q, fmt.Errorf("invalid price %q", raw)
		}
		prices[i] = v
	}

	volume, err := strconv.ParseInt(strings.TrimSpace(bar.Volume), 10, 64)
	if err != nil {
		return q, fmt.Errorf("invalid volume format: %w", err)
	}

	q.Date = date
	q.Open, q.High, q.Low, q.Close = prices[0], prices[1], prices[2], prices[3]
	q.Volume = volume
	return q, nil
}
