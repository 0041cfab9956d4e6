package ingest

import (
	"context"
	"fmt"
	"math"

	"github.com/viktsys/cryptostock/models"
)

// insertBounded walks obs in order, skipping dates already stored, and stops
// once limit rows have been inserted. A conflicting insert counts as skipped.
func insertBounded[T any](
	ctx context.Context,
	obs []T,
	limit int,
	dateOf func(T) int,
	exists func(ctx context.Context, date int) (bool, error),
	insert func(ctx context.Context, o T) (bool, error),
) (inserted, skipped int, err error) {
	for _, o := range obs {
		if inserted >= limit {
			break
		}

		date := dateOf(o)
		found, err := exists(ctx, date)
		if err != nil {
			return inserted, skipped, err
		}
		if found {
			skipped++
			continue
		}

		ok, err := insert(ctx, o)
		if err != nil {
			return inserted, skipped, fmt.Errorf("insert %d: %w", date, err)
		}
		if ok {
			inserted++
		} else {
			skipped++
		}
	}
	return inserted, skipped, nil
}

func validateCryptoQuote(q models.CryptoQuote) error {
	if _, err := models.DecodeDate(q.Date); err != nil {
		return err
	}
	if !isFinite(q.PriceUSD) || q.PriceUSD < 0 {
		return fmt.Errorf("invalid price %v", q.PriceUSD)
	}
	return nil
}

func validateStockQuote(q models.StockQuote) error {
	if _, err := models.DecodeDate(q.Date); err != nil {
		return err
	}
	for _, v := range []float64{q.Open, q.High, q.Low, q.Close} {
		if !isFinite(v) || v < 0 {
			return fmt.Errorf("invalid price %v", v)
		}
	}
	if q.Volume < 0 {
		return fmt.Errorf("invalid volume %d", q.Volume)
	}
	return nil
}

func toCryptoPrice(id uint, q models.CryptoQuote) *models.CryptoPrice {
	return &models.CryptoPrice{
		Date:      q.Date,
		CryptoID:  id,
		PriceUSD:  q.PriceUSD,
		MarketCap: q.MarketCap,
		Volume:    q.Volume,
	}
}

func toStockPrice(id uint, q models.StockQuote) *models.StockPrice {
	return &models.StockPrice{
		Date:    q.Date,
		StockID: id,
		Open:    q.Open,
		High:    q.High,
		Low:     q.Low,
		Close:   q.Close,
		Volume:  q.Volume,
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
