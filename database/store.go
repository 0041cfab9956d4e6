package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/viktsys/cryptostock/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store holds the lookup, existence and join helpers over the four tables.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Transaction runs fn against a Store bound to a single transaction.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

type tables struct {
	symbol string
	price  string
	fk     string
}

func tablesFor(market models.Market) (tables, error) {
	switch market {
	case models.MarketCrypto:
		return tables{symbol: "crypto_symbol", price: "crypto_price", fk: "crypto_id"}, nil
	case models.MarketStock:
		return tables{symbol: "stock_symbol", price: "stock_price", fk: "stock_id"}, nil
	}
	return tables{}, fmt.Errorf("unknown market %q", market)
}

// ResolveOrCreateSymbol returns the id of ticker, inserting it first if absent.
func (s *Store) ResolveOrCreateSymbol(ctx context.Context, market models.Market, ticker, name string) (uint, error) {
	t, err := tablesFor(market)
	if err != nil {
		return 0, err
	}

	id, found, err := s.SymbolID(ctx, market, ticker)
	if err != nil {
		return 0, err
	}
	if found {
		return id, nil
	}

	rec := models.Symbol{Symbol: ticker, Name: name}
	if err := s.db.WithContext(ctx).Table(t.symbol).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			id, _, err := s.SymbolID(ctx, market, ticker)
			return id, err
		}
		return 0, fmt.Errorf("insert %s symbol %s: %w", market, ticker, err)
	}
	return rec.ID, nil
}

// SymbolID looks ticker up without creating it.
func (s *Store) SymbolID(ctx context.Context, market models.Market, ticker string) (uint, bool, error) {
	t, err := tablesFor(market)
	if err != nil {
		return 0, false, err
	}

	var rec models.Symbol
	res := s.db.WithContext(ctx).Table(t.symbol).Where("symbol = ?", ticker).Limit(1).Find(&rec)
	if res.Error != nil {
		return 0, false, fmt.Errorf("lookup %s symbol %s: %w", market, ticker, res.Error)
	}
	return rec.ID, res.RowsAffected > 0, nil
}

// Symbols lists a market's lookup table ordered by id.
func (s *Store) Symbols(ctx context.Context, market models.Market) ([]models.Symbol, error) {
	t, err := tablesFor(market)
	if err != nil {
		return nil, err
	}

	var out []models.Symbol
	if err := s.db.WithContext(ctx).Table(t.symbol).Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list %s symbols: %w", market, err)
	}
	return out, nil
}

// RecordExists reports whether a price row for (symbolID, date) is stored.
func (s *Store) RecordExists(ctx context.Context, market models.Market, symbolID uint, date int) (bool, error) {
	t, err := tablesFor(market)
	if err != nil {
		return false, err
	}

	var n int64
	err = s.db.WithContext(ctx).Table(t.price).
		Where(t.fk+" = ? AND date = ?", symbolID, date).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check %s price %d/%d: %w", market, symbolID, date, err)
	}
	return n > 0, nil
}

// RowCount returns how many price rows a symbol has accumulated.
func (s *Store) RowCount(ctx context.Context, market models.Market, symbolID uint) (int64, error) {
	t, err := tablesFor(market)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := s.db.WithContext(ctx).Table(t.price).Where(t.fk+" = ?", symbolID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count %s prices for %d: %w", market, symbolID, err)
	}
	return n, nil
}

// LastDate returns the most recent stored date for a symbol.
func (s *Store) LastDate(ctx context.Context, market models.Market, symbolID uint) (int, bool, error) {
	t, err := tablesFor(market)
	if err != nil {
		return 0, false, err
	}

	var last sql.NullInt64
	err = s.db.WithContext(ctx).Table(t.price).
		Select("MAX(date)").
		Where(t.fk+" = ?", symbolID).
		Scan(&last).Error
	if err != nil {
		return 0, false, fmt.Errorf("last %s date for %d: %w", market, symbolID, err)
	}
	return int(last.Int64), last.Valid, nil
}

// InsertCryptoPrice stores p unless (crypto_id, date) is already present.
func (s *Store) InsertCryptoPrice(ctx context.Context, p *models.CryptoPrice) (bool, error) {
	return s.insertIgnore(ctx, p)
}

// InsertStockPrice stores p unless (stock_id, date) is already present.
func (s *Store) InsertStockPrice(ctx context.Context, p *models.StockPrice) (bool, error) {
	return s.insertIgnore(ctx, p)
}

func (s *Store) insertIgnore(ctx context.Context, row interface{}) (bool, error) {
	res := s.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CryptoPricesWithSymbols joins crypto_price to crypto_symbol, ordered by symbol then date.
func (s *Store) CryptoPricesWithSymbols(ctx context.Context) ([]models.CryptoPriceRow, error) {
	var rows []models.CryptoPriceRow
	err := s.db.WithContext(ctx).
		Table("crypto_price AS cp").
		Select("cp.date, cs.symbol, cs.name, cp.price_usd, cp.market_cap, cp.volume").
		Joins("JOIN crypto_symbol cs ON cp.crypto_id = cs.id").
		Order("cs.symbol, cp.date").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load crypto prices: %w", err)
	}
	return rows, nil
}

// StockPricesWithSymbols joins stock_price to stock_symbol, ordered by symbol then date.
func (s *Store) StockPricesWithSymbols(ctx context.Context) ([]models.StockPriceRow, error) {
	var rows []models.StockPriceRow
	err := s.db.WithContext(ctx).
		Table("stock_price AS sp").
		Select("sp.date, ss.symbol, ss.name, sp.open, sp.high, sp.low, sp.close, sp.volume").
		Joins("JOIN stock_symbol ss ON sp.stock_id = ss.id").
		Order("ss.symbol, sp.date").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load stock prices: %w", err)
	}
	return rows, nil
}

// TableCounts reports the row count of every table, in schema order.
func (s *Store) TableCounts(ctx context.Context) ([]models.TableCount, error) {
	names := []string{"crypto_symbol", "crypto_price", "stock_symbol", "stock_price"}
	out := make([]models.TableCount, 0, len(names))
	for _, name := range names {
		var n int64
		if err := s.db.WithContext(ctx).Table(name).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("count %s: %w", name, err)
		}
		out = append(out, models.TableCount{Table: name, Rows: n})
	}
	return out, nil
}
