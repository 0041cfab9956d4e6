package models

// Market identifies which pair of tables a symbol and its prices live in.
type Market string

const (
	MarketCrypto Market = "crypto"
	MarketStock  Market = "stock"
)

// Symbol is a market-agnostic view of a row in either lookup table.
type Symbol struct {
	ID     uint   `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// CryptoSymbol is the lookup row giving each cryptocurrency an integer key
type CryptoSymbol struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Symbol string `gorm:"uniqueIndex;size:20;not null" json:"symbol"`
	Name   string `gorm:"not null" json:"name"`
}

func (CryptoSymbol) TableName() string { return "crypto_symbol" }

// CryptoPrice is one daily observation from the crypto provider
type CryptoPrice struct {
	Date      int          `gorm:"primaryKey;autoIncrement:false" json:"date"`
	CryptoID  uint         `gorm:"primaryKey;autoIncrement:false" json:"crypto_id"`
	PriceUSD  float64      `gorm:"column:price_usd;not null" json:"price_usd"`
	MarketCap *float64     `json:"market_cap,omitempty"`
	Volume    *float64     `json:"volume,omitempty"`
	Crypto    CryptoSymbol `gorm:"foreignKey:CryptoID;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT" json:"-"`
}

func (CryptoPrice) TableName() string { return "crypto_price" }

// StockSymbol is the lookup row giving each stock ticker an integer key
type StockSymbol struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Symbol string `gorm:"uniqueIndex;size:20;not null" json:"symbol"`
	Name   string `gorm:"not null" json:"name"`
}

func (StockSymbol) TableName() string { return "stock_symbol" }

// StockPrice is one daily OHLCV bar from the stock provider
type StockPrice struct {
	Date    int         `gorm:"primaryKey;autoIncrement:false" json:"date"`
	StockID uint        `gorm:"primaryKey;autoIncrement:false" json:"stock_id"`
	Open    float64     `gorm:"not null" json:"open"`
	High    float64     `gorm:"not null" json:"high"`
	Low     float64     `gorm:"not null" json:"low"`
	Close   float64     `gorm:"not null" json:"close"`
	Volume  int64       `gorm:"not null" json:"volume"`
	Stock   StockSymbol `gorm:"foreignKey:StockID;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT" json:"-"`
}

func (StockPrice) TableName() string { return "stock_price" }

// CryptoPriceRow is a crypto_price row joined with its symbol
type CryptoPriceRow struct {
	Date      int      `json:"date"`
	Symbol    string   `json:"symbol"`
	Name      string   `json:"name"`
	PriceUSD  float64  `gorm:"column:price_usd" json:"price_usd"`
	MarketCap *float64 `json:"market_cap,omitempty"`
	Volume    *float64 `json:"volume,omitempty"`
}

// StockPriceRow is a stock_price row joined with its symbol
type StockPriceRow struct {
	Date   int     `json:"date"`
	Symbol string  `json:"symbol"`
	Name   string  `json:"name"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// CryptoQuote is a parsed provider observation before it is bound to a symbol id.
type CryptoQuote struct {
	Date      int
	PriceUSD  float64
	MarketCap *float64
	Volume    *float64
}

// StockQuote is a parsed daily bar before it is bound to a symbol id.
type StockQuote struct {
	Date   int
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// TableCount reports the number of rows held by one table.
type TableCount struct {
	Table string `json:"table"`
	Rows  int64  `json:"rows"`
}
