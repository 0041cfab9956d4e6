package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database     Database       `yaml:"database"`
	CoinGecko    CoinGecko      `yaml:"coingecko"`
	AlphaVantage AlphaVantage   `yaml:"alphavantage"`
	Collector    Collector      `yaml:"collector"`
	Analysis     Analysis       `yaml:"analysis"`
	Output       Output         `yaml:"output"`
	Log          Log            `yaml:"log"`
	Metrics      Metrics        `yaml:"metrics"`
	CryptoAssets []CryptoSymbol `yaml:"crypto_symbols" validate:"dive"`
	StockAssets  []StockSymbol  `yaml:"stock_symbols" validate:"dive"`
}

type Database struct {
	Driver string `yaml:"driver" default:"sqlite" validate:"oneof=sqlite postgres"`
	DSN    string `yaml:"dsn" default:"crypto_stock_analysis.db" validate:"required"`
}

type CoinGecko struct {
	BaseURL     string        `yaml:"base_url" default:"https://api.coingecko.com/api/v3" validate:"required,url"`
	Days        int           `yaml:"days" default:"180" validate:"gt=0"`
	Timeout     time.Duration `yaml:"timeout" default:"10s"`
	MinInterval time.Duration `yaml:"min_interval" default:"1500ms" validate:"gte=0"`
}

type AlphaVantage struct {
	BaseURL     string        `yaml:"base_url" default:"https://www.alphavantage.co/query" validate:"required,url"`
	APIKey      string        `yaml:"api_key"`
	OutputSize  string        `yaml:"output_size" default:"compact" validate:"oneof=compact full"`
	Timeout     time.Duration `yaml:"timeout" default:"15s"`
	MinInterval time.Duration `yaml:"min_interval" default:"12s" validate:"gte=0"`
}

type Collector struct {
	MaxRowsPerRun int  `yaml:"max_rows_per_run" default:"25" validate:"gt=0"`
	TargetRows    int  `yaml:"target_rows" default:"100" validate:"gte=0"`
	SharedQuota   bool `yaml:"shared_quota"`
}

type Analysis struct {
	MomentumWindow int `yaml:"momentum_window" default:"7" validate:"gt=0"`
	TopN           int `yaml:"top_n" default:"5" validate:"gt=0"`
}

type Output struct {
	Dir string `yaml:"dir" default:"output" validate:"required"`
}

type Log struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
	Format string `yaml:"format" default:"console" validate:"oneof=console json"`
}

type Metrics struct {
	Textfile string `yaml:"textfile"`
}

type CryptoSymbol struct {
	Symbol      string `yaml:"symbol" validate:"required"`
	CoinGeckoID string `yaml:"coingecko_id" validate:"required"`
	Name        string `yaml:"name" validate:"required"`
}

type StockSymbol struct {
	Symbol string `yaml:"symbol" validate:"required"`
	Name   string `yaml:"name" validate:"required"`
}

// ResultsFile is where the analysis report is written.
func (o Output) ResultsFile() string { return filepath.Join(o.Dir, "analysis_results.txt") }

// VisualizationsDir holds the rendered charts.
func (o Output) VisualizationsDir() string { return filepath.Join(o.Dir, "visualizations") }

// Default returns the configuration used when no file is present.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	c.seedSymbols()
	return &c, nil
}

// Load reads a YAML configuration file, fills defaults, applies environment
// overrides and validates the result. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			var fromFile Config
			if err := yaml.Unmarshal(b, &fromFile); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
			if err := defaults.Set(&fromFile); err != nil {
				return nil, fmt.Errorf("apply defaults: %w", err)
			}
			fromFile.seedSymbols()
			c = &fromFile
		}
	}

	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks struct constraints.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

func (c *Config) applyEnv() {
	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.DSN = getEnv("DB_DSN", c.Database.DSN)
	c.AlphaVantage.APIKey = getEnv("ALPHA_VANTAGE_API_KEY", c.AlphaVantage.APIKey)
	c.Output.Dir = getEnv("OUTPUT_DIR", c.Output.Dir)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
}

func (c *Config) seedSymbols() {
	if len(c.CryptoAssets) == 0 {
		c.CryptoAssets = []CryptoSymbol{
			{Symbol: "BTC", CoinGeckoID: "bitcoin", Name: "Bitcoin"},
			{Symbol: "ETH", CoinGeckoID: "ethereum", Name: "Ethereum"},
			{Symbol: "SOL", CoinGeckoID: "solana", Name: "Solana"},
		}
	}
	if len(c.StockAssets) == 0 {
		c.StockAssets = []StockSymbol{
			{Symbol: "NVDA", Name: "NVIDIA Corporation"},
			{Symbol: "AMD", Name: "Advanced Micro Devices"},
			{Symbol: "COIN", Name: "Coinbase Global Inc"},
		}
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
