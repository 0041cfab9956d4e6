package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viktsys/cryptostock/analysis"
	"github.com/viktsys/cryptostock/database"
	"github.com/viktsys/cryptostock/models"
	"gorm.io/gorm"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	body := `
database:
  driver: sqlite
  dsn: ` + filepath.Join(dir, "test.db") + `
output:
  dir: ` + filepath.Join(dir, "output") + `
log:
  level: error
collector:
  target_rows: 3
crypto_symbols:
  - {symbol: BTC, coingecko_id: bitcoin, name: Bitcoin}
stock_symbols:
  - {symbol: NVDA, name: NVIDIA Corporation}
`
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCMD.SetOut(&out)
	rootCMD.SetArgs(args)
	err := rootCMD.ExecuteContext(context.Background())
	return out.String(), err
}

func TestInitProgressSummary(t *testing.T) {
	path := writeConfig(t)

	out, err := execute(t, "--config", path, "progress")
	require.Error(t, err, "tables do not exist before init")
	_ = out

	out, err = execute(t, "--config", path, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Database initialized.")

	// init is idempotent
	_, err = execute(t, "--config", path, "init")
	require.NoError(t, err)

	out, err = execute(t, "--config", path, "progress")
	require.NoError(t, err)
	assert.Contains(t, out, "BTC:")
	assert.Contains(t, out, "need 3 more")
	assert.Contains(t, out, "TOTAL: 0 rows collected")

	out, err = execute(t, "--config", path, "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "ID 1: BTC (Bitcoin)")
	assert.Contains(t, out, "ID 1: NVDA (NVIDIA Corporation)")

	_, err = execute(t, "--config", path, "analyze")
	assert.ErrorIs(t, err, analysis.ErrInsufficientData)
}

func TestProgressReady(t *testing.T) {
	path := writeConfig(t)
	_, err := execute(t, "--config", path, "init")
	require.NoError(t, err)

	err = withStore(func(_ *gorm.DB, store *database.Store) error {
		ctx := context.Background()
		btc, _, err := store.SymbolID(ctx, models.MarketCrypto, "BTC")
		require.NoError(t, err)
		nvda, _, err := store.SymbolID(ctx, models.MarketStock, "NVDA")
		require.NoError(t, err)
		for d := 20240101; d < 20240104; d++ {
			_, err := store.InsertCryptoPrice(ctx, &models.CryptoPrice{Date: d, CryptoID: btc, PriceUSD: float64(d % 100)})
			require.NoError(t, err)
			_, err = store.InsertStockPrice(ctx, &models.StockPrice{Date: d, StockID: nvda, Open: 1, High: 2, Low: 1, Close: 1.5, Volume: 10})
			require.NoError(t, err)
		}

		var buf bytes.Buffer
		done, err := writeProgress(ctx, &buf, store)
		require.NoError(t, err)
		assert.True(t, done)
		assert.Contains(t, buf.String(), "[DONE]")
		return nil
	})
	require.NoError(t, err)
}

func TestRunRejectsZeroRounds(t *testing.T) {
	path := writeConfig(t)
	_, err := execute(t, "--config", path, "run", "--rounds", "0")
	assert.Error(t, err)
	rounds = 5
}
