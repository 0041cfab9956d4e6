package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/viktsys/cryptostock/database"
	"github.com/viktsys/cryptostock/models"
	"gorm.io/gorm"
)

var initCMD = &cobra.Command{
	Use:   "init",
	Short: "Create the schema and seed the configured symbols",
	Long:  `Create the crypto and stock tables if they do not exist and insert every configured symbol into its lookup table. Safe to run repeatedly.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(db *gorm.DB, store *database.Store) error {
			if err := initialize(cmd.Context(), db, store); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Database initialized.")
			return nil
		})
	},
}

func initialize(ctx context.Context, db *gorm.DB, store *database.Store) error {
	log.Info().Str("driver", cfg.Database.Driver).Msg("migrating schema")
	if err := database.Migrate(db); err != nil {
		return err
	}

	for _, a := range cfg.CryptoAssets {
		id, err := store.ResolveOrCreateSymbol(ctx, models.MarketCrypto, a.Symbol, a.Name)
		if err != nil {
			return err
		}
		log.Debug().Str("symbol", a.Symbol).Uint("id", id).Msg("crypto symbol ready")
	}
	for _, a := range cfg.StockAssets {
		id, err := store.ResolveOrCreateSymbol(ctx, models.MarketStock, a.Symbol, a.Name)
		if err != nil {
			return err
		}
		log.Debug().Str("symbol", a.Symbol).Uint("id", id).Msg("stock symbol ready")
	}

	log.Info().Int("crypto", len(cfg.CryptoAssets)).Int("stock", len(cfg.StockAssets)).Msg("symbols seeded")
	return nil
}
