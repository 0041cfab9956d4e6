package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/viktsys/cryptostock/config"
	"github.com/viktsys/cryptostock/database"
	"github.com/viktsys/cryptostock/logger"
	"gorm.io/gorm"
)

var (
	cfgFile string
	cfg     *config.Config
	log     zerolog.Logger
)

var rootCMD = &cobra.Command{
	Use:   "cryptostock",
	Short: "Cryptocurrency and tech stock price collection and analysis tool",
	Long: `A CLI application that incrementally collects daily cryptocurrency prices
from CoinGecko and stock bars from Alpha Vantage into a normalized SQL store,
then computes volatility, momentum and cross-market correlations, writes a
text report and renders charts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		log, err = logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
		return err
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCMD.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCMD.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "path to the YAML configuration file")

	rootCMD.AddCommand(initCMD, collectCMD, progressCMD, analyzeCMD, chartCMD, summaryCMD, runCMD)
}

// withStore opens the configured database, hands a store to fn and closes it.
func withStore(fn func(db *gorm.DB, store *database.Store) error) error {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Warn().Err(err).Msg("closing database")
		}
	}()
	return fn(db, database.NewStore(db))
}
