package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder collects per-run collector counters. Nothing is served; the
// registry is flushed to a node_exporter textfile at the end of a run.
type Recorder struct {
	registry      *prometheus.Registry
	rowsInserted  *prometheus.CounterVec
	rowsSkipped   *prometheus.CounterVec
	fetchErrors   *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	symbolRows    *prometheus.GaugeVec
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		rowsInserted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptostock_rows_inserted_total",
				Help: "Price rows inserted during this run",
			},
			[]string{"market", "symbol"},
		),
		rowsSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptostock_rows_skipped_total",
				Help: "Fetched observations skipped because the date was already stored",
			},
			[]string{"market", "symbol"},
		),
		fetchErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptostock_fetch_errors_total",
				Help: "Failed provider calls",
			},
			[]string{"provider"},
		),
		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cryptostock_fetch_duration_seconds",
				Help:    "Provider call latency, including rate limiter wait",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		symbolRows: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cryptostock_symbol_rows",
				Help: "Stored price rows per symbol after the run",
			},
			[]string{"market", "symbol"},
		),
	}
	r.registry.MustRegister(r.rowsInserted, r.rowsSkipped, r.fetchErrors, r.fetchDuration, r.symbolRows)
	return r
}

func (r *Recorder) RecordInserted(market, symbol string, n int) {
	r.rowsInserted.WithLabelValues(market, symbol).Add(float64(n))
}

func (r *Recorder) RecordSkipped(market, symbol string, n int) {
	r.rowsSkipped.WithLabelValues(market, symbol).Add(float64(n))
}

func (r *Recorder) RecordFetch(provider string, took time.Duration, err error) {
	r.fetchDuration.WithLabelValues(provider).Observe(took.Seconds())
	if err != nil {
		r.fetchErrors.WithLabelValues(provider).Inc()
	}
}

func (r *Recorder) RecordSymbolRows(market, symbol string, rows int64) {
	r.symbolRows.WithLabelValues(market, symbol).Set(float64(rows))
}

// Gatherer exposes the registry, mainly for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer { return r.registry }

// WriteTextfile writes the registry in exposition format to path.
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
