package chart

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/viktsys/cryptostock/analysis"
	"github.com/viktsys/cryptostock/models"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

const (
	PriceMovementFile      = "price_movement_chart.png"
	CorrelationHeatmapFile = "correlation_heatmap.png"
)

// ErrNothingToPlot is returned when the result holds no plottable points.
var ErrNothingToPlot = errors.New("no data to plot")

// Renderer writes chart images into one directory.
type Renderer struct {
	dir string
	log zerolog.Logger
}

func NewRenderer(dir string, log zerolog.Logger) *Renderer {
	return &Renderer{dir: dir, log: log}
}

// PriceMovement draws every symbol's price rebased to 100 on a shared date
// axis. Crypto lines are solid, stock lines dashed.
func (r *Renderer) PriceMovement(res *analysis.Result) (string, error) {
	p := plot.New()
	p.Title.Text = "Cryptocurrency vs Tech Stock Price Movements\n(Normalized to Base 100)"
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Normalized price (base 100)"
	p.X.Tick.Marker = plot.TimeTicks{Format: models.DateLayout}
	p.Legend.Top = true
	p.Legend.Left = true
	p.Add(plotter.NewGrid())

	lines := 0
	for _, market := range []models.Market{models.MarketCrypto, models.MarketStock} {
		for _, sym := range res.Symbols(analysis.MetricNormalized, market) {
			xys := timeXYs(res.SeriesOf(analysis.MetricNormalized, sym))
			if len(xys) == 0 {
				r.log.Warn().Str("symbol", sym).Msg("no defined prices, leaving symbol off the chart")
				continue
			}

			l, err := plotter.NewLine(xys)
			if err != nil {
				return "", fmt.Errorf("line for %s: %w", sym, err)
			}
			l.Color = plotutil.Color(lines)
			l.Width = vg.Points(1.5)
			if market == models.MarketStock {
				l.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
			}
			p.Add(l)
			p.Legend.Add(fmt.Sprintf("%s (%s)", sym, market), l)
			lines++
		}
	}
	if lines == 0 {
		return "", ErrNothingToPlot
	}

	return r.save(p, 14*vg.Inch, 8*vg.Inch, PriceMovementFile)
}

func (r *Renderer) save(p *plot.Plot, w, h vg.Length, name string) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("create visualizations directory: %w", err)
	}
	path := filepath.Join(r.dir, name)
	if err := p.Save(w, h, path); err != nil {
		return "", fmt.Errorf("save %s: %w", name, err)
	}
	r.log.Info().Str("path", path).Msg("chart saved")
	return path, nil
}

// timeXYs maps a series onto unix-second X values, dropping undefined points.
func timeXYs(s analysis.Series) plotter.XYs {
	xys := make(plotter.XYs, 0, len(s))
	for _, pt := range s {
		if math.IsNaN(pt.Value) || math.IsInf(pt.Value, 0) {
			continue
		}
		t, err := models.DateToTime(pt.Date)
		if err != nil {
			continue
		}
		xys = append(xys, plotter.XY{X: float64(t.Unix()), Y: pt.Value})
	}
	return xys
}
