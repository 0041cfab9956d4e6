package chart

import (
	"fmt"
	"image/color"
	"math"

	"github.com/viktsys/cryptostock/analysis"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// correlationGrid lays correlations out with cryptos on rows and stocks on
// columns. Row 0 is drawn at the top.
type correlationGrid struct {
	cryptos []string
	stocks  []string
	values  [][]float64
}

func (g correlationGrid) Dims() (c, r int)   { return len(g.stocks), len(g.cryptos) }
func (g correlationGrid) Z(c, r int) float64 { return g.values[len(g.cryptos)-1-r][c] }
func (g correlationGrid) X(c int) float64    { return float64(c) }
func (g correlationGrid) Y(r int) float64    { return float64(r) }

func newCorrelationGrid(res *analysis.Result) correlationGrid {
	g := correlationGrid{}
	seen := map[string]bool{}
	for _, p := range res.Pairs {
		if !seen["c:"+p.Crypto] {
			seen["c:"+p.Crypto] = true
			g.cryptos = append(g.cryptos, p.Crypto)
		}
		if !seen["s:"+p.Stock] {
			seen["s:"+p.Stock] = true
			g.stocks = append(g.stocks, p.Stock)
		}
	}
	g.values = make([][]float64, len(g.cryptos))
	for i, c := range g.cryptos {
		g.values[i] = make([]float64, len(g.stocks))
		for j, s := range g.stocks {
			g.values[i][j] = res.Correlation(c, s)
		}
	}
	return g
}

// CorrelationHeatmap draws the crypto by stock return correlation grid on a
// red-yellow-green scale fixed to [-1, 1], each cell annotated with its value.
func (r *Renderer) CorrelationHeatmap(res *analysis.Result) (string, error) {
	g := newCorrelationGrid(res)
	if len(g.cryptos) == 0 || len(g.stocks) == 0 {
		return "", ErrNothingToPlot
	}

	pal, err := brewer.GetPalette(brewer.TypeDiverging, "RdYlGn", 11)
	if err != nil {
		return "", fmt.Errorf("heatmap palette: %w", err)
	}
	hm := plotter.NewHeatMap(g, pal)
	hm.Min, hm.Max = -1, 1
	hm.NaN = color.Gray{Y: 200}

	p := plot.New()
	p.Title.Text = "Cross-Market Correlation Heatmap\n(Daily Returns)"
	p.X.Label.Text = "Tech stocks"
	p.Y.Label.Text = "Cryptocurrencies"
	p.Add(hm)

	labels, err := cellLabels(g)
	if err != nil {
		return "", err
	}
	p.Add(labels)

	xt := make([]plot.Tick, len(g.stocks))
	for i, s := range g.stocks {
		xt[i] = plot.Tick{Value: float64(i), Label: s}
	}
	yt := make([]plot.Tick, len(g.cryptos))
	for i, c := range g.cryptos {
		yt[i] = plot.Tick{Value: float64(len(g.cryptos) - 1 - i), Label: c}
	}
	p.X.Tick.Marker = plot.ConstantTicks(xt)
	p.Y.Tick.Marker = plot.ConstantTicks(yt)

	return r.save(p, 10*vg.Inch, 8*vg.Inch, CorrelationHeatmapFile)
}

func cellLabels(g correlationGrid) (*plotter.Labels, error) {
	c, rows := g.Dims()
	xyl := plotter.XYLabels{}
	for row := 0; row < rows; row++ {
		for col := 0; col < c; col++ {
			v := g.Z(col, row)
			text := "n/a"
			if !math.IsNaN(v) {
				text = fmt.Sprintf("%.3f", v)
			}
			xyl.XYs = append(xyl.XYs, plotter.XY{X: g.X(col), Y: g.Y(row)})
			xyl.Labels = append(xyl.Labels, text)
		}
	}

	labels, err := plotter.NewLabels(xyl)
	if err != nil {
		return nil, fmt.Errorf("heatmap labels: %w", err)
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = draw.XCenter
		labels.TextStyle[i].YAlign = draw.YCenter
	}
	return labels, nil
}
