package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Point is one dated observation. Date uses the YYYYMMDD encoding.
type Point struct {
	Date  int
	Value float64
}

// Series is a date-ascending sequence of points for one symbol.
type Series []Point

// Values returns the bare values of s.
func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// pctChange is (cur - base) / base * 100, NaN when base is zero or undefined.
func pctChange(base, cur float64) float64 {
	if base == 0 || math.IsNaN(base) || math.IsNaN(cur) {
		return math.NaN()
	}
	return (cur - base) / base * 100
}

// DailyReturns computes percent change between consecutive rows. The result is
// one point shorter than prices and each return carries the later date.
func DailyReturns(prices Series) Series {
	if len(prices) < 2 {
		return Series{}
	}
	out := make(Series, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		out = append(out, Point{Date: prices[i].Date, Value: pctChange(prices[i-1].Value, prices[i].Value)})
	}
	return out
}

// CryptoVolatility is the absolute daily return.
func CryptoVolatility(prices Series) Series {
	out := DailyReturns(prices)
	for i := range out {
		out[i].Value = math.Abs(out[i].Value)
	}
	return out
}

// Bar is a daily OHLC bar reduced to what the intraday range needs.
type Bar struct {
	Date             int
	High, Low, Close float64
}

// StockVolatility is the intraday range (high - low) / close * 100.
func StockVolatility(bars []Bar) Series {
	out := make(Series, len(bars))
	for i, b := range bars {
		v := math.NaN()
		if b.Close != 0 {
			v = (b.High - b.Low) / b.Close * 100
		}
		out[i] = Point{Date: b.Date, Value: v}
	}
	return out
}

// AverageVolatility is the mean of the defined values of s, NaN when there are none.
func AverageVolatility(s Series) float64 {
	vals := make([]float64, 0, len(s))
	for _, p := range s {
		if !math.IsNaN(p.Value) && !math.IsInf(p.Value, 0) {
			vals = append(vals, p.Value)
		}
	}
	if len(vals) == 0 {
		return math.NaN()
	}
	return stat.Mean(vals, nil)
}

// Momentum is the percent change over window rows, not calendar days.
// Points start at index window.
func Momentum(prices Series, window int) Series {
	if window <= 0 || len(prices) <= window {
		return Series{}
	}
	out := make(Series, 0, len(prices)-window)
	for i := window; i < len(prices); i++ {
		out = append(out, Point{Date: prices[i].Date, Value: pctChange(prices[i-window].Value, prices[i].Value)})
	}
	return out
}

// Correlation is the Pearson coefficient of a and b over the dates present in
// both. Pairs with an undefined side are dropped. The result is NaN with fewer
// than two shared points or when either side is constant.
func Correlation(a, b Series) float64 {
	byDate := make(map[int]float64, len(b))
	for _, p := range b {
		byDate[p.Date] = p.Value
	}

	var xs, ys []float64
	for _, p := range a {
		y, ok := byDate[p.Date]
		if !ok || !isDefined(p.Value) || !isDefined(y) {
			continue
		}
		xs = append(xs, p.Value)
		ys = append(ys, y)
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	if stat.Variance(xs, nil) == 0 || stat.Variance(ys, nil) == 0 {
		return math.NaN()
	}

	r := stat.Correlation(xs, ys, nil)
	// rounding can push |r| a hair past 1
	return math.Max(-1, math.Min(1, r))
}

// TopMomentum returns the n points with the largest absolute momentum, sign
// kept. Undefined points are left out; ties stay in date order.
func TopMomentum(momentum Series, n int) Series {
	out := make(Series, 0, len(momentum))
	for _, p := range momentum {
		if isDefined(p.Value) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(out[i].Value) > math.Abs(out[j].Value)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Normalize rebases prices so the first point equals base. A zero or
// undefined first point leaves every value undefined.
func Normalize(prices Series, base float64) Series {
	out := make(Series, len(prices))
	if len(prices) == 0 {
		return out
	}
	first := prices[0].Value
	for i, p := range prices {
		v := math.NaN()
		if first != 0 && isDefined(first) {
			v = p.Value / first * base
		}
		out[i] = Point{Date: p.Date, Value: v}
	}
	return out
}

func isDefined(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
