package analysis

import (
	"math"
	"sort"

	"github.com/KaramelBytes/datalens-cli/internal/dataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	// AllGroup labels the single group used when no grouping column is set.
	AllGroup = "All"
	// z95 is the two-sided 95% normal quantile used for every interval.
	z95 = 1.96
	// DefaultRibbonPoints is the number of x positions a ribbon is sampled at.
	DefaultRibbonPoints = 50
	// minRegressionPoints is the smallest group a line is fitted for.
	minRegressionPoints = 3
)

// Point is one scatter observation.
type Point struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Group string  `json:"group,omitempty"`
}

// RibbonPoint is the fitted value and its 95% confidence bounds at X.
type RibbonPoint struct {
	X     float64 `json:"x"`
	Fit   float64 `json:"fit"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Fit is an ordinary least squares line for one group.
type Fit struct {
	Group     string        `json:"group"`
	N         int           `json:"n"`
	Slope     float64       `json:"slope"`
	Intercept float64       `json:"intercept"`
	RSquared  float64       `json:"r_squared"`
	SE        float64       `json:"se"` // residual standard error, n−2 df
	MeanX     float64       `json:"mean_x"`
	Sxx       float64       `json:"sxx"`
	Ribbon    []RibbonPoint `json:"ribbon"`
}

// RegressionOptions configures Regress.
type RegressionOptions struct {
	// Group fits one line per distinct value of this column when set.
	Group string
	// RibbonPoints is the number of x positions sampled for the ribbon.
	RibbonPoints int
}

// Scatter returns the rows where both x and y parse, tagged with the
// stringified group value when group is set.
func Scatter(rows []dataset.Row, x, y, group string) []Point {
	out := make([]Point, 0, len(rows))
	for _, r := range rows {
		xv, okx := r.Get(x).Float()
		yv, oky := r.Get(y).Float()
		if !okx || !oky {
			continue
		}
		p := Point{X: xv, Y: yv}
		if group != "" {
			p.Group = r.Get(group).String()
		}
		out = append(out, p)
	}
	return out
}

// Regress fits y on x, once overall or once per group in sorted group order.
// Groups with fewer than three paired observations, or with constant x, are
// skipped: no line is the expected result for them.
func Regress(rows []dataset.Row, x, y string, opt RegressionOptions) []Fit {
	pts := Scatter(rows, x, y, opt.Group)
	byGroup := map[string][]Point{}
	for _, p := range pts {
		key := AllGroup
		if opt.Group != "" {
			key = p.Group
		}
		byGroup[key] = append(byGroup[key], p)
	}
	keys := make([]string, 0, len(byGroup))
	for k := range byGroup {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var fits []Fit
	for _, k := range keys {
		if f, ok := FitLine(byGroup[k], opt.RibbonPoints); ok {
			f.Group = k
			fits = append(fits, f)
		}
	}
	return fits
}

// FitLine fits an OLS line through pts with a pointwise 95% confidence
// ribbon ŷ ± 1.96·se·sqrt(1/n + (x−x̄)²/Sxx).
func FitLine(pts []Point, ribbonPoints int) (Fit, bool) {
	n := len(pts)
	if n < minRegressionPoints {
		return Fit{}, false
	}
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, p := range pts {
		xs[i], ys[i] = p.X, p.Y
	}
	meanX := stat.Mean(xs, nil)
	var sxx float64
	for _, v := range xs {
		d := v - meanX
		sxx += d * d
	}
	if sxx == 0 {
		return Fit{}, false
	}
	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	var ssr float64
	for i := range xs {
		res := ys[i] - (intercept + slope*xs[i])
		ssr += res * res
	}
	se := math.Sqrt(ssr / float64(n-2))
	f := Fit{
		N:         n,
		Slope:     slope,
		Intercept: intercept,
		SE:        se,
		MeanX:     meanX,
		Sxx:       sxx,
	}
	if r2 := stat.RSquared(xs, ys, nil, intercept, slope); !math.IsNaN(r2) && !math.IsInf(r2, 0) {
		f.RSquared = r2
	}
	if ribbonPoints < 2 {
		ribbonPoints = DefaultRibbonPoints
	}
	grid := floats.Span(make([]float64, ribbonPoints), floats.Min(xs), floats.Max(xs))
	f.Ribbon = make([]RibbonPoint, len(grid))
	for i, gx := range grid {
		fit := intercept + slope*gx
		d := gx - meanX
		half := z95 * se * math.Sqrt(1/float64(n)+d*d/sxx)
		f.Ribbon[i] = RibbonPoint{X: gx, Fit: fit, Lower: fit - half, Upper: fit + half}
	}
	return f, true
}
