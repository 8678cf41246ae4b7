package analysis

import (
	"math"
	"strconv"

	"github.com/KaramelBytes/datalens-cli/internal/dataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultDensityPoints is the number of positions a density curve is
// evaluated at.
const DefaultDensityPoints = 80

// Binning selects histogram bins by fixed width or by count. Width wins
// when both are set; neither set means DefaultBinWidth.
type Binning struct {
	Width float64
	Count int
}

// DefaultBinWidth is the bin width used when Binning is empty.
const DefaultBinWidth = 10

// MaxBins bounds the bin count in both modes. A width that would need more
// bins is widened to span/MaxBins.
const MaxBins = 1000

// Bin is one histogram bar covering [Lo, Hi).
type Bin struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Mid   float64 `json:"mid"`
	Label string  `json:"label"`
	Count int     `json:"count"`
}

// Histogram is the binned distribution of a column.
type Histogram struct {
	Column string  `json:"column"`
	Width  float64 `json:"width"`
	N      int     `json:"n"`
	Bins   []Bin   `json:"bins"`
}

// DensityPoint is one evaluation of a kernel density estimate. Count is the
// density scaled to histogram counts (density·n·binWidth) for overlays.
type DensityPoint struct {
	X       float64 `json:"x"`
	Density float64 `json:"density"`
	Count   float64 `json:"count,omitempty"`
}

// Density is a Gaussian kernel density estimate.
type Density struct {
	Bandwidth float64        `json:"bandwidth"`
	Points    []DensityPoint `json:"points"`
}

// Distribution combines a histogram with an optional density overlay.
type Distribution struct {
	Histogram Histogram `json:"histogram"`
	Density   *Density  `json:"density,omitempty"`
}

// BuildHistogram bins the parseable values of col. Bin width is coerced to
// at least 1 and bin count to at least 3; neither mode exceeds MaxBins, and a
// non-finite width falls back to DefaultBinWidth. Every bin from min to max
// is emitted, empty or not. It returns false when no value parses.
func BuildHistogram(rows []dataset.Row, col string, b Binning) (Histogram, bool) {
	h, ok := histogramOf(floatValues(rows, col), b)
	h.Column = col
	return h, ok
}

func histogramOf(vals []float64, b Binning) (Histogram, bool) {
	if len(vals) == 0 {
		return Histogram{}, false
	}
	lo, hi := floats.Min(vals), floats.Max(vals)
	span := hi - lo
	if math.IsInf(span, 0) {
		return Histogram{}, false
	}

	var width float64
	var nbins int
	switch {
	case b.Width > 0 || b.Count <= 0:
		width = b.Width
		if width == 0 || math.IsNaN(width) || math.IsInf(width, 0) {
			width = DefaultBinWidth
		}
		if width < 1 {
			width = 1
		}
		if span/width >= MaxBins {
			nbins = MaxBins
			width = span / MaxBins
		} else {
			nbins = int(math.Floor(span/width)) + 1
		}
	default:
		nbins = min(max(b.Count, 3), MaxBins)
		width = span / float64(nbins)
		if width == 0 {
			// Constant data: one bin holds everything.
			nbins = 1
		}
	}

	h := Histogram{Width: width, N: len(vals), Bins: make([]Bin, nbins)}
	for i := range h.Bins {
		blo := lo + float64(i)*width
		bhi := blo + width
		h.Bins[i] = Bin{Lo: blo, Hi: bhi, Mid: (blo + bhi) / 2, Label: formatNum(blo) + "-" + formatNum(bhi)}
	}
	for _, v := range vals {
		idx := 0
		if width > 0 {
			idx = int(math.Floor((v - lo) / width))
		}
		if idx >= nbins {
			idx = nbins - 1
		}
		if idx < 0 {
			idx = 0
		}
		h.Bins[idx].Count++
	}
	return h, true
}

// KDE estimates the density of vals with a Gaussian kernel and Silverman's
// bandwidth h = 1.06·σ·n^(−1/5), σ the population standard deviation. It is
// evaluated at points evenly spaced positions over [min, max]. It returns
// false for fewer than two values or a zero bandwidth.
func KDE(vals []float64, points int) (Density, bool) {
	n := len(vals)
	if n < 2 {
		return Density{}, false
	}
	sigma := math.Sqrt(stat.PopVariance(vals, nil))
	h := 1.06 * sigma * math.Pow(float64(n), -1.0/5)
	if h == 0 || math.IsNaN(h) {
		return Density{}, false
	}
	if points < 2 {
		points = DefaultDensityPoints
	}
	xs := floats.Span(make([]float64, points), floats.Min(vals), floats.Max(vals))
	d := Density{Bandwidth: h, Points: make([]DensityPoint, points)}
	for i, x := range xs {
		var sum float64
		for _, v := range vals {
			sum += distuv.Normal{Mu: v, Sigma: h}.Prob(x)
		}
		d.Points[i] = DensityPoint{X: x, Density: sum / float64(n)}
	}
	return d, true
}

// BuildDistribution computes the histogram of col and, if withDensity is
// set, a density curve scaled to the histogram's counts.
func BuildDistribution(rows []dataset.Row, col string, b Binning, withDensity bool, points int) (Distribution, bool) {
	vals := floatValues(rows, col)
	h, ok := histogramOf(vals, b)
	if !ok {
		return Distribution{}, false
	}
	h.Column = col
	dist := Distribution{Histogram: h}
	if withDensity {
		if d, ok := KDE(vals, points); ok {
			scale := float64(len(vals)) * h.Width
			for i := range d.Points {
				d.Points[i].Count = d.Points[i].Density * scale
			}
			dist.Density = &d
		}
	}
	return dist, true
}

func formatNum(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
