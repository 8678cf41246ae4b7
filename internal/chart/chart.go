// Package chart renders analysis results to PNG or SVG images.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
	"github.com/KaramelBytes/datalens-cli/internal/utils"
)

// Default image size in pixels.
const (
	DefaultWidth  = 900
	DefaultHeight = 500
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("nothing to plot")

// Renderer is satisfied by go-chart's Chart and BarChart.
type Renderer interface {
	Render(rp gochart.RendererProvider, w io.Writer) error
}

// Options sets the image size. Zero values take the defaults.
type Options struct {
	Width  int
	Height int
}

func (o Options) size() (int, int) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return w, h
}

var palette = []drawing.Color{
	gochart.ColorBlue,
	gochart.ColorGreen,
	gochart.ColorRed,
	gochart.ColorOrange,
	gochart.ColorCyan,
	gochart.ColorAlternateGray,
}

func colorAt(i int) drawing.Color { return palette[i%len(palette)] }

// pointStyle renders points only, no connecting line.
func pointStyle(col drawing.Color) gochart.Style {
	return gochart.Style{
		StrokeWidth: gochart.Disabled,
		DotWidth:    4,
		DotColor:    col,
	}
}

var padding = gochart.Style{Padding: gochart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16}}

// FormatFor picks the renderer from the file extension.
func FormatFor(path string) (gochart.RendererProvider, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return gochart.PNG, nil
	case ".svg":
		return gochart.SVG, nil
	}
	return nil, fmt.Errorf("unsupported chart format %q (use .png or .svg)", filepath.Ext(path))
}

// Save renders r into path, choosing PNG or SVG by extension.
func Save(path string, r Renderer) error {
	rp, err := FormatFor(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := r.Render(rp, &buf); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}

// span returns a non-degenerate range covering lo..hi.
func span(lo, hi float64) *gochart.ContinuousRange {
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	return &gochart.ContinuousRange{Min: lo, Max: hi}
}

// Histogram draws the bins as a filled step outline with the scaled density
// curve, if present, on top.
func Histogram(d analysis.Distribution, opt Options) (Renderer, error) {
	h := d.Histogram
	if len(h.Bins) == 0 {
		return nil, ErrNoData
	}
	xs := []float64{h.Bins[0].Lo}
	ys := []float64{0}
	top := 0.0
	for _, b := range h.Bins {
		xs = append(xs, b.Lo, b.Hi)
		ys = append(ys, float64(b.Count), float64(b.Count))
		top = math.Max(top, float64(b.Count))
	}
	last := h.Bins[len(h.Bins)-1]
	xs = append(xs, last.Hi)
	ys = append(ys, 0)

	series := []gochart.Series{gochart.ContinuousSeries{
		Name:    "count",
		XValues: xs,
		YValues: ys,
		Style: gochart.Style{
			StrokeColor: gochart.ColorBlue,
			FillColor:   gochart.ColorBlue.WithAlpha(96),
			StrokeWidth: 1,
		},
	}}
	if d.Density != nil && len(d.Density.Points) > 1 {
		dx := make([]float64, len(d.Density.Points))
		dy := make([]float64, len(d.Density.Points))
		for i, p := range d.Density.Points {
			dx[i], dy[i] = p.X, p.Count
			top = math.Max(top, p.Count)
		}
		series = append(series, gochart.ContinuousSeries{
			Name:    "density",
			XValues: dx,
			YValues: dy,
			Style:   gochart.Style{StrokeColor: gochart.ColorRed, StrokeWidth: 2},
		})
	}
	w, ht := opt.size()
	ch := gochart.Chart{
		Title:      "Distribution of " + h.Column,
		Width:      w,
		Height:     ht,
		Background: padding,
		XAxis:      gochart.XAxis{Name: h.Column, Range: span(h.Bins[0].Lo, last.Hi)},
		YAxis:      gochart.YAxis{Name: "count", Range: span(0, top*1.05)},
		Series:     series,
	}
	ch.Elements = []gochart.Renderable{legend(ch)}
	return ch, nil
}

// Scatter draws the points, one color per group, and each fitted line with
// its confidence bounds as dashed lines when withRibbon is set.
func Scatter(x, y string, pts []analysis.Point, fits []analysis.Fit, withRibbon bool, opt Options) (Renderer, error) {
	if len(pts) == 0 {
		return nil, ErrNoData
	}
	groups := []string{}
	byGroup := map[string][2][]float64{}
	xlo, xhi := pts[0].X, pts[0].X
	ylo, yhi := pts[0].Y, pts[0].Y
	for _, p := range pts {
		g := p.Group
		if g == "" {
			g = analysis.AllGroup
		}
		cur, ok := byGroup[g]
		if !ok {
			groups = append(groups, g)
		}
		cur[0] = append(cur[0], p.X)
		cur[1] = append(cur[1], p.Y)
		byGroup[g] = cur
		xlo, xhi = math.Min(xlo, p.X), math.Max(xhi, p.X)
		ylo, yhi = math.Min(ylo, p.Y), math.Max(yhi, p.Y)
	}
	colorOf := map[string]drawing.Color{}
	var series []gochart.Series
	for i, g := range groups {
		colorOf[g] = colorAt(i)
		v := byGroup[g]
		xs, ys := v[0], v[1]
		if len(xs) == 1 {
			// go-chart needs two values to derive a range.
			xs, ys = append(xs, xs[0]), append(ys, ys[0])
		}
		series = append(series, gochart.ContinuousSeries{Name: g, XValues: xs, YValues: ys, Style: pointStyle(colorOf[g])})
	}
	for _, f := range fits {
		if len(f.Ribbon) < 2 {
			continue
		}
		col, ok := colorOf[f.Group]
		if !ok {
			col = colorAt(0)
		}
		rx := make([]float64, len(f.Ribbon))
		fit := make([]float64, len(f.Ribbon))
		lower := make([]float64, len(f.Ribbon))
		upper := make([]float64, len(f.Ribbon))
		for i, p := range f.Ribbon {
			rx[i], fit[i], lower[i], upper[i] = p.X, p.Fit, p.Lower, p.Upper
			if withRibbon {
				ylo, yhi = math.Min(ylo, p.Lower), math.Max(yhi, p.Upper)
			}
		}
		series = append(series, gochart.ContinuousSeries{
			Name:    fmt.Sprintf("%s fit (R²=%.2f)", f.Group, f.RSquared),
			XValues: rx,
			YValues: fit,
			Style:   gochart.Style{StrokeColor: col, StrokeWidth: 2},
		})
		if withRibbon {
			band := gochart.Style{StrokeColor: col.WithAlpha(128), StrokeWidth: 1, StrokeDashArray: []float64{4, 4}}
			series = append(series,
				gochart.ContinuousSeries{XValues: rx, YValues: lower, Style: band},
				gochart.ContinuousSeries{XValues: rx, YValues: upper, Style: band},
			)
		}
	}
	w, h := opt.size()
	ch := gochart.Chart{
		Title:      fmt.Sprintf("%s vs %s", y, x),
		Width:      w,
		Height:     h,
		Background: padding,
		XAxis:      gochart.XAxis{Name: x, Range: span(xlo, xhi)},
		YAxis:      gochart.YAxis{Name: y, Range: span(ylo, yhi)},
		Series:     series,
	}
	ch.Elements = []gochart.Renderable{legend(ch)}
	return ch, nil
}

// Bars draws one bar per group and series pair. Labels join the group and
// series with "/" when a color grouping is present.
func Bars[C any](title string, g analysis.Grouping[C], value func(C) float64, opt Options) (Renderer, error) {
	var bars []gochart.Value
	lo, hi := 0.0, 0.0
	for _, row := range g.Rows {
		for i, s := range g.Series {
			cell, ok := row.Cells[s]
			if !ok {
				continue
			}
			label := row.Key
			if g.Color != "" {
				label = row.Key + "/" + s
			}
			v := value(cell)
			lo, hi = math.Min(lo, v), math.Max(hi, v)
			bars = append(bars, gochart.Value{
				Label: label,
				Value: v,
				Style: gochart.Style{FillColor: colorAt(i), StrokeColor: colorAt(i)},
			})
		}
	}
	if len(bars) == 0 {
		return nil, ErrNoData
	}
	w, h := opt.size()
	return gochart.BarChart{
		Title:      title,
		Width:      w,
		Height:     h,
		Background: padding,
		BarWidth:   barWidth(w, len(bars)),
		XAxis:      gochart.Style{FontSize: 9},
		YAxis:      gochart.YAxis{Range: span(lo, hi*1.05)},
		Bars:       bars,
	}, nil
}

func barWidth(width, n int) int {
	bw := (width - 120) / (n * 2)
	if bw > 80 {
		bw = 80
	}
	if bw < 8 {
		bw = 8
	}
	return bw
}

// Means draws group means as bars.
func Means(g analysis.Grouping[analysis.MeanCell], opt Options) (Renderer, error) {
	return Bars("Mean of "+g.Value, g, func(c analysis.MeanCell) float64 { return c.Mean }, opt)
}

// Sums draws group totals as bars.
func Sums(g analysis.Grouping[analysis.SumCell], opt Options) (Renderer, error) {
	return Bars("Total "+g.Value, g, func(c analysis.SumCell) float64 { return c.Sum }, opt)
}

// Medians draws group medians as bars; go-chart has no box glyph.
func Medians(g analysis.Grouping[analysis.BoxCell], opt Options) (Renderer, error) {
	return Bars("Median of "+g.Value, g, func(c analysis.BoxCell) float64 { return c.Median }, opt)
}

// Lines draws one line per series across the primary groups, which are
// placed at integer x positions and labeled with their keys.
func Lines[C any](title string, g analysis.Grouping[C], value func(C) float64, opt Options) (Renderer, error) {
	ch, err := lineChart(title, g, value, opt)
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func lineChart[C any](title string, g analysis.Grouping[C], value func(C) float64, opt Options) (gochart.Chart, error) {
	var series []gochart.Series
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, s := range g.Series {
		var xs, ys []float64
		for j, row := range g.Rows {
			cell, ok := row.Cells[s]
			if !ok {
				continue
			}
			v := value(cell)
			xs, ys = append(xs, float64(j)), append(ys, v)
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
		if len(xs) == 0 {
			continue
		}
		if len(xs) == 1 {
			xs, ys = append(xs, xs[0]), append(ys, ys[0])
		}
		col := colorAt(i)
		series = append(series, gochart.ContinuousSeries{
			Name:    s,
			XValues: xs,
			YValues: ys,
			Style:   gochart.Style{StrokeColor: col, StrokeWidth: 2, DotColor: col, DotWidth: 3},
		})
	}
	if len(series) == 0 {
		return gochart.Chart{}, ErrNoData
	}
	return groupChart(title, g.Group, g.Value, len(g.Rows), rowTicks(g), series, lo, hi, opt), nil
}

// groupChart lays out series over categorical x positions 0..n-1.
func groupChart(title, xName, yName string, n int, ticks []gochart.Tick, series []gochart.Series, lo, hi float64, opt Options) gochart.Chart {
	w, h := opt.size()
	ch := gochart.Chart{
		Title:      title,
		Width:      w,
		Height:     h,
		Background: padding,
		XAxis:      gochart.XAxis{Name: xName, Range: span(-0.5, float64(n)-0.5), Ticks: ticks},
		YAxis:      gochart.YAxis{Name: yName, Range: span(lo, hi)},
		Series:     series,
	}
	ch.Elements = []gochart.Renderable{legend(ch)}
	return ch
}

func rowTicks[C any](g analysis.Grouping[C]) []gochart.Tick {
	ticks := make([]gochart.Tick, len(g.Rows))
	for i, row := range g.Rows {
		ticks[i] = gochart.Tick{Value: float64(i), Label: row.Key}
	}
	return ticks
}

// legend lists only the named series, so band and interval segments stay
// out of it.
func legend(ch gochart.Chart) gochart.Renderable {
	named := ch
	named.Series = nil
	for _, s := range ch.Series {
		if s.GetName() != "" {
			named.Series = append(named.Series, s)
		}
	}
	if len(named.Series) == 0 {
		return func(gochart.Renderer, gochart.Box, gochart.Style) {}
	}
	return gochart.Legend(&named)
}

// capHalf is half the width of an interval end cap in x units.
const capHalf = 0.06

// intervalSeries draws each valid mean CI as a vertical segment with end
// caps at pos(row, series). It also returns the y extent covered.
func intervalSeries(g analysis.Grouping[analysis.MeanCell], pos func(row, series int) float64) ([]gochart.Series, float64, float64) {
	var out []gochart.Series
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, s := range g.Series {
		style := gochart.Style{StrokeColor: colorAt(i), StrokeWidth: 1.5}
		for j, row := range g.Rows {
			c, ok := row.Cells[s]
			if !ok || !c.CIValid {
				continue
			}
			x, l, u := pos(j, i), c.Lower(), c.Upper()
			out = append(out,
				gochart.ContinuousSeries{XValues: []float64{x, x}, YValues: []float64{l, u}, Style: style},
				gochart.ContinuousSeries{XValues: []float64{x - capHalf, x + capHalf}, YValues: []float64{l, l}, Style: style},
				gochart.ContinuousSeries{XValues: []float64{x - capHalf, x + capHalf}, YValues: []float64{u, u}, Style: style},
			)
			lo, hi = math.Min(lo, l), math.Max(hi, u)
		}
	}
	return out, lo, hi
}

// MeanLines draws group means as one line per color group, with 95%
// confidence intervals as capped vertical segments when withCI is set.
func MeanLines(g analysis.Grouping[analysis.MeanCell], withCI bool, opt Options) (Renderer, error) {
	ch, err := lineChart("Mean of "+g.Value, g, func(c analysis.MeanCell) float64 { return c.Mean }, opt)
	if err != nil {
		return nil, err
	}
	if !withCI {
		return ch, nil
	}
	ci, lo, hi := intervalSeries(g, func(row, _ int) float64 { return float64(row) })
	if len(ci) == 0 {
		return ch, nil
	}
	r := ch.YAxis.Range.(*gochart.ContinuousRange)
	ch.Series = append(ch.Series, ci...)
	ch.YAxis.Range = span(math.Min(r.Min, lo), math.Max(r.Max, hi))
	return ch, nil
}

// MeanIntervals draws each group mean as a point with its 95% confidence
// interval. Color groups are spread side by side around each primary group.
func MeanIntervals(g analysis.Grouping[analysis.MeanCell], opt Options) (Renderer, error) {
	n := len(g.Series)
	pos := func(row, series int) float64 {
		if n <= 1 {
			return float64(row)
		}
		return float64(row) + (float64(series)-float64(n-1)/2)*0.6/float64(n)
	}
	var series []gochart.Series
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, s := range g.Series {
		var xs, ys []float64
		for j, row := range g.Rows {
			if c, ok := row.Cells[s]; ok {
				xs, ys = append(xs, pos(j, i)), append(ys, c.Mean)
				lo, hi = math.Min(lo, c.Mean), math.Max(hi, c.Mean)
			}
		}
		if len(xs) == 0 {
			continue
		}
		if len(xs) == 1 {
			xs, ys = append(xs, xs[0]), append(ys, ys[0])
		}
		series = append(series, gochart.ContinuousSeries{Name: s, XValues: xs, YValues: ys, Style: pointStyle(colorAt(i))})
	}
	if len(series) == 0 {
		return nil, ErrNoData
	}
	ci, clo, chi := intervalSeries(g, pos)
	series = append(series, ci...)
	lo, hi = math.Min(lo, clo), math.Max(hi, chi)
	return groupChart("Mean of "+g.Value+" (95% CI)", g.Group, g.Value, len(g.Rows), rowTicks(g), series, lo, hi, opt), nil
}
