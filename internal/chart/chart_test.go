package chart

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
	"github.com/KaramelBytes/datalens-cli/internal/dataset"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func sample() *dataset.Table {
	return dataset.FromRecords([]string{"g", "x", "y"}, [][]string{
		{"a", "1", "2.1"},
		{"a", "2", "3.9"},
		{"a", "3", "6.2"},
		{"a", "4", "7.8"},
		{"b", "1", "1"},
		{"b", "2", "1.4"},
		{"b", "3", "2.2"},
		{"b", "5", "2.9"},
	})
}

func TestHistogramSavesPNGAndSVG(t *testing.T) {
	dist, ok := analysis.BuildDistribution(sample().Rows(), "y", analysis.Binning{Width: 2}, true, 20)
	require.True(t, ok)
	r, err := Histogram(dist, Options{Width: 400, Height: 300})
	require.NoError(t, err)

	dir := t.TempDir()
	png := filepath.Join(dir, "hist.png")
	require.NoError(t, Save(png, r))
	data, err := os.ReadFile(png)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic))

	svg := filepath.Join(dir, "hist.svg")
	require.NoError(t, Save(svg, r))
	data, err = os.ReadFile(svg)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}

func TestHistogramConstantColumn(t *testing.T) {
	tbl := dataset.FromRecords([]string{"v"}, [][]string{{"3"}, {"3"}})
	dist, ok := analysis.BuildDistribution(tbl.Rows(), "v", analysis.Binning{Count: 4}, true, 10)
	require.True(t, ok)
	r, err := Histogram(dist, Options{})
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, r.Render(mustFormat(t, "x.png"), &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestScatterWithFits(t *testing.T) {
	rows := sample().Rows()
	pts := analysis.Scatter(rows, "x", "y", "g")
	fits := analysis.Regress(rows, "x", "y", analysis.RegressionOptions{Group: "g"})
	require.Len(t, fits, 2)

	r, err := Scatter("x", "y", pts, fits, true, Options{Width: 500, Height: 400})
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, r.Render(mustFormat(t, "s.png"), &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))

	_, err = Scatter("x", "y", nil, nil, false, Options{})
	assert.True(t, errors.Is(err, ErrNoData))
}

func TestScatterSinglePoint(t *testing.T) {
	r, err := Scatter("x", "y", []analysis.Point{{X: 1, Y: 1}}, nil, false, Options{})
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, r.Render(mustFormat(t, "s.svg"), &buf))
	assert.True(t, strings.Contains(buf.String(), "<svg"))
}

func TestBarCharts(t *testing.T) {
	rows := sample().Rows()
	spec := analysis.AggregateSpec{Value: "y", Group: "g"}

	means, err := Means(analysis.GroupMeans(rows, spec), Options{})
	require.NoError(t, err)
	sums, err := Sums(analysis.GroupSums(rows, spec), Options{})
	require.NoError(t, err)
	medians, err := Medians(analysis.GroupBoxplots(rows, analysis.AggregateSpec{Value: "y", Group: "g", Color: "x"}), Options{})
	require.NoError(t, err)

	lines, err := MeanLines(analysis.GroupMeans(rows, analysis.AggregateSpec{Value: "y", Group: "x", Color: "g"}), false, Options{})
	require.NoError(t, err)

	for _, r := range []Renderer{means, sums, medians, lines} {
		var buf bytes.Buffer
		require.NoError(t, r.Render(mustFormat(t, "b.png"), &buf))
		assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
	}

	empty := analysis.GroupMeans(nil, spec)
	_, err = Means(empty, Options{})
	assert.True(t, errors.Is(err, ErrNoData))
}

func TestMeanConfidenceIntervals(t *testing.T) {
	g := analysis.GroupMeans(sample().Rows(), analysis.AggregateSpec{Value: "y", Group: "g"})
	a := g.Rows[0].Cells[analysis.AllGroup]
	require.True(t, a.CIValid)

	r, err := MeanIntervals(g, Options{})
	require.NoError(t, err)
	ch, ok := r.(gochart.Chart)
	require.True(t, ok)
	// one point series plus a segment and two caps per group
	assert.Len(t, ch.Series, 1+3*2)
	rng := ch.YAxis.Range.(*gochart.ContinuousRange)
	assert.LessOrEqual(t, rng.Min, a.Lower())
	assert.GreaterOrEqual(t, rng.Max, a.Upper())

	r, err = MeanLines(g, true, Options{})
	require.NoError(t, err)
	ch = r.(gochart.Chart)
	assert.Len(t, ch.Series, 1+3*2)
	rng = ch.YAxis.Range.(*gochart.ContinuousRange)
	assert.LessOrEqual(t, rng.Min, a.Lower())

	for _, name := range []string{"ci.png", "ci.svg"} {
		var buf bytes.Buffer
		require.NoError(t, r.Render(mustFormat(t, name), &buf))
		assert.NotZero(t, buf.Len())
	}

	_, err = MeanIntervals(analysis.GroupMeans(nil, analysis.AggregateSpec{Value: "y"}), Options{})
	assert.True(t, errors.Is(err, ErrNoData))
}

func TestFormatFor(t *testing.T) {
	_, err := FormatFor("chart.PNG")
	assert.NoError(t, err)
	_, err = FormatFor("chart.jpg")
	assert.Error(t, err)
	assert.Error(t, Save(filepath.Join(t.TempDir(), "c.gif"), nil))
}

func mustFormat(t *testing.T, name string) gochart.RendererProvider {
	t.Helper()
	rp, err := FormatFor(name)
	require.NoError(t, err)
	return rp
}
