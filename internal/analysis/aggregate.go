package analysis

import (
	"math"
	"sort"

	"github.com/KaramelBytes/datalens-cli/internal/dataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// AggregateSpec selects the value column and the optional primary and
// color grouping columns of an aggregation.
type AggregateSpec struct {
	Value string
	Group string
	Color string
}

// Grouping is a cross-tabulation: one GroupRow per primary group value,
// each with one cell per color group value that has observations.
type Grouping[C any] struct {
	Value  string        `json:"value"`
	Group  string        `json:"group,omitempty"`
	Color  string        `json:"color,omitempty"`
	Series []string      `json:"series"`
	Rows   []GroupRow[C] `json:"rows"`
}

// GroupRow holds the cells of one primary group. Cells without
// observations are absent from the map.
type GroupRow[C any] struct {
	Key   string       `json:"key"`
	Cells map[string]C `json:"cells"`
}

// MeanCell is a sample mean with a normal-approximation 95% CI. The
// half-width uses the unbiased (n−1) variance; CIValid is false when n < 2.
type MeanCell struct {
	N         int     `json:"n"`
	Mean      float64 `json:"mean"`
	HalfWidth float64 `json:"half_width"`
	CIValid   bool    `json:"ci_valid"`
}

// Lower returns the lower CI bound.
func (c MeanCell) Lower() float64 { return c.Mean - c.HalfWidth }

// Upper returns the upper CI bound.
func (c MeanCell) Upper() float64 { return c.Mean + c.HalfWidth }

// BoxCell is a five-number summary with Tukey whiskers: the most extreme
// observations still inside Q1−1.5·IQR and Q3+1.5·IQR.
type BoxCell struct {
	N           int       `json:"n"`
	Min         float64   `json:"min"`
	Q1          float64   `json:"q1"`
	Median      float64   `json:"median"`
	Q3          float64   `json:"q3"`
	Max         float64   `json:"max"`
	IQR         float64   `json:"iqr"`
	WhiskerLow  float64   `json:"whisker_low"`
	WhiskerHigh float64   `json:"whisker_high"`
	Outliers    []float64 `json:"outliers,omitempty"`
}

// SumCell is the total of a group's values, as drawn by plain bar charts.
type SumCell struct {
	N   int     `json:"n"`
	Sum float64 `json:"sum"`
}

// GroupMeans computes mean and CI per cell.
func GroupMeans(rows []dataset.Row, spec AggregateSpec) Grouping[MeanCell] {
	return aggregate(rows, spec, meanCell)
}

// GroupBoxplots computes boxplot statistics per cell.
func GroupBoxplots(rows []dataset.Row, spec AggregateSpec) Grouping[BoxCell] {
	return aggregate(rows, spec, boxCell)
}

// GroupSums totals values per cell.
func GroupSums(rows []dataset.Row, spec AggregateSpec) Grouping[SumCell] {
	return aggregate(rows, spec, func(vals []float64) SumCell {
		return SumCell{N: len(vals), Sum: floats.Sum(vals)}
	})
}

func aggregate[C any](rows []dataset.Row, spec AggregateSpec, cell func([]float64) C) Grouping[C] {
	keyOf := func(r dataset.Row, col string) string {
		if col == "" {
			return AllGroup
		}
		return r.Get(col).String()
	}
	groups := map[string]struct{}{}
	series := map[string]struct{}{}
	vals := map[[2]string][]float64{}
	for _, r := range rows {
		g, s := keyOf(r, spec.Group), keyOf(r, spec.Color)
		groups[g] = struct{}{}
		series[s] = struct{}{}
		if v, ok := r.Get(spec.Value).Float(); ok {
			k := [2]string{g, s}
			vals[k] = append(vals[k], v)
		}
	}
	out := Grouping[C]{Value: spec.Value, Group: spec.Group, Color: spec.Color, Series: sortedKeys(series)}
	for _, g := range sortedKeys(groups) {
		row := GroupRow[C]{Key: g, Cells: map[string]C{}}
		for _, s := range out.Series {
			if v := vals[[2]string{g, s}]; len(v) > 0 {
				row.Cells[s] = cell(v)
			}
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

func meanCell(vals []float64) MeanCell {
	n := len(vals)
	c := MeanCell{N: n, Mean: stat.Mean(vals, nil)}
	if n >= 2 {
		_, variance := stat.MeanVariance(vals, nil)
		if hw := z95 * math.Sqrt(variance/float64(n)); !math.IsNaN(hw) {
			c.HalfWidth = hw
			c.CIValid = true
		}
	}
	return c
}

func boxCell(vals []float64) BoxCell {
	sorted := sortedCopy(vals)
	n := len(sorted)
	c := BoxCell{
		N:      n,
		Min:    sorted[0],
		Max:    sorted[n-1],
		Q1:     Percentile(sorted, 0.25),
		Median: Percentile(sorted, 0.5),
		Q3:     Percentile(sorted, 0.75),
	}
	c.IQR = c.Q3 - c.Q1
	lowFence := c.Q1 - 1.5*c.IQR
	highFence := c.Q3 + 1.5*c.IQR
	c.WhiskerLow, c.WhiskerHigh = c.Q1, c.Q3
	for _, v := range sorted {
		if v >= lowFence {
			c.WhiskerLow = v
			break
		}
	}
	for i := n - 1; i >= 0; i-- {
		if sorted[i] <= highFence {
			c.WhiskerHigh = sorted[i]
			break
		}
	}
	for _, v := range sorted {
		if v < lowFence || v > highFence {
			c.Outliers = append(c.Outliers, v)
		}
	}
	return c
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
