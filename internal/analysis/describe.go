package analysis

import (
	"math"

	"github.com/KaramelBytes/datalens-cli/internal/dataset"
	"gonum.org/v1/gonum/stat"
)

// Summary holds descriptive statistics for one numeric column. SD and SE use
// the population variance (divide by n).
type Summary struct {
	Column   string  `json:"column"`
	N        int     `json:"n"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	SD       float64 `json:"sd"`
	SE       float64 `json:"se"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Q1       float64 `json:"q1"`
	Q3       float64 `json:"q3"`
	Skewness float64 `json:"skewness"`
	Kurtosis float64 `json:"kurtosis"` // excess
}

// Describe summarizes the parseable values of col in rows. It returns false
// when no value parses, which callers render as "no data".
func Describe(rows []dataset.Row, col string) (Summary, bool) {
	vals := floatValues(rows, col)
	s, ok := describeValues(vals)
	s.Column = col
	return s, ok
}

func describeValues(vals []float64) (Summary, bool) {
	n := len(vals)
	if n == 0 {
		return Summary{}, false
	}
	mean, variance := stat.PopMeanVariance(vals, nil)
	sd := math.Sqrt(variance)
	sorted := sortedCopy(vals)
	s := Summary{
		N:      n,
		Mean:   mean,
		SD:     sd,
		SE:     sd / math.Sqrt(float64(n)),
		Min:    sorted[0],
		Max:    sorted[n-1],
		Median: Percentile(sorted, 0.5),
		Q1:     Percentile(sorted, 0.25),
		Q3:     Percentile(sorted, 0.75),
	}
	// Standardized moments are 0/0 for constant data; report them as 0.
	if sd > 0 {
		var m3, m4 float64
		for _, v := range vals {
			z := (v - mean) / sd
			z2 := z * z
			m3 += z2 * z
			m4 += z2 * z2
		}
		s.Skewness = m3 / float64(n)
		s.Kurtosis = m4/float64(n) - 3
	}
	return s, true
}
