package analysis

import (
	"math"
	"sort"

	"github.com/KaramelBytes/datalens-cli/internal/dataset"
)

// Percentile returns the p-th quantile (0..1) of sorted values using linear
// interpolation between the closest ranks: index = p·(n−1).
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}

// floatValues returns the values of col that parse as finite numbers, in
// row order. Unparseable and missing cells are skipped.
func floatValues(rows []dataset.Row, col string) []float64 {
	out := make([]float64, 0, len(rows))
	for _, r := range rows {
		if f, ok := r.Get(col).Float(); ok {
			out = append(out, f)
		}
	}
	return out
}

func sortedCopy(vals []float64) []float64 {
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	return cp
}
