package analysis

import (
	"math"
	"sort"

	"github.com/KaramelBytes/datalens-cli/internal/dataset"
	"gonum.org/v1/gonum/stat"
)

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"` // row-major, Values[i][j]
	N       [][]int     `json:"n"`      // pairwise-complete observation counts
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A string  `json:"a"`
	B string  `json:"b"`
	R float64 `json:"r"`
	N int     `json:"n"`
}

// Correlate computes Pearson's r for every pair of cols over rows. Each pair
// uses only the rows where both cells parse (pairwise-complete). Pairs with
// fewer than two observations or zero variance report r = 0; the diagonal
// is 1 by definition.
func Correlate(rows []dataset.Row, cols []string) CorrMatrix {
	n := len(cols)
	m := CorrMatrix{
		Columns: append([]string(nil), cols...),
		Values:  make([][]float64, n),
		N:       make([][]int, n),
	}
	for i := range m.Values {
		m.Values[i] = make([]float64, n)
		m.N[i] = make([]int, n)
	}
	// parsed[j][i] holds column j of row i; ok[j][i] marks parse success.
	parsed := make([][]float64, n)
	ok := make([][]bool, n)
	for j, c := range cols {
		parsed[j] = make([]float64, len(rows))
		ok[j] = make([]bool, len(rows))
		for i, r := range rows {
			parsed[j][i], ok[j][i] = r.Get(c).Float()
		}
	}
	xs := make([]float64, 0, len(rows))
	ys := make([]float64, 0, len(rows))
	for a := 0; a < n; a++ {
		m.Values[a][a] = 1
		for i := range rows {
			if ok[a][i] {
				m.N[a][a]++
			}
		}
		for b := a + 1; b < n; b++ {
			xs, ys = xs[:0], ys[:0]
			for i := range rows {
				if ok[a][i] && ok[b][i] {
					xs = append(xs, parsed[a][i])
					ys = append(ys, parsed[b][i])
				}
			}
			r := pearson(xs, ys)
			m.Values[a][b], m.Values[b][a] = r, r
			m.N[a][b], m.N[b][a] = len(xs), len(xs)
		}
	}
	return m
}

func pearson(xs, ys []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r
}

// R returns the correlation between a and b in either order.
func (m CorrMatrix) R(a, b string) (float64, bool) {
	i, j := m.index(a), m.index(b)
	if i < 0 || j < 0 {
		return 0, false
	}
	return m.Values[i][j], true
}

func (m CorrMatrix) index(col string) int {
	for i, c := range m.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// TopPairs lists the k strongest off-diagonal pairs by |r|. k <= 0 lists all.
func (m CorrMatrix) TopPairs(k int) []PairCorr {
	var pairs []PairCorr
	n := len(m.Columns)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, PairCorr{A: m.Columns[i], B: m.Columns[j], R: m.Values[i][j], N: m.N[i][j]})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
	if k > 0 && len(pairs) > k {
		pairs = pairs[:k]
	}
	return pairs
}
