package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/KaramelBytes/datalens-cli/internal/dataset"
)

// ReportOptions controls what Build includes.
type ReportOptions struct {
	// Name labels the dataset (file name or project name).
	Name string
	// Filters is a human-readable rendering of the active filter set.
	Filters string
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
	// Correlations computes the Pearson matrix among numeric columns.
	Correlations bool
	// TopValues caps the category counts listed per categorical column.
	TopValues int
	// OutlierThreshold is the robust |z| cutoff; negative disables outlier counts.
	OutlierThreshold float64
	// Explain returns a variable description for a column, if known.
	Explain func(col string) string
}

// DefaultReportOptions returns reasonable defaults for a dataset report.
func DefaultReportOptions() ReportOptions {
	return ReportOptions{SampleRows: 5, Correlations: true, TopValues: 8, OutlierThreshold: DefaultOutlierThreshold}
}

// Report is a markdown-friendly analysis of a filtered dataset.
type Report struct {
	Name     string          `json:"name"`
	TableID  string          `json:"table_id"`
	Rows     int             `json:"rows"`
	Filtered int             `json:"filtered"`
	Filters  string          `json:"filters,omitempty"`
	Cols     []ColumnSummary `json:"columns"`
	Corr     *CorrMatrix     `json:"correlations,omitempty"`
	Samples  [][]string      `json:"samples,omitempty"`
	Warnings []string        `json:"warnings,omitempty"`
}

// ColumnSummary captures inferred type and statistics per column.
type ColumnSummary struct {
	Name        string          `json:"name"`
	Kind        dataset.Kind    `json:"kind"`
	Identifier  bool            `json:"identifier,omitempty"`
	NonNull     int             `json:"non_null"`
	Missing     int             `json:"missing"`
	Unique      int             `json:"unique"`
	Explanation string          `json:"explanation,omitempty"`
	Stats       *Summary        `json:"stats,omitempty"`
	Outliers    *Outliers       `json:"outliers,omitempty"`
	TopValues   []CategoryCount `json:"top_values,omitempty"`
}

// CategoryCount is one categorical value and how many rows hold it.
type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Build analyzes rows, the filtered subset of t.
func Build(t *dataset.Table, rows []dataset.Row, opt ReportOptions) *Report {
	rep := &Report{
		Name:     opt.Name,
		TableID:  t.ID(),
		Rows:     t.Len(),
		Filtered: len(rows),
		Filters:  opt.Filters,
	}
	topN := opt.TopValues
	if topN <= 0 {
		topN = 8
	}
	for _, col := range t.Columns() {
		kind, _ := t.Kind(col)
		cs := ColumnSummary{Name: col, Kind: kind, Identifier: dataset.IsIdentifier(col)}
		if opt.Explain != nil {
			cs.Explanation = opt.Explain(col)
		}
		cats := map[string]int{}
		for _, r := range rows {
			v := r.Get(col)
			if v.IsMissing() {
				cs.Missing++
				continue
			}
			cs.NonNull++
			cats[v.String()]++
		}
		cs.Unique = len(cats)
		switch kind {
		case dataset.Numeric:
			if s, ok := Describe(rows, col); ok {
				cs.Stats = &s
			}
			if opt.OutlierThreshold >= 0 {
				if o, ok := RobustOutliers(floatValues(rows, col), opt.OutlierThreshold); ok {
					cs.Outliers = &o
				}
			}
		case dataset.Categorical:
			cs.TopValues = topCounts(cats, topN)
		}
		rep.Cols = append(rep.Cols, cs)
	}
	if opt.Correlations {
		if num := t.NumericColumns(); len(num) >= 2 {
			m := Correlate(rows, num)
			rep.Corr = &m
		}
	}
	if len(rows) == 0 {
		rep.Warnings = append(rep.Warnings, "no rows match the active filters")
	}
	for i := 0; i < len(rows) && i < opt.SampleRows; i++ {
		sample := make([]string, 0, len(rep.Cols))
		for _, c := range rep.Cols {
			sample = append(sample, rows[i].Get(c.Name).String())
		}
		rep.Samples = append(rep.Samples, sample)
	}
	return rep
}

func topCounts(cats map[string]int, n int) []CategoryCount {
	tops := make([]CategoryCount, 0, len(cats))
	for k, v := range cats {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > n {
		tops = tops[:n]
	}
	return tops
}

// Markdown renders a compact report suitable for terminals or standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("Dataset: %s\n", r.Name))
	}
	if r.Filtered < r.Rows {
		b.WriteString(fmt.Sprintf("Rows: %d of %d (filtered)\n", r.Filtered, r.Rows))
	} else {
		b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	}
	b.WriteString(fmt.Sprintf("Columns: %d\n", len(r.Cols)))
	if r.Filters != "" {
		b.WriteString(fmt.Sprintf("\n[FILTERS]\n%s\n", r.Filters))
	}

	b.WriteString("\n[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", safeName(c.Name), c.Kind, c.NonNull, missPct))
		if c.Identifier {
			b.WriteString(" [identifier]")
		}
		if c.Kind == dataset.Categorical && len(c.TopValues) > 0 {
			b.WriteString(" — top: ")
			for i, kv := range c.TopValues {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
			}
			if c.Unique > len(c.TopValues) {
				b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
			}
		}
		if o := c.Outliers; o != nil {
			b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f", o.Count, o.Threshold))
			if o.MaxAbsZ > 0 {
				b.WriteString(fmt.Sprintf(" (max |z|≈%.2f)", o.MaxAbsZ))
			}
		}
		if c.Explanation != "" {
			b.WriteString(" — ")
			b.WriteString(safeVal(c.Explanation))
		}
		b.WriteString("\n")
	}

	var stats []ColumnSummary
	for _, c := range r.Cols {
		if c.Stats != nil && !c.Identifier {
			stats = append(stats, c)
		}
	}
	if len(stats) > 0 {
		b.WriteString("\n[DESCRIPTIVE STATISTICS]\n")
		b.WriteString("| Variable | N | Mean | Median | SD | SE | Min | Max | Q1 | Q3 | Skewness | Kurtosis |\n")
		b.WriteString("| --- | --- | --- | --- | --- | --- | --- | --- | --- | --- | --- | --- |\n")
		for _, c := range stats {
			s := c.Stats
			b.WriteString(fmt.Sprintf("| %s | %d | %.3f | %.3f | %.3f | %.3f | %.3f | %.3f | %.3f | %.3f | %.3f | %.3f |\n",
				safeVal(c.Name), s.N, s.Mean, s.Median, s.SD, s.SE, s.Min, s.Max, s.Q1, s.Q3, s.Skewness, s.Kurtosis))
		}
	}

	if r.Corr != nil && len(r.Corr.Columns) >= 2 {
		b.WriteString("\n[CORRELATIONS]\n")
		b.WriteString(r.Corr.Markdown())
		b.WriteString("\nStrongest pairs:\n")
		for _, p := range r.Corr.TopPairs(10) {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f (n=%d)\n", p.A, p.B, p.R, p.N))
		}
	}

	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		b.WriteString("| ")
		for i, c := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c.Name))
		}
		b.WriteString(" |\n| ")
		for i := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range r.Samples {
			b.WriteString("| ")
			for i := range r.Cols {
				if i > 0 {
					b.WriteString(" | ")
				}
				val := ""
				if i < len(row) {
					val = row[i]
				}
				b.WriteString(safeVal(truncate(val, 80)))
			}
			b.WriteString(" |\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Markdown renders the matrix as a table with two-decimal cells.
func (m CorrMatrix) Markdown() string {
	var b strings.Builder
	b.WriteString("| |")
	for _, c := range m.Columns {
		b.WriteString(" ")
		b.WriteString(safeVal(c))
		b.WriteString(" |")
	}
	b.WriteString("\n| --- |")
	b.WriteString(strings.Repeat(" --- |", len(m.Columns)))
	b.WriteString("\n")
	for i, c := range m.Columns {
		b.WriteString("| ")
		b.WriteString(safeVal(c))
		b.WriteString(" |")
		for j := range m.Columns {
			b.WriteString(fmt.Sprintf(" %.2f |", m.Values[i][j]))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Markdown renders summary statistics as a two-column table.
func (s Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("| Statistic | Value |\n| --- | --- |\n")
	rows := []struct {
		label string
		v     float64
	}{
		{"Mean", s.Mean}, {"Median", s.Median}, {"Std. Deviation", s.SD}, {"Std. Error", s.SE},
		{"Min", s.Min}, {"Max", s.Max}, {"Q1 (25th pct.)", s.Q1}, {"Q3 (75th pct.)", s.Q3},
		{"Skewness", s.Skewness}, {"Excess Kurtosis", s.Kurtosis},
	}
	b.WriteString(fmt.Sprintf("| N | %d |\n", s.N))
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("| %s | %.3f |\n", r.label, r.v))
	}
	return b.String()
}

// Markdown renders the histogram bins and the density curve, if any.
func (d Distribution) Markdown() string {
	var b strings.Builder
	h := d.Histogram
	b.WriteString(fmt.Sprintf("Histogram of %s (n=%d, bin width %.4g)\n\n", safeVal(h.Column), h.N, h.Width))
	b.WriteString("| Range | Count |\n| --- | --- |\n")
	for _, bin := range h.Bins {
		b.WriteString(fmt.Sprintf("| %s | %d |\n", bin.Label, bin.Count))
	}
	if d.Density != nil {
		b.WriteString(fmt.Sprintf("\nDensity (Gaussian KDE, bandwidth %.4g, %d points)\n\n", d.Density.Bandwidth, len(d.Density.Points)))
		b.WriteString("| x | density | scaled count |\n| --- | --- | --- |\n")
		for _, p := range d.Density.Points {
			b.WriteString(fmt.Sprintf("| %.4g | %.6f | %.3f |\n", p.X, p.Density, p.Count))
		}
	}
	return b.String()
}

// FitsMarkdown renders regression fits, one section per group.
func FitsMarkdown(x, y string, fits []Fit, withRibbon bool) string {
	var b strings.Builder
	if len(fits) == 0 {
		b.WriteString(fmt.Sprintf("No regression of %s on %s: every group has fewer than 3 usable points.\n", safeVal(y), safeVal(x)))
		return b.String()
	}
	b.WriteString("| Group | N | Slope | Intercept | R² | Residual SE |\n| --- | --- | --- | --- | --- | --- |\n")
	for _, f := range fits {
		b.WriteString(fmt.Sprintf("| %s | %d | %.4f | %.4f | %.3f | %.4f |\n", safeVal(f.Group), f.N, f.Slope, f.Intercept, f.RSquared, f.SE))
	}
	if withRibbon {
		for _, f := range fits {
			b.WriteString(fmt.Sprintf("\n95%% confidence ribbon (%s)\n\n", safeVal(f.Group)))
			b.WriteString("| x | fit | lower | upper |\n| --- | --- | --- | --- |\n")
			for _, p := range f.Ribbon {
				b.WriteString(fmt.Sprintf("| %.4g | %.4f | %.4f | %.4f |\n", p.X, p.Fit, p.Lower, p.Upper))
			}
		}
	}
	return b.String()
}

// GroupingMarkdown renders a cross-tabulation with one column per series.
func GroupingMarkdown[C any](g Grouping[C], format func(C) string) string {
	var b strings.Builder
	b.WriteString("| ")
	b.WriteString(safeVal(firstNonEmpty(g.Group, "group")))
	b.WriteString(" |")
	for _, s := range g.Series {
		b.WriteString(" ")
		b.WriteString(safeVal(s))
		b.WriteString(" |")
	}
	b.WriteString("\n| --- |")
	b.WriteString(strings.Repeat(" --- |", len(g.Series)))
	b.WriteString("\n")
	for _, row := range g.Rows {
		b.WriteString("| ")
		b.WriteString(safeVal(row.Key))
		b.WriteString(" |")
		for _, s := range g.Series {
			cell, ok := row.Cells[s]
			if !ok {
				b.WriteString(" – |")
				continue
			}
			b.WriteString(" ")
			b.WriteString(format(cell))
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatMean renders "mean ± half-width (n)".
func FormatMean(c MeanCell) string {
	if !c.CIValid {
		return fmt.Sprintf("%.3f (n=%d)", c.Mean, c.N)
	}
	return fmt.Sprintf("%.3f ± %.3f (n=%d)", c.Mean, c.HalfWidth, c.N)
}

// FormatBox renders "whisker [Q1 median Q3] whisker".
func FormatBox(c BoxCell) string {
	s := fmt.Sprintf("%.3f [%.3f %.3f %.3f] %.3f", c.WhiskerLow, c.Q1, c.Median, c.Q3, c.WhiskerHigh)
	if len(c.Outliers) > 0 {
		s += fmt.Sprintf(" +%d outliers", len(c.Outliers))
	}
	return s
}

// FormatSum renders a group total.
func FormatSum(c SumCell) string {
	if math.Trunc(c.Sum) == c.Sum {
		return fmt.Sprintf("%.0f", c.Sum)
	}
	return fmt.Sprintf("%.3f", c.Sum)
}

func firstNonEmpty(s ...string) string {
	for _, v := range s {
		if v != "" {
			return v
		}
	}
	return ""
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}
func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}
