package analysis

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/KaramelBytes/datalens-cli/internal/dataset"
	"github.com/KaramelBytes/datalens-cli/internal/filter"
)

var reportRecords = [][]string{
	{"1", "north", "10", "1.5", "clear"},
	{"2", "north", "12", "2.5", "clear"},
	{"3", "south", "20", "3.0", "murky"},
	{"4", "south", "30", "4.5", "clear"},
	{"5", "east", "25", "5.0", "murky"},
}

func reportTable() *dataset.Table {
	return dataset.FromRecords([]string{"site_id", "region", "temp", "depth", "clarity"}, reportRecords)
}

func TestBuildReportAndMarkdown(t *testing.T) {
	tbl := reportTable()
	set := filter.Set{}.Toggle("region", "north").Toggle("region", "south")
	rows := filter.Apply(tbl, set)

	opt := DefaultReportOptions()
	opt.Name = "sites.csv"
	opt.Filters = set.String()
	opt.SampleRows = 2
	opt.Explain = func(col string) string {
		if col == "temp" {
			return "Water temperature (°C)"
		}
		return ""
	}
	rep := Build(tbl, rows, opt)

	if rep.Rows != 5 || rep.Filtered != 4 {
		t.Fatalf("rows = %d filtered = %d, want 5 and 4", rep.Rows, rep.Filtered)
	}
	if rep.TableID != tbl.ID() {
		t.Fatalf("table id = %q, want %q", rep.TableID, tbl.ID())
	}
	if len(rep.Samples) != 2 {
		t.Fatalf("samples = %d, want 2", len(rep.Samples))
	}
	if rep.Corr == nil || len(rep.Corr.Columns) != 2 {
		t.Fatalf("corr = %#v", rep.Corr)
	}

	temp := columnByName(t, rep, "temp")
	if temp.Stats == nil || !almostEqual(temp.Stats.Mean, 18, 1e-9) {
		t.Fatalf("temp stats = %#v", temp.Stats)
	}
	if temp.Explanation == "" {
		t.Fatalf("temp explanation missing")
	}
	id := columnByName(t, rep, "site_id")
	if !id.Identifier {
		t.Fatalf("site_id should be flagged as identifier")
	}
	clarity := columnByName(t, rep, "clarity")
	if clarity.Kind != dataset.Categorical || len(clarity.TopValues) == 0 || clarity.TopValues[0].Value != "clear" || clarity.TopValues[0].Count != 3 {
		t.Fatalf("clarity = %#v", clarity)
	}

	md := rep.Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]",
		"Dataset: sites.csv",
		"Rows: 4 of 5 (filtered)",
		"[FILTERS]",
		"region=north,south",
		"[SCHEMA]",
		"- temp: numeric",
		"[identifier]",
		"[DESCRIPTIVE STATISTICS]",
		"| temp | 4 | 18.000 |",
		"[CORRELATIONS]",
		"temp ~ depth",
		"[HEAD AND SAMPLE ROWS]",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "| site_id | 4 |") {
		t.Fatalf("identifier column should not be described:\n%s", md)
	}
}

func TestBuildReportNoMatches(t *testing.T) {
	tbl := reportTable()
	set := filter.Set{}.Toggle("region", "west")
	rep := Build(tbl, filter.Apply(tbl, set), DefaultReportOptions())
	if rep.Filtered != 0 {
		t.Fatalf("filtered = %d, want 0", rep.Filtered)
	}
	if len(rep.Warnings) != 1 {
		t.Fatalf("warnings = %#v", rep.Warnings)
	}
	md := rep.Markdown()
	if !strings.Contains(md, "[NOTES]") || !strings.Contains(md, "no rows match") {
		t.Fatalf("markdown missing notes:\n%s", md)
	}
}

func TestGroupingMarkdown(t *testing.T) {
	tbl := reportTable()
	g := GroupMeans(tbl.Rows(), AggregateSpec{Value: "temp", Group: "region", Color: "clarity"})
	md := GroupingMarkdown(g, FormatMean)
	if !strings.HasPrefix(md, "| region | clear | murky |") {
		t.Fatalf("header:\n%s", md)
	}
	if !strings.Contains(md, "| east | – | 25.000 (n=1) |") {
		t.Fatalf("east row:\n%s", md)
	}
	if !strings.Contains(md, "| north | 11.000 ± ") {
		t.Fatalf("north row:\n%s", md)
	}
}

func TestFitsMarkdownEmpty(t *testing.T) {
	md := FitsMarkdown("x", "y", nil, false)
	if !strings.Contains(md, "fewer than 3") {
		t.Fatalf("unexpected: %s", md)
	}
}

func TestSampleRowsTruncateOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("é", 100)
	tbl := dataset.FromRecords([]string{"note"}, [][]string{{long}})
	md := Build(tbl, tbl.Rows(), DefaultReportOptions()).Markdown()
	if !utf8.ValidString(md) {
		t.Fatalf("markdown is not valid UTF-8")
	}
	want := "| " + strings.Repeat("é", 77) + "... |"
	if !strings.Contains(md, want) {
		t.Fatalf("sample row not truncated to 80 runes:\n%s", md)
	}
	if got := truncate("short", 80); got != "short" {
		t.Fatalf("truncate(short) = %q", got)
	}
}

func columnByName(t *testing.T, rep *Report, name string) ColumnSummary {
	t.Helper()
	for _, c := range rep.Cols {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("column %q not found", name)
	return ColumnSummary{}
}

func almostEqual(a, b, eps float64) bool {
	if a > b {
		return a-b <= eps
	}
	return b-a <= eps
}
