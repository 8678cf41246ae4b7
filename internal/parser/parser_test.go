package parser_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/KaramelBytes/datalens-cli/internal/dataset"
	"github.com/KaramelBytes/datalens-cli/internal/parser"
)

const sitesCSV = "\ufeffsite;region;temp\n" +
	"1;north;10,5\n" +
	"\n" +
	"2;south\n" +
	"3;east;12;extra\n"

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestParseFileCSVSniffsAndNormalizes(t *testing.T) {
	p := writeFile(t, "sites.csv", []byte(sitesCSV))
	rec, err := parser.ParseFile(p, parser.Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if strings.Join(rec.Header, "|") != "site|region|temp" {
		t.Fatalf("header = %#v", rec.Header)
	}
	if len(rec.Rows) != 3 {
		t.Fatalf("rows = %d, want 3 (blank line skipped)", len(rec.Rows))
	}
	if rec.Rows[0][2] != "10,5" {
		t.Fatalf("semicolon delimiter not detected: %#v", rec.Rows[0])
	}
	if len(rec.Rows[1]) != 2 || len(rec.Rows[2]) != 3 {
		t.Fatalf("row widths = %d, %d", len(rec.Rows[1]), len(rec.Rows[2]))
	}
	if len(rec.Warnings) != 1 || !strings.Contains(rec.Warnings[0], "extra fields dropped") {
		t.Fatalf("warnings = %#v", rec.Warnings)
	}

	tbl := dataset.FromRecords(rec.Header, rec.Rows)
	if v := tbl.Rows()[1].Get("temp"); !v.IsMissing() {
		t.Fatalf("short row should pad with missing, got %q", v.String())
	}
}

func TestParseFileTSVByExtension(t *testing.T) {
	p := writeFile(t, "a.tsv", []byte("a,b\tc\n1,2\t3\n"))
	rec, err := parser.ParseFile(p, parser.Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rec.Header) != 2 || rec.Header[0] != "a,b" {
		t.Fatalf("header = %#v", rec.Header)
	}
}

func TestParseFileExplicitDelimiter(t *testing.T) {
	p := writeFile(t, "pipes.csv", []byte("a|b;c\n1|2;3\n"))
	rec, err := parser.ParseFile(p, parser.Options{Delimiter: ';'})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rec.Header[0] != "a|b" {
		t.Fatalf("header = %#v", rec.Header)
	}
}

func TestParseFileNoRows(t *testing.T) {
	for name, content := range map[string]string{
		"header.csv": "a,b,c\n",
		"empty.csv":  "",
		"blank.csv":  "a,b\n,\n\n",
	} {
		p := writeFile(t, name, []byte(content))
		if _, err := parser.ParseFile(p, parser.Options{}); !errors.Is(err, parser.ErrNoRows) {
			t.Fatalf("%s: err = %v, want ErrNoRows", name, err)
		}
	}
}

func TestParseFileUnsupported(t *testing.T) {
	p := writeFile(t, "legacy.xls", []byte("whatever"))
	if _, err := parser.ParseFile(p, parser.Options{}); !errors.Is(err, parser.ErrUnsupported) {
		t.Fatalf("err = %v, want ErrUnsupported", err)
	}
}

func TestParseFileMaxRows(t *testing.T) {
	p := writeFile(t, "many.csv", []byte("v\n1\n2\n3\n4\n"))
	rec, err := parser.ParseFile(p, parser.Options{MaxRows: 2})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rec.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rec.Rows))
	}
	if len(rec.Warnings) != 1 || rec.Warnings[0] != "processed only 2/4 rows due to MaxRows" {
		t.Fatalf("warnings = %#v", rec.Warnings)
	}
}

func writeXLSX(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if _, err := f.NewSheet("Data"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	cells := [][]any{
		{"group", "score"},
		{"A", 10},
		{"B", 12.5},
	}
	for r, row := range cells {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			if err := f.SetCellValue("Data", cell, v); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}
	if err := f.SetCellValue("Sheet1", "A1", "unused"); err != nil {
		t.Fatalf("set cell: %v", err)
	}
	p := filepath.Join(t.TempDir(), "book.xlsx")
	if err := f.SaveAs(p); err != nil {
		t.Fatalf("save: %v", err)
	}
	return p
}

func TestParseFileXLSXSheetSelection(t *testing.T) {
	p := writeXLSX(t)

	byName, err := parser.ParseFile(p, parser.Options{SheetName: "data"})
	if err != nil {
		t.Fatalf("by name: %v", err)
	}
	if strings.Join(byName.Header, ",") != "group,score" || len(byName.Rows) != 2 {
		t.Fatalf("by name = %#v", byName)
	}
	if byName.Rows[1][1] != "12.5" {
		t.Fatalf("cell = %q", byName.Rows[1][1])
	}

	byIndex, err := parser.ParseFile(p, parser.Options{SheetIndex: 2})
	if err != nil {
		t.Fatalf("by index: %v", err)
	}
	if len(byIndex.Rows) != 2 {
		t.Fatalf("by index rows = %d", len(byIndex.Rows))
	}

	if _, err := parser.ParseFile(p, parser.Options{SheetName: "missing"}); err == nil {
		t.Fatalf("expected error for missing sheet")
	}
	if _, err := parser.ParseFile(p, parser.Options{SheetIndex: 9}); err == nil {
		t.Fatalf("expected error for sheet index out of range")
	}
}

func TestParseFileCompressed(t *testing.T) {
	plain := []byte("x,y\n1,2\n3,4\n")

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	if _, err := gw.Write(plain); err != nil {
		t.Fatalf("gzip: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("zstd: %v", err)
	}
	zst := enc.EncodeAll(plain, nil)
	enc.Close()

	for name, data := range map[string][]byte{"data.csv.gz": gz.Bytes(), "data.csv.zst": zst} {
		rec, err := parser.ParseFile(writeFile(t, name, data), parser.Options{})
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if len(rec.Rows) != 2 || rec.Rows[1][1] != "4" {
			t.Fatalf("%s: rows = %#v", name, rec.Rows)
		}
	}
}

func TestLoaderLocalAndRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data/sites.csv":
			_, _ = w.Write([]byte("site_id,temp\n1,10\n2,12\n"))
		case "/data/empty.csv":
			_, _ = w.Write([]byte("site_id,temp\n"))
		default:
			http.Error(w, "nope", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	l := parser.NewLoader(parser.Options{}, 5*time.Second, zap.NewNop())

	got, err := l.Load(context.Background(), srv.URL+"/data/sites.csv")
	if err != nil {
		t.Fatalf("remote load: %v", err)
	}
	if got.Name != "sites.csv" || got.Table.Len() != 2 {
		t.Fatalf("remote = %q rows %d", got.Name, got.Table.Len())
	}

	if _, err := l.Load(context.Background(), srv.URL+"/data/empty.csv"); !errors.Is(err, parser.ErrNoRows) {
		t.Fatalf("empty remote err = %v", err)
	}
	_, err = l.Load(context.Background(), srv.URL+"/missing.csv")
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("missing remote err = %v", err)
	}

	p := writeFile(t, "local.csv", []byte("a\n1\n"))
	got, err = l.Load(context.Background(), p)
	if err != nil {
		t.Fatalf("local load: %v", err)
	}
	if got.Name != "local.csv" || got.Table.Len() != 1 {
		t.Fatalf("local = %#v", got)
	}

	if _, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
