package parser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Records is a raw table as read from a source: a header row followed by
// data records. Records may be shorter or longer than the header.
type Records struct {
	Header   []string
	Rows     [][]string
	Warnings []string
}

// Options controls how sources are read.
type Options struct {
	// Delimiter for CSV. If 0, it is chosen from the extension or sniffed
	// from the header line among ',', ';', '\t' and '|'.
	Delimiter rune
	// SheetName selects an XLSX sheet by name.
	SheetName string
	// SheetIndex selects an XLSX sheet by 1-based index when SheetName is empty.
	SheetIndex int
	// MaxRows limits the number of data rows kept. 0 keeps all.
	MaxRows int
}

// Parser defines a tabular source parser implementation.
type Parser interface {
	CanParse(filename string) bool
	Parse(r io.Reader, opt Options) (Records, error)
}

var registry []Parser

// Register adds a parser implementation to the registry.
func Register(p Parser) {
	registry = append(registry, p)
}

func init() {
	Register(csvParser{})
	Register(xlsxParser{})
}

var (
	// ErrUnsupported indicates a format is not supported.
	ErrUnsupported = errors.New("unsupported data format")
	// ErrNoRows indicates the source has a header but no data rows.
	ErrNoRows = errors.New("no data found in file")
)

// unsupported lists extensions that look tabular but cannot be read.
var unsupported = map[string]bool{".xls": true, ".ods": true, ".parquet": true}

// ParseFile reads a local file, unwrapping .gz and .zst compression.
func ParseFile(path string, opt Options) (Records, error) {
	f, err := os.Open(path)
	if err != nil {
		return Records{}, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	return ParseReader(path, f, opt)
}

// ParseReader selects a parser from name and reads r. Compressed inputs are
// unwrapped first and the inner name decides the parser. Names without a
// known extension are read as CSV.
func ParseReader(name string, r io.Reader, opt Options) (Records, error) {
	inner, rc, err := decompress(name, r)
	if err != nil {
		return Records{}, err
	}
	if rc != nil {
		defer rc.Close()
		r = rc
	}
	ext := strings.ToLower(filepath.Ext(inner))
	if unsupported[ext] {
		return Records{}, fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
	var p Parser = csvParser{}
	for _, cand := range registry {
		if cand.CanParse(inner) {
			p = cand
			break
		}
	}
	if opt.Delimiter == 0 && strings.HasSuffix(strings.ToLower(inner), ".tsv") {
		opt.Delimiter = '\t'
	}
	rec, err := p.Parse(r, opt)
	if err != nil {
		return Records{}, err
	}
	if len(rec.Header) == 0 || len(rec.Rows) == 0 {
		return Records{}, ErrNoRows
	}
	return limit(rec, opt.MaxRows), nil
}

func limit(rec Records, maxRows int) Records {
	if maxRows <= 0 || len(rec.Rows) <= maxRows {
		return rec
	}
	total := len(rec.Rows)
	rec.Rows = rec.Rows[:maxRows]
	rec.Warnings = append(rec.Warnings, fmt.Sprintf("processed only %d/%d rows due to MaxRows", maxRows, total))
	return rec
}
