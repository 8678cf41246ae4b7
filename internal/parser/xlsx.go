package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

type xlsxParser struct{}

func (xlsxParser) CanParse(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".xlsx") || strings.HasSuffix(name, ".xlsm")
}

// Parse reads one worksheet. The first non-blank row is the header.
func (xlsxParser) Parse(r io.Reader, opt Options) (Records, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Records{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet, err := pickSheet(f.GetSheetList(), opt.SheetName, opt.SheetIndex)
	if err != nil {
		return Records{}, err
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return Records{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	for len(rows) > 0 && blank(rows[0]) {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return Records{}, ErrNoRows
	}
	rec := Records{Header: rows[0]}
	long := 0
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		if len(row) > len(rec.Header) {
			long++
			row = row[:len(rec.Header)]
		}
		rec.Rows = append(rec.Rows, row)
	}
	if long > 0 {
		rec.Warnings = append(rec.Warnings, fmt.Sprintf("%d rows had more cells than the header; extra cells dropped", long))
	}
	return rec, nil
}

func pickSheet(sheets []string, name string, index int) (string, error) {
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook has no sheets")
	}
	if name != "" {
		for _, s := range sheets {
			if strings.EqualFold(s, name) {
				return s, nil
			}
		}
		return "", fmt.Errorf("sheet %q not found (available: %s)", name, strings.Join(sheets, ", "))
	}
	if index <= 0 {
		return sheets[0], nil
	}
	if index > len(sheets) {
		return "", fmt.Errorf("sheet index %d out of range (workbook has %d sheets)", index, len(sheets))
	}
	return sheets[index-1], nil
}
