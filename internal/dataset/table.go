package dataset

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrUnknownColumn is returned when a column name is not part of a table.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrNotNumeric is returned when a numeric column is required.
	ErrNotNumeric = errors.New("column is not numeric")
	// ErrNotCategorical is returned when a grouping column is numeric or an
	// identifier.
	ErrNotCategorical = errors.New("column is not categorical")
)

// Row is one record of a Table. Rows share their table's column index and
// are never modified after the table is built.
type Row struct {
	index  map[string]int
	values []Value
}

// Get returns the cell for col, or a missing cell if the column is unknown.
func (r Row) Get(col string) Value {
	i, ok := r.index[col]
	if !ok || i >= len(r.values) {
		return Missing()
	}
	return r.values[i]
}

// Table is an immutable in-memory dataset with inferred column kinds.
// A reload produces a new Table with a new ID.
type Table struct {
	id      string
	columns []string
	kinds   map[string]Kind
	index   map[string]int
	rows    []Row
}

// New builds a table from rows keyed by column name. Keys absent from a row
// become missing cells; keys not listed in columns are dropped.
func New(columns []string, rows []map[string]Value) *Table {
	cols := normalizeHeader(columns)
	t := newTable(cols)
	t.rows = make([]Row, 0, len(rows))
	for _, m := range rows {
		vals := make([]Value, len(cols))
		for i, c := range columns {
			if i < len(vals) {
				vals[i] = m[c]
			}
		}
		t.rows = append(t.rows, Row{index: t.index, values: vals})
	}
	t.infer()
	return t
}

// FromRecords builds a table from a header and string records, as produced
// by a delimited-text reader. Short records are padded with missing cells;
// extra fields are dropped.
func FromRecords(header []string, records [][]string) *Table {
	cols := normalizeHeader(header)
	t := newTable(cols)
	t.rows = make([]Row, 0, len(records))
	for _, rec := range records {
		vals := make([]Value, len(cols))
		for i := range vals {
			if i < len(rec) {
				vals[i] = Text(rec[i])
			}
		}
		t.rows = append(t.rows, Row{index: t.index, values: vals})
	}
	t.infer()
	return t
}

func newTable(cols []string) *Table {
	t := &Table{
		id:      uuid.NewString(),
		columns: cols,
		kinds:   make(map[string]Kind, len(cols)),
		index:   make(map[string]int, len(cols)),
	}
	for i, c := range cols {
		t.index[c] = i
	}
	return t
}

func (t *Table) infer() {
	vals := make([]Value, len(t.rows))
	for j, c := range t.columns {
		for i, r := range t.rows {
			vals[i] = r.values[j]
		}
		t.kinds[c] = Infer(vals)
	}
}

// normalizeHeader names blank headers column_<n> and suffixes duplicates
// with _1, _2, ... in first-seen order.
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]struct{}, len(header))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		base := name
		for n := 1; ; n++ {
			if _, dup := seen[name]; !dup {
				break
			}
			name = fmt.Sprintf("%s_%d", base, n)
		}
		seen[name] = struct{}{}
		out[i] = name
	}
	return out
}

// ID identifies this table snapshot.
func (t *Table) ID() string { return t.id }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Rows returns the rows in source order. Callers must not modify the slice.
func (t *Table) Rows() []Row { return t.rows }

// Columns returns every column name in source order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Has reports whether col is a column of the table.
func (t *Table) Has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// Kind returns the inferred kind of col.
func (t *Table) Kind(col string) (Kind, error) {
	k, ok := t.kinds[col]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownColumn, col)
	}
	return k, nil
}

// RequireNumeric returns an error unless col exists and is numeric.
func (t *Table) RequireNumeric(col string) error {
	k, err := t.Kind(col)
	if err != nil {
		return err
	}
	if k != Numeric {
		return fmt.Errorf("%w: %s is %s", ErrNotNumeric, col, k)
	}
	return nil
}

// RequireColumn returns ErrUnknownColumn unless col exists. An empty name
// is accepted and means "not set".
func (t *Table) RequireColumn(col string) error {
	if col == "" || t.Has(col) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownColumn, col)
}

// RequireCategorical returns an error unless col exists, is categorical and
// is not named like an identifier. An empty name is accepted.
func (t *Table) RequireCategorical(col string) error {
	if col == "" {
		return nil
	}
	k, err := t.Kind(col)
	if err != nil {
		return err
	}
	if k != Categorical {
		return fmt.Errorf("%w: %s is %s", ErrNotCategorical, col, k)
	}
	if IsIdentifier(col) {
		return fmt.Errorf("%w: %s is an identifier", ErrNotCategorical, col)
	}
	return nil
}

// NumericColumns lists numeric, non-identifier columns in source order.
func (t *Table) NumericColumns() []string { return t.columnsOf(Numeric) }

// CategoricalColumns lists categorical, non-identifier columns in source order.
func (t *Table) CategoricalColumns() []string { return t.columnsOf(Categorical) }

func (t *Table) columnsOf(k Kind) []string {
	var out []string
	for _, c := range t.columns {
		if t.kinds[c] == k && !IsIdentifier(c) {
			out = append(out, c)
		}
	}
	return out
}

// UniqueValues returns the sorted distinct stringified values of col over
// all rows, including "" when the column has missing cells.
func (t *Table) UniqueValues(col string) []string {
	return UniqueValues(t.rows, col)
}

// UniqueValues returns the sorted distinct stringified values of col in rows.
func UniqueValues(rows []Row, col string) []string {
	seen := map[string]struct{}{}
	for _, r := range rows {
		seen[r.Get(col).String()] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
