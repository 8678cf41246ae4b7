package dataset

import (
	"math"
	"strconv"
	"strings"
)

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	KindMissing ValueKind = iota
	KindText
	KindNumber
)

// Value is a single raw cell: missing, text, or number.
type Value struct {
	kind ValueKind
	text string
	num  float64
}

// Missing returns the empty cell.
func Missing() Value { return Value{} }

// Text wraps a raw string. The empty string is treated as a missing cell.
func Text(s string) Value {
	if s == "" {
		return Value{}
	}
	return Value{kind: KindText, text: s}
}

// Number wraps a numeric cell.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Kind reports which variant the cell holds.
func (v Value) Kind() ValueKind { return v.kind }

// IsMissing reports whether the cell is empty.
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// String returns the stringified cell as compared by filters.
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return ""
	}
}

// Float coerces the cell to a finite number. Text is trimmed before parsing;
// missing cells and non-finite results never parse.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, finite(v.num)
	case KindText:
		return parseFloat(v.text)
	default:
		return 0, false
	}
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || !finite(f) {
		return 0, false
	}
	return f, true
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
