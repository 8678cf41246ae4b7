package dataset

import "strings"

// Kind is the inferred type of a column.
type Kind string

const (
	Numeric     Kind = "numeric"
	Categorical Kind = "categorical"
)

// numericShare is the fraction of non-empty values that must parse as
// numbers for a column to count as numeric. The comparison is strict.
const numericShare = 0.8

// Infer classifies a column from its raw values. Missing cells are ignored;
// an all-missing column is categorical.
func Infer(values []Value) Kind {
	var total, numeric int
	for _, v := range values {
		if v.IsMissing() {
			continue
		}
		total++
		if _, ok := v.Float(); ok {
			numeric++
		}
	}
	if total == 0 {
		return Categorical
	}
	if float64(numeric)/float64(total) > numericShare {
		return Numeric
	}
	return Categorical
}

// IsIdentifier reports whether a column name looks like an identifier
// (case-insensitive substring "id"). This is a naming heuristic: it also
// matches names such as "video" or "valid". Identifier columns are hidden
// from the numeric and filterable column lists but stay in the table.
func IsIdentifier(name string) bool {
	return strings.Contains(strings.ToLower(name), "id")
}
