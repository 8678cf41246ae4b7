// Package filter narrows a dataset to the rows matching a set of
// categorical equality constraints.
package filter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/datalens-cli/internal/dataset"
)

// Set maps a categorical column to its allowed values. A Set is never
// modified in place: Toggle and Clear return a new Set.
type Set struct {
	allowed map[string][]string
}

// Toggle adds value to the allowed values of col, or removes it if it is
// already present. Removing the last value drops the constraint.
func (s Set) Toggle(col, value string) Set {
	next := make(map[string][]string, len(s.allowed)+1)
	for k, v := range s.allowed {
		next[k] = v
	}
	cur := s.allowed[col]
	idx := -1
	for i, v := range cur {
		if v == value {
			idx = i
			break
		}
	}
	var updated []string
	if idx >= 0 {
		updated = make([]string, 0, len(cur)-1)
		updated = append(updated, cur[:idx]...)
		updated = append(updated, cur[idx+1:]...)
	} else {
		updated = make([]string, 0, len(cur)+1)
		updated = append(updated, cur...)
		updated = append(updated, value)
	}
	if len(updated) == 0 {
		delete(next, col)
	} else {
		next[col] = updated
	}
	return Set{allowed: next}
}

// Clear returns the empty Set.
func (Set) Clear() Set { return Set{} }

// Allowed returns the selected values for col in selection order.
func (s Set) Allowed(col string) []string {
	out := make([]string, len(s.allowed[col]))
	copy(out, s.allowed[col])
	return out
}

// Active lists the constrained columns in sorted order.
func (s Set) Active() []string {
	out := make([]string, 0, len(s.allowed))
	for k, v := range s.allowed {
		if len(v) > 0 {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// IsEmpty reports whether no column is constrained.
func (s Set) IsEmpty() bool { return len(s.Active()) == 0 }

// String renders the set as "col=v1,v2; col2=v3".
func (s Set) String() string {
	parts := make([]string, 0, len(s.allowed))
	for _, c := range s.Active() {
		parts = append(parts, c+"="+strings.Join(s.allowed[c], ","))
	}
	return strings.Join(parts, "; ")
}

// Parse builds a Set from "col=v1,v2" expressions by toggling each value.
func Parse(exprs []string) (Set, error) {
	var s Set
	for _, e := range exprs {
		col, vals, ok := strings.Cut(e, "=")
		col = strings.TrimSpace(col)
		if !ok || col == "" {
			return Set{}, fmt.Errorf("invalid filter %q (want column=value[,value])", e)
		}
		for _, v := range strings.Split(vals, ",") {
			s = s.Toggle(col, strings.TrimSpace(v))
		}
	}
	return s, nil
}

// Apply returns the rows of t matching every constraint: AND across columns,
// membership within a column. Constraints on columns outside Filterable
// (not categorical in t, or named like identifiers) are ignored. An empty
// set returns every row in order.
func Apply(t *dataset.Table, s Set) []dataset.Row {
	type constraint struct {
		col     string
		allowed map[string]struct{}
	}
	var cons []constraint
	for _, col := range s.Active() {
		if k, err := t.Kind(col); err != nil || k != dataset.Categorical || dataset.IsIdentifier(col) {
			continue
		}
		m := make(map[string]struct{}, len(s.allowed[col]))
		for _, v := range s.allowed[col] {
			m[v] = struct{}{}
		}
		cons = append(cons, constraint{col: col, allowed: m})
	}
	rows := t.Rows()
	if len(cons) == 0 {
		return rows
	}
	out := make([]dataset.Row, 0, len(rows))
	for _, r := range rows {
		keep := true
		for _, c := range cons {
			if _, ok := c.allowed[r.Get(c.col).String()]; !ok {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, r)
		}
	}
	return out
}

// Filterable lists the columns offered for filtering: categorical columns
// whose names do not look like identifiers.
func Filterable(t *dataset.Table) []string {
	return t.CategoricalColumns()
}
