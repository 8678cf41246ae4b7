// Package session owns the explorer state: the loaded table and the active
// filter set. Transitions replace values wholesale; nothing is mutated in
// place, so engines can read a snapshot without coordination.
package session

import (
	"github.com/KaramelBytes/datalens-cli/internal/dataset"
	"github.com/KaramelBytes/datalens-cli/internal/filter"
	"github.com/KaramelBytes/datalens-cli/internal/project"
)

// Session is the state of one explorer run. It is not safe for concurrent use.
type Session struct {
	table   *dataset.Table
	filters filter.Set
	project *project.Project
}

// New returns a session over t with no filters.
func New(t *dataset.Table) *Session {
	return &Session{table: t}
}

// Load replaces the table and resets the filters.
func (s *Session) Load(t *dataset.Table, p *project.Project) {
	s.table = t
	s.project = p
	s.filters = filter.Set{}
}

// Table returns the current table snapshot (nil before the first load).
func (s *Session) Table() *dataset.Table { return s.table }

// Project returns the catalog entry the table was loaded from, if any.
func (s *Session) Project() *project.Project { return s.project }

// Filters returns the current filter set.
func (s *Session) Filters() filter.Set { return s.filters }

// SetFilters replaces the filter set.
func (s *Session) SetFilters(f filter.Set) { s.filters = f }

// Toggle flips one filter value.
func (s *Session) Toggle(col, value string) { s.filters = s.filters.Toggle(col, value) }

// Clear drops every filter.
func (s *Session) Clear() { s.filters = s.filters.Clear() }

// Rows recomputes the filtered subset of the current table.
func (s *Session) Rows() []dataset.Row {
	if s.table == nil {
		return nil
	}
	return filter.Apply(s.table, s.filters)
}
