package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/datalens-cli/internal/dataset"
	"github.com/KaramelBytes/datalens-cli/internal/project"
)

func sites() *dataset.Table {
	return dataset.FromRecords([]string{"site_id", "region", "temp"}, [][]string{
		{"1", "north", "10"},
		{"2", "south", "20"},
		{"3", "south", "30"},
	})
}

func TestSessionFiltersRecomputeRows(t *testing.T) {
	s := New(sites())
	assert.Len(t, s.Rows(), 3)

	s.Toggle("region", "south")
	assert.Len(t, s.Rows(), 2)
	assert.Equal(t, []string{"region"}, s.Filters().Active())

	s.Toggle("region", "south")
	assert.Len(t, s.Rows(), 3)
	assert.True(t, s.Filters().IsEmpty())

	s.Toggle("region", "north")
	s.Clear()
	assert.Len(t, s.Rows(), 3)
}

func TestSessionLoadResetsFilters(t *testing.T) {
	s := New(sites())
	s.Toggle("region", "north")
	require.Len(t, s.Rows(), 1)

	next := sites()
	p, err := project.Default().Find(project.Default().Projects[0].ID)
	require.NoError(t, err)
	s.Load(next, p)

	assert.Same(t, next, s.Table())
	assert.Same(t, p, s.Project())
	assert.True(t, s.Filters().IsEmpty())
	assert.Len(t, s.Rows(), 3)
}

func TestSessionWithoutTable(t *testing.T) {
	s := New(nil)
	assert.Empty(t, s.Rows())
}
