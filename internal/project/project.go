package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when a project ID is not in the catalog.
var ErrNotFound = errors.New("project not found")

// Project is a research dataset offered by the explorer.
type Project struct {
	ID          string            `yaml:"id" json:"id"`
	Name        string            `yaml:"name" json:"name"`
	Description string            `yaml:"description" json:"description"`
	Authors     string            `yaml:"authors,omitempty" json:"authors,omitempty"`
	URL         string            `yaml:"url" json:"url"`
	Variables   map[string]string `yaml:"variables,omitempty" json:"variables,omitempty"`
}

// Explain returns the description of a variable, if the project has one.
func (p *Project) Explain(col string) string {
	if p == nil {
		return ""
	}
	return p.Variables[col]
}

// Catalog is an ordered list of projects.
type Catalog struct {
	Projects []Project `yaml:"projects" json:"projects"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return &Catalog{Projects: []Project{
		{
			ID:          "project1",
			Name:        "Digital Literacy Survey 2024",
			Description: "Study examining digital literacy skills across different demographics",
			Authors:     "Philipp K. Masur, Dominik DiFranzo, Natalie N. Bazarova",
			URL:         "https://raw.githubusercontent.com/masurp/VU_CADC/refs/heads/main/tutorials/data/masur-et-al_2021_literacy.csv",
			Variables: map[string]string{
				"age":              "Age of participant in years",
				"gender":           "Gender identity",
				"education":        "Highest level of education completed",
				"digital_literacy": "Digital literacy score (0-100)",
				"platform_usage":   "Hours per week spent on digital platforms",
				"data_concern":     "Level of concern about data privacy (1-5 scale)",
			},
		},
		{
			ID:          "project2",
			Name:        "Social Media & Well-being Study",
			Description: "Research on social media usage patterns and digital well-being",
			Authors:     "Philipp K. Masur",
			URL:         "https://example.com/data2.csv",
			Variables: map[string]string{
				"participant_id":   "Unique participant identifier",
				"age_group":        "Age group category",
				"daily_usage":      "Daily social media usage in minutes",
				"well_being_score": "Self-reported well-being score (1-10)",
				"platform":         "Primary social media platform used",
			},
		},
	}}
}

// LoadCatalog reads a YAML catalog. An empty path yields the built-in catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("catalog not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	seen := map[string]struct{}{}
	for i, p := range c.Projects {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return nil, fmt.Errorf("catalog entry %d has no id", i+1)
		}
		if p.URL == "" {
			return nil, fmt.Errorf("catalog entry %q has no url", id)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("duplicate catalog id %q", id)
		}
		seen[id] = struct{}{}
		c.Projects[i].ID = id
	}
	return &c, nil
}

// Find returns the project with the given ID (case-insensitive).
func (c *Catalog) Find(id string) (*Project, error) {
	for i := range c.Projects {
		if strings.EqualFold(c.Projects[i].ID, id) {
			return &c.Projects[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// VariableNames returns the explained variables of p in sorted order.
func (p *Project) VariableNames() []string {
	names := make([]string, 0, len(p.Variables))
	for k := range p.Variables {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
