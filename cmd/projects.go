package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datalens-cli/internal/project"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List catalog projects usable as <source>",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog(settings())
		if err != nil {
			return err
		}
		var b strings.Builder
		if len(cat.Projects) == 0 {
			b.WriteString("(no projects)\n")
		}
		for _, p := range cat.Projects {
			fmt.Fprintf(&b, "- %s: %s\n", p.ID, p.Name)
			if p.Description != "" {
				fmt.Fprintf(&b, "  %s\n", p.Description)
			}
		}
		return emit(cmd, b.String(), cat.Projects)
	},
}

var projectsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a catalog project and its variable descriptions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog(settings())
		if err != nil {
			return err
		}
		p, err := cat.Find(args[0])
		if err != nil {
			return err
		}
		return emit(cmd, projectMarkdown(p), p)
	},
}

func projectMarkdown(p *project.Project) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s (%s)\n\n", p.Name, p.ID)
	if p.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", p.Description)
	}
	if p.Authors != "" {
		fmt.Fprintf(&b, "Authors: %s\n", p.Authors)
	}
	fmt.Fprintf(&b, "Data: %s\n", p.URL)
	if names := p.VariableNames(); len(names) > 0 {
		b.WriteString("\n| Variable | Description |\n| --- | --- |\n")
		for _, n := range names {
			fmt.Fprintf(&b, "| %s | %s |\n", n, p.Variables[n])
		}
	}
	return b.String()
}

func init() {
	rootCmd.AddCommand(projectsCmd)
	projectsCmd.AddCommand(projectsShowCmd)
}
