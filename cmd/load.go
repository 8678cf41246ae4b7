package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/datalens-cli/internal/chart"
	cfgpkg "github.com/KaramelBytes/datalens-cli/internal/config"
	"github.com/KaramelBytes/datalens-cli/internal/dataset"
	"github.com/KaramelBytes/datalens-cli/internal/filter"
	"github.com/KaramelBytes/datalens-cli/internal/parser"
	"github.com/KaramelBytes/datalens-cli/internal/project"
	"github.com/KaramelBytes/datalens-cli/internal/session"
	"github.com/KaramelBytes/datalens-cli/internal/utils"
)

// workspace is a loaded dataset with the active filters applied.
type workspace struct {
	Name     string
	Session  *session.Session
	Warnings []string
}

// Table returns the loaded table.
func (w *workspace) Table() *dataset.Table { return w.Session.Table() }

// Rows returns the filtered rows.
func (w *workspace) Rows() []dataset.Row { return w.Session.Rows() }

// Explain returns the catalog description of col, if any.
func (w *workspace) Explain(col string) string { return w.Session.Project().Explain(col) }

func catalog(c *cfgpkg.Global) (*project.Catalog, error) {
	return project.LoadCatalog(c.CatalogFile)
}

// openSource resolves source as a catalog project ID, a URL or a local path,
// loads it and applies the --filter flags.
func openSource(cmd *cobra.Command, source string) (*workspace, error) {
	c := settings()
	delim, err := cfgpkg.ParseDelimiter(c.Delimiter)
	if err != nil {
		return nil, err
	}
	opt := parser.Options{
		Delimiter:  delim,
		SheetName:  flagSheetName,
		SheetIndex: flagSheetIndex,
		MaxRows:    c.MaxRows,
	}

	var proj *project.Project
	location := source
	if cat, err := catalog(c); err != nil {
		return nil, err
	} else if p, err := cat.Find(source); err == nil {
		proj = p
		location = p.URL
		logger.Debug("resolved catalog project", zap.String("id", p.ID), zap.String("url", p.URL))
	} else if !errors.Is(err, project.ErrNotFound) {
		return nil, err
	}

	loader := parser.NewLoader(opt, time.Duration(c.HTTPTimeoutSec)*time.Second, logger)
	loaded, err := loader.Load(cmd.Context(), location)
	if err != nil {
		return nil, err
	}

	sess := session.New(nil)
	sess.Load(loaded.Table, proj)
	set, err := filter.Parse(flagFilters)
	if err != nil {
		return nil, err
	}
	ws := &workspace{Name: loaded.Name, Session: sess, Warnings: loaded.Warnings}
	if proj != nil {
		ws.Name = proj.Name
	}
	for _, col := range set.Active() {
		kind, err := loaded.Table.Kind(col)
		if err != nil {
			return nil, fmt.Errorf("filter: %w", err)
		}
		if kind != dataset.Categorical || dataset.IsIdentifier(col) {
			msg := fmt.Sprintf("filter on %s ignored: only categorical, non-identifier columns can be filtered", col)
			ws.Warnings = append(ws.Warnings, msg)
			logger.Warn(msg)
		}
	}
	sess.SetFilters(set)
	return ws, nil
}

// emit writes markdown or the JSON encoding of v according to --format.
func emit(cmd *cobra.Command, md string, v any) error {
	var data []byte
	switch strings.ToLower(flagFormat) {
	case "", "md", "markdown":
		data = []byte(md)
		if !strings.HasSuffix(md, "\n") {
			data = append(data, '\n')
		}
	case "json":
		b, err := utils.PrettyJSON(v)
		if err != nil {
			return err
		}
		data = append(b, '\n')
	default:
		return fmt.Errorf("unsupported --format: %s (use md|json)", flagFormat)
	}
	if err := utils.WriteOutput(cmd.OutOrStdout(), flagOutput, data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if flagOutput != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Wrote %s\n", flagOutput)
	}
	return nil
}

// header renders the dataset line shown above each result.
func (w *workspace) header() string {
	var b strings.Builder
	total, n := w.Table().Len(), len(w.Rows())
	if n < total {
		fmt.Fprintf(&b, "Dataset: %s (%d of %d rows)\n", w.Name, n, total)
	} else {
		fmt.Fprintf(&b, "Dataset: %s (%d rows)\n", w.Name, total)
	}
	if f := w.Session.Filters(); !f.IsEmpty() {
		fmt.Fprintf(&b, "Filters: %s\n", f.String())
	}
	for _, warn := range w.Warnings {
		fmt.Fprintf(&b, "Note: %s\n", warn)
	}
	b.WriteString("\n")
	return b.String()
}

// chartOptions returns the configured chart size.
func chartOptions() chart.Options {
	c := settings()
	return chart.Options{Width: c.ChartWidth, Height: c.ChartHeight}
}

// saveChart renders r into path and reports where it went.
func saveChart(cmd *cobra.Command, path string, r chart.Renderer, err error) error {
	if err != nil {
		return fmt.Errorf("chart: %w", err)
	}
	if err := chart.Save(path, r); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "✓ Wrote chart to %s\n", path)
	return nil
}
