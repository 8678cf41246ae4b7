package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datalens-cli/internal/dataset"
	"github.com/KaramelBytes/datalens-cli/internal/filter"
)

var colMaxValues int

type columnInfo struct {
	Name        string       `json:"name"`
	Kind        dataset.Kind `json:"kind"`
	Identifier  bool         `json:"identifier,omitempty"`
	Filterable  bool         `json:"filterable"`
	Values      []string     `json:"values,omitempty"`
	Explanation string       `json:"explanation,omitempty"`
}

var columnsCmd = &cobra.Command{
	Use:   "columns <source>",
	Short: "List columns, inferred types and filterable values",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openSource(cmd, args[0])
		if err != nil {
			return err
		}
		t := ws.Table()
		filterable := map[string]bool{}
		for _, c := range filter.Filterable(t) {
			filterable[c] = true
		}
		var infos []columnInfo
		var b strings.Builder
		b.WriteString(ws.header())
		b.WriteString("| Column | Type | Filterable values |\n| --- | --- | --- |\n")
		for _, col := range t.Columns() {
			kind, _ := t.Kind(col)
			info := columnInfo{
				Name:        col,
				Kind:        kind,
				Identifier:  dataset.IsIdentifier(col),
				Filterable:  filterable[col],
				Explanation: ws.Explain(col),
			}
			if info.Filterable {
				info.Values = t.UniqueValues(col)
			}
			infos = append(infos, info)

			label := string(kind)
			if info.Identifier {
				label += " (identifier)"
			}
			vals := ""
			if info.Filterable {
				shown := info.Values
				if colMaxValues > 0 && len(shown) > colMaxValues {
					shown = shown[:colMaxValues]
				}
				vals = strings.Join(quoteEmpty(shown), ", ")
				if len(shown) < len(info.Values) {
					vals += fmt.Sprintf(", … (%d total)", len(info.Values))
				}
			}
			fmt.Fprintf(&b, "| %s | %s | %s |\n", col, label, vals)
		}
		return emit(cmd, b.String(), infos)
	},
}

// quoteEmpty renders the missing value visibly.
func quoteEmpty(vals []string) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		if v == "" {
			v = `""`
		}
		out[i] = v
	}
	return out
}

func init() {
	rootCmd.AddCommand(columnsCmd)
	columnsCmd.Flags().IntVar(&colMaxValues, "max-values", 20, "maximum filter values listed per column (0 = all)")
}
