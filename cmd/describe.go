package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
)

var descColumns []string

var describeCmd = &cobra.Command{
	Use:   "describe <source>",
	Short: "Descriptive statistics for numeric columns",
	Long: `Report N, mean, median, standard deviation, standard error, min, max, quartiles,
skewness and excess kurtosis for each selected numeric column over the filtered rows.
Without --column every numeric column is described.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openSource(cmd, args[0])
		if err != nil {
			return err
		}
		t := ws.Table()
		cols := descColumns
		if len(cols) == 0 {
			cols = t.NumericColumns()
		}
		var b strings.Builder
		b.WriteString(ws.header())
		var out []analysis.Summary
		rows := ws.Rows()
		for _, col := range cols {
			if err := t.RequireNumeric(col); err != nil {
				return err
			}
			fmt.Fprintf(&b, "## %s\n", col)
			if exp := ws.Explain(col); exp != "" {
				fmt.Fprintf(&b, "%s\n", exp)
			}
			b.WriteString("\n")
			s, ok := analysis.Describe(rows, col)
			if !ok {
				b.WriteString("No data available for the selected variable.\n\n")
				continue
			}
			out = append(out, s)
			b.WriteString(s.Markdown())
			b.WriteString("\n")
		}
		if len(cols) == 0 {
			b.WriteString("No numeric columns to describe.\n")
		}
		return emit(cmd, b.String(), out)
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().StringSliceVarP(&descColumns, "column", "c", nil, "numeric column(s) to describe (repeatable)")
}
