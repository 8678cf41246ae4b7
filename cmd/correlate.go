package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
)

var (
	corrColumns []string
	corrTop     int
)

type correlationOutput struct {
	Matrix analysis.CorrMatrix `json:"matrix"`
	Top    []analysis.PairCorr `json:"top_pairs"`
}

var correlateCmd = &cobra.Command{
	Use:   "correlate <source>",
	Short: "Pearson correlation matrix across numeric columns",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openSource(cmd, args[0])
		if err != nil {
			return err
		}
		t := ws.Table()
		cols := corrColumns
		if len(cols) == 0 {
			cols = t.NumericColumns()
		}
		for _, c := range cols {
			if err := t.RequireNumeric(c); err != nil {
				return err
			}
		}
		var b strings.Builder
		b.WriteString(ws.header())
		if len(cols) < 2 {
			b.WriteString("Need at least 2 numeric variables for correlation analysis.\n")
			return emit(cmd, b.String(), correlationOutput{})
		}
		m := analysis.Correlate(ws.Rows(), cols)
		top := m.TopPairs(corrTop)
		b.WriteString(m.Markdown())
		b.WriteString("\nStrongest pairs:\n")
		for _, p := range top {
			fmt.Fprintf(&b, "- %s ~ %s: r=%.3f (n=%d)\n", p.A, p.B, p.R, p.N)
		}
		return emit(cmd, b.String(), correlationOutput{Matrix: m, Top: top})
	},
}

func init() {
	rootCmd.AddCommand(correlateCmd)
	correlateCmd.Flags().StringSliceVarP(&corrColumns, "column", "c", nil, "numeric columns to include (default: all numeric)")
	correlateCmd.Flags().IntVar(&corrTop, "top", 10, "number of strongest pairs to list (0 = all)")
}
