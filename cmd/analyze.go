package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
)

var (
	anaSampleRows int
	anaTopValues  int
	anaCorr       bool
	anaOutliers   bool
	anaOutlierThr float64
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <source>",
	Short: "Full dataset report: schema, statistics, correlations and sample rows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openSource(cmd, args[0])
		if err != nil {
			return err
		}
		opt := analysis.DefaultReportOptions()
		opt.Name = ws.Name
		opt.Filters = ws.Session.Filters().String()
		opt.SampleRows = anaSampleRows
		opt.TopValues = anaTopValues
		opt.Correlations = anaCorr
		opt.Explain = ws.Explain
		opt.OutlierThreshold = anaOutlierThr
		if !anaOutliers {
			opt.OutlierThreshold = -1
		}

		rep := analysis.Build(ws.Table(), ws.Rows(), opt)
		rep.Warnings = append(append([]string(nil), ws.Warnings...), rep.Warnings...)
		return emit(cmd, rep.Markdown(), rep)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().IntVar(&anaSampleRows, "sample-rows", 5, "number of sample rows to include")
	analyzeCmd.Flags().IntVar(&anaTopValues, "top-values", 8, "category counts listed per categorical column")
	analyzeCmd.Flags().BoolVar(&anaCorr, "correlations", true, "compute Pearson correlations among numeric columns")
	analyzeCmd.Flags().BoolVar(&anaOutliers, "outliers", true, "count robust outliers (MAD) in numeric columns")
	analyzeCmd.Flags().Float64Var(&anaOutlierThr, "outlier-threshold", analysis.DefaultOutlierThreshold, "robust |z| threshold for outliers")
}
