package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
	"github.com/KaramelBytes/datalens-cli/internal/chart"
)

var (
	histColumn   string
	histBinWidth float64
	histBins     int
	histDensity  bool
	histPoints   int
	histChart    string
)

var histogramCmd = &cobra.Command{
	Use:   "histogram <source>",
	Short: "Histogram of a numeric column, with optional density curve",
	Long: `Bin a numeric column by fixed width (--bin-width, at least 1) or by count (--bins, at
least 3). --density overlays a Gaussian kernel density estimate scaled to the counts.
--chart writes a PNG or SVG image.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openSource(cmd, args[0])
		if err != nil {
			return err
		}
		if err := ws.Table().RequireNumeric(histColumn); err != nil {
			return err
		}
		dist, ok := analysis.BuildDistribution(ws.Rows(), histColumn, binning(cmd), histDensity, densityPoints(cmd))
		if !ok {
			return emit(cmd, ws.header()+"No data available for the selected variable.\n", analysis.Distribution{})
		}
		if histChart != "" {
			r, err := chart.Histogram(dist, chartOptions())
			if err := saveChart(cmd, histChart, r, err); err != nil {
				return err
			}
		}
		return emit(cmd, ws.header()+dist.Markdown(), dist)
	},
}

// binning resolves flags first, then config, then the engine default.
func binning(cmd *cobra.Command) analysis.Binning {
	f := cmd.Flags()
	switch {
	case f.Changed("bin-width"):
		return analysis.Binning{Width: histBinWidth}
	case f.Changed("bins"):
		return analysis.Binning{Count: histBins}
	}
	c := settings()
	if c.Bins > 0 {
		return analysis.Binning{Count: c.Bins}
	}
	return analysis.Binning{Width: c.BinWidth}
}

func densityPoints(cmd *cobra.Command) int {
	if cmd.Flags().Changed("density-points") {
		return histPoints
	}
	return settings().DensityPoints
}

func init() {
	rootCmd.AddCommand(histogramCmd)
	histogramCmd.Flags().StringVarP(&histColumn, "column", "c", "", "numeric column to bin")
	histogramCmd.Flags().Float64Var(&histBinWidth, "bin-width", analysis.DefaultBinWidth, "bin width (coerced to at least 1)")
	histogramCmd.Flags().IntVar(&histBins, "bins", 0, "number of bins (coerced to at least 3)")
	histogramCmd.Flags().BoolVar(&histDensity, "density", false, "add a kernel density curve")
	histogramCmd.Flags().IntVar(&histPoints, "density-points", analysis.DefaultDensityPoints, "positions the density curve is evaluated at")
	histogramCmd.Flags().StringVar(&histChart, "chart", "", "write a chart image (.png or .svg)")
	histogramCmd.MarkFlagsMutuallyExclusive("bin-width", "bins")
	_ = histogramCmd.MarkFlagRequired("column")
}
