package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
	"github.com/KaramelBytes/datalens-cli/internal/chart"
)

var (
	regX      string
	regY      string
	regGroup  string
	regRibbon bool
	regPoints int
	regChart  string
)

type regressionOutput struct {
	X      string           `json:"x"`
	Y      string           `json:"y"`
	Group  string           `json:"group,omitempty"`
	Points int              `json:"points"`
	Fits   []analysis.Fit   `json:"fits"`
	Data   []analysis.Point `json:"data,omitempty"`
}

var regressCmd = &cobra.Command{
	Use:   "regress <source>",
	Short: "Scatter and least-squares fit of y on x, optionally per group",
	Long: `Fit an ordinary least squares line of --y on --x over rows where both parse. With
--group one line is fitted per group value; groups with fewer than 3 points or
constant x get no line. --ribbon adds the pointwise 95% confidence band.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openSource(cmd, args[0])
		if err != nil {
			return err
		}
		t := ws.Table()
		for _, c := range []string{regX, regY} {
			if err := t.RequireNumeric(c); err != nil {
				return err
			}
		}
		if err := t.RequireCategorical(regGroup); err != nil {
			return err
		}
		points := regPoints
		if !cmd.Flags().Changed("ribbon-points") {
			points = settings().RibbonPoints
		}
		rows := ws.Rows()
		pts := analysis.Scatter(rows, regX, regY, regGroup)
		fits := analysis.Regress(rows, regX, regY, analysis.RegressionOptions{Group: regGroup, RibbonPoints: points})
		if regChart != "" {
			r, err := chart.Scatter(regX, regY, pts, fits, regRibbon, chartOptions())
			if err := saveChart(cmd, regChart, r, err); err != nil {
				return err
			}
		}
		out := regressionOutput{X: regX, Y: regY, Group: regGroup, Points: len(pts), Fits: fits}
		if !regRibbon {
			for i := range out.Fits {
				out.Fits[i].Ribbon = nil
			}
		} else {
			out.Data = pts
		}
		md := ws.header() + fmt.Sprintf("Regression of %s on %s (%d paired points)\n\n", regY, regX, len(pts)) +
			analysis.FitsMarkdown(regX, regY, out.Fits, regRibbon)
		return emit(cmd, md, out)
	},
}

func init() {
	rootCmd.AddCommand(regressCmd)
	regressCmd.Flags().StringVar(&regX, "x", "", "numeric predictor column")
	regressCmd.Flags().StringVar(&regY, "y", "", "numeric response column")
	regressCmd.Flags().StringVarP(&regGroup, "group", "g", "", "fit one line per value of this column")
	regressCmd.Flags().BoolVar(&regRibbon, "ribbon", false, "include the 95% confidence ribbon")
	regressCmd.Flags().IntVar(&regPoints, "ribbon-points", analysis.DefaultRibbonPoints, "x positions the ribbon is sampled at")
	regressCmd.Flags().StringVar(&regChart, "chart", "", "write a chart image (.png or .svg)")
	_ = regressCmd.MarkFlagRequired("x")
	_ = regressCmd.MarkFlagRequired("y")
}
