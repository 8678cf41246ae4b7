package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
	"github.com/KaramelBytes/datalens-cli/internal/chart"
)

var (
	aggValue   string
	aggGroup   string
	aggColor   string
	aggBoxplot bool
	aggSum     bool
	aggLine    bool
	aggCI      bool
	aggChart   string
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate <source>",
	Short: "Group a numeric column by one or two categorical columns",
	Long: `Summarise --value per --group value, split further by --color when given. The default
summary is the mean with a 95% confidence interval; --boxplot reports five-number
summaries with Tukey whiskers and --sum reports plain totals. --line draws means as
connected lines instead of bars, and --ci adds the 95% confidence intervals to the
chart. --group and --color must name categorical, non-identifier columns.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openSource(cmd, args[0])
		if err != nil {
			return err
		}
		t := ws.Table()
		if err := t.RequireNumeric(aggValue); err != nil {
			return err
		}
		for _, c := range []string{aggGroup, aggColor} {
			if err := t.RequireCategorical(c); err != nil {
				return err
			}
		}
		spec := analysis.AggregateSpec{Value: aggValue, Group: aggGroup, Color: aggColor}
		rows := ws.Rows()
		title := fmt.Sprintf("%s by %s", aggValue, firstSet(aggGroup, "All"))
		if aggColor != "" {
			title += fmt.Sprintf(" and %s", aggColor)
		}
		opt := chartOptions()

		var (
			md  string
			out any
			r   chart.Renderer
		)
		switch {
		case aggBoxplot:
			g := analysis.GroupBoxplots(rows, spec)
			md, out = analysis.GroupingMarkdown(g, analysis.FormatBox), g
			if aggChart != "" {
				r, err = chart.Medians(g, opt)
			}
		case aggSum:
			g := analysis.GroupSums(rows, spec)
			md, out = analysis.GroupingMarkdown(g, analysis.FormatSum), g
			if aggChart != "" {
				r, err = chart.Sums(g, opt)
			}
		default:
			g := analysis.GroupMeans(rows, spec)
			md, out = analysis.GroupingMarkdown(g, analysis.FormatMean), g
			if aggChart != "" {
				switch {
				case aggLine:
					r, err = chart.MeanLines(g, aggCI, opt)
				case aggCI:
					r, err = chart.MeanIntervals(g, opt)
				default:
					r, err = chart.Means(g, opt)
				}
			}
		}
		if aggChart != "" {
			if err := saveChart(cmd, aggChart, r, err); err != nil {
				return err
			}
		}
		return emit(cmd, ws.header()+"## "+title+"\n\n"+md, out)
	},
}

func firstSet(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func init() {
	rootCmd.AddCommand(aggregateCmd)
	aggregateCmd.Flags().StringVar(&aggValue, "value", "", "numeric column to summarise")
	aggregateCmd.Flags().StringVarP(&aggGroup, "group", "g", "", "primary grouping column (default: a single \"All\" group)")
	aggregateCmd.Flags().StringVar(&aggColor, "color", "", "secondary grouping column")
	aggregateCmd.Flags().BoolVar(&aggBoxplot, "boxplot", false, "five-number summaries instead of means")
	aggregateCmd.Flags().BoolVar(&aggSum, "sum", false, "group totals instead of means")
	aggregateCmd.Flags().BoolVar(&aggLine, "line", false, "draw means as lines in --chart")
	aggregateCmd.Flags().BoolVar(&aggCI, "ci", false, "draw 95% confidence intervals of the means in --chart")
	aggregateCmd.Flags().StringVar(&aggChart, "chart", "", "write a chart image (.png or .svg)")
	aggregateCmd.MarkFlagsMutuallyExclusive("boxplot", "sum")
	aggregateCmd.MarkFlagsMutuallyExclusive("boxplot", "line")
	aggregateCmd.MarkFlagsMutuallyExclusive("sum", "line")
	aggregateCmd.MarkFlagsMutuallyExclusive("boxplot", "ci")
	aggregateCmd.MarkFlagsMutuallyExclusive("sum", "ci")
	_ = aggregateCmd.MarkFlagRequired("value")
}
