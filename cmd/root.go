package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cfgpkg "github.com/KaramelBytes/datalens-cli/internal/config"
	"github.com/KaramelBytes/datalens-cli/internal/logging"
)

var (
	// Global flags
	cfgFile string
	debug   bool
	// Loading and output flags (override config if set)
	flagFilters        []string
	flagFormat         string
	flagOutput         string
	flagMaxRows        int
	flagDelimiter      string
	flagSheetName      string
	flagSheetIndex     int
	flagHTTPTimeoutSec int

	// Loaded configuration
	cfg *cfgpkg.Global
	// Diagnostics logger; a no-op until loadConfig runs
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "datalens",
	Short: "DataLens CLI: explore tabular research datasets",
	Long: `DataLens loads a CSV, TSV or XLSX dataset (local, remote or from the project catalog),
infers column types, applies categorical filters and reports descriptive statistics,
correlations, distributions, regressions and grouped aggregates.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	defer func() { _ = logger.Sync() }()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ~/.datalens/config.yaml)")
	pf.BoolVar(&debug, "debug", false, "enable debug logging")
	pf.StringArrayVarP(&flagFilters, "filter", "f", nil, "categorical filter column=v1,v2 (repeatable; AND across columns)")
	pf.StringVar(&flagFormat, "format", "md", "output format: md | json")
	pf.StringVarP(&flagOutput, "output", "o", "", "write the result to this file instead of stdout")
	pf.IntVar(&flagMaxRows, "max-rows", 0, "maximum data rows to load (0 = config or unlimited)")
	pf.StringVar(&flagDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | '|' (auto-detect if omitted)")
	pf.StringVar(&flagSheetName, "sheet-name", "", "XLSX: sheet name to load")
	pf.IntVar(&flagSheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	pf.IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP timeout in seconds for remote datasets (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands with defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = &cfgpkg.Global{}
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("max-rows") && flagMaxRows >= 0 {
		cfg.MaxRows = flagMaxRows
	}
	if f.Changed("delimiter") {
		cfg.Delimiter = flagDelimiter
	}

	l, err := logging.New(cfg.LogLevel, debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v; using warn level\n", err)
		l, _ = logging.New("warn", debug)
	}
	if l != nil {
		logger = l
	}
}

// settings returns the effective configuration, loading it on first use
// when the command runs outside Execute.
func settings() *cfgpkg.Global {
	if cfg == nil {
		loadConfig()
	}
	return cfg
}
