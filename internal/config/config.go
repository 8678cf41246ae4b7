package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// CatalogFile is a YAML project catalog; empty uses the built-in one.
	CatalogFile string `mapstructure:"catalog_file" yaml:"catalog_file"`

	// Engine defaults
	BinWidth      float64 `mapstructure:"bin_width" yaml:"bin_width"`
	Bins          int     `mapstructure:"bins" yaml:"bins"`
	DensityPoints int     `mapstructure:"density_points" yaml:"density_points"`
	RibbonPoints  int     `mapstructure:"ribbon_points" yaml:"ribbon_points"`

	// Loading
	MaxRows        int    `mapstructure:"max_rows" yaml:"max_rows"`
	HTTPTimeoutSec int    `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	Delimiter      string `mapstructure:"delimiter" yaml:"delimiter"`

	// Charts
	ChartWidth  int `mapstructure:"chart_width" yaml:"chart_width"`
	ChartHeight int `mapstructure:"chart_height" yaml:"chart_height"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"catalog_file", "bin_width", "bins", "density_points", "ribbon_points",
	"max_rows", "http_timeout_sec", "delimiter", "chart_width", "chart_height", "log_level",
}

// DefaultPath returns ~/.datalens/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".datalens", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.datalens/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. A .env file in the working
// directory is read into the environment first without overriding it.
func Load(cfgFile string) (*Global, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("DATALENS")
	v.AutomaticEnv()

	v.SetDefault("catalog_file", "")
	v.SetDefault("bin_width", 10.0)
	v.SetDefault("bins", 0)
	v.SetDefault("density_points", 80)
	v.SetDefault("ribbon_points", 50)
	v.SetDefault("max_rows", 0)
	v.SetDefault("http_timeout_sec", 30)
	v.SetDefault("delimiter", "")
	v.SetDefault("chart_width", 900)
	v.SetDefault("chart_height", 500)
	v.SetDefault("log_level", "warn")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		path, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(path))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Delim returns the configured CSV delimiter; "\t" and "tab" mean tab.
func (c *Global) Delim() (rune, error) {
	return ParseDelimiter(c.Delimiter)
}

// ParseDelimiter accepts a single character, "tab" or "\t". Empty means
// auto-detect and yields 0.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case "tab", `\t`, "\t":
		return '\t', nil
	}
	r := []rune(s)
	if len(r) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", s)
	}
	return r[0], nil
}

// Set assigns a key from its string form.
func (c *Global) Set(key, value string) error {
	ints := map[string]*int{
		"bins":             &c.Bins,
		"density_points":   &c.DensityPoints,
		"ribbon_points":    &c.RibbonPoints,
		"max_rows":         &c.MaxRows,
		"http_timeout_sec": &c.HTTPTimeoutSec,
		"chart_width":      &c.ChartWidth,
		"chart_height":     &c.ChartHeight,
	}
	if dst, ok := ints[key]; ok {
		n, err := cast.ToIntE(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if n < 0 {
			return fmt.Errorf("%s must not be negative", key)
		}
		*dst = n
		return nil
	}
	switch key {
	case "catalog_file":
		c.CatalogFile = value
	case "log_level":
		c.LogLevel = value
	case "delimiter":
		if _, err := ParseDelimiter(value); err != nil {
			return err
		}
		c.Delimiter = value
	case "bin_width":
		f, err := cast.ToFloat64E(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if f <= 0 {
			return fmt.Errorf("bin_width must be positive")
		}
		c.BinWidth = f
	default:
		return fmt.Errorf("unknown config key %q (known: %v)", key, Keys)
	}
	return nil
}

// Values returns every key in Keys with its current value as text.
func (c *Global) Values() map[string]string {
	return map[string]string{
		"catalog_file":     c.CatalogFile,
		"bin_width":        cast.ToString(c.BinWidth),
		"bins":             cast.ToString(c.Bins),
		"density_points":   cast.ToString(c.DensityPoints),
		"ribbon_points":    cast.ToString(c.RibbonPoints),
		"max_rows":         cast.ToString(c.MaxRows),
		"http_timeout_sec": cast.ToString(c.HTTPTimeoutSec),
		"delimiter":        c.Delimiter,
		"chart_width":      cast.ToString(c.ChartWidth),
		"chart_height":     cast.ToString(c.ChartHeight),
		"log_level":        c.LogLevel,
	}
}
