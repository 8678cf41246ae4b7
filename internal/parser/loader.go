package parser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/datalens-cli/internal/dataset"
)

// DefaultHTTPTimeout bounds remote dataset downloads.
const DefaultHTTPTimeout = 30 * time.Second

// maxErrBody caps how much of a failed response body is quoted in errors.
const maxErrBody = 512

// Loaded is a parsed dataset with the name it was loaded under.
type Loaded struct {
	Name     string
	Source   string
	Table    *dataset.Table
	Warnings []string
}

// Loader reads datasets from local paths or http(s) URLs.
type Loader struct {
	Options Options
	Client  *http.Client
	Logger  *zap.Logger
}

// NewLoader returns a Loader with an HTTP client bounded by timeout.
func NewLoader(opt Options, timeout time.Duration, log *zap.Logger) *Loader {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{Options: opt, Client: &http.Client{Timeout: timeout}, Logger: log}
}

// Load reads source into a Table. Either the whole source loads or an error
// is returned; a source with no data rows fails with ErrNoRows.
func (l *Loader) Load(ctx context.Context, source string) (*Loaded, error) {
	start := time.Now()
	var (
		rec  Records
		name string
		err  error
	)
	if isURL(source) {
		name, rec, err = l.fetch(ctx, source)
	} else {
		name = filepath.Base(source)
		rec, err = ParseFile(source, l.Options)
	}
	if err != nil {
		l.Logger.Debug("load failed", zap.String("source", source), zap.Error(err))
		return nil, err
	}
	t := dataset.FromRecords(rec.Header, rec.Rows)
	l.Logger.Info("dataset loaded",
		zap.String("source", source),
		zap.String("table_id", t.ID()),
		zap.Int("rows", t.Len()),
		zap.Int("columns", len(t.Columns())),
		zap.Duration("elapsed", time.Since(start)),
	)
	for _, w := range rec.Warnings {
		l.Logger.Warn(w, zap.String("source", source))
	}
	return &Loaded{Name: name, Source: source, Table: t, Warnings: rec.Warnings}, nil
}

func (l *Loader) fetch(ctx context.Context, rawURL string) (string, Records, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", Records{}, fmt.Errorf("parse url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", Records{}, fmt.Errorf("build request: %w", err)
	}
	l.Logger.Debug("fetching dataset", zap.String("url", rawURL))
	resp, err := l.Client.Do(req)
	if err != nil {
		return "", Records{}, fmt.Errorf("failed to fetch data: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))
		return "", Records{}, fmt.Errorf("failed to fetch data: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		name = u.Host
	}
	rec, err := ParseReader(name, resp.Body, l.Options)
	return name, rec, err
}

func isURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
