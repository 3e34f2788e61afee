package app

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger builds the process logger. LOG_FORMAT=json selects the JSON
// handler for log shippers; anything else gets human-readable text. Every
// record carries the service name so shared dashboards can tell the catalog
// apart from its worker siblings.
func NewLogger(cfg *Config) *slog.Logger {
	format := ""
	if cfg != nil {
		format = cfg.LogFormat
	}
	return slog.New(newLogHandler(os.Stdout, format)).With(slog.String("service", "catalog"))
}

func newLogHandler(w io.Writer, format string) slog.Handler {
	opts := &slog.HandlerOptions{AddSource: true}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}
