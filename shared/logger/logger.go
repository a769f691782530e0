package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"

	"github.com/eaglebank/bank-api/shared/config"
)

// New builds the process logger and installs it as the slog default.
func New(cfg config.Log) *slog.Logger {
	return newWithWriter(os.Stdout, cfg)
}

func newWithWriter(w io.Writer, cfg config.Log) *slog.Logger {
	formatter := log.TextFormatter
	if cfg.Format == "json" {
		formatter = log.JSONFormatter
	}

	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}

	handler := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      cfg.TimeFormat,
		Level:           level,
		Prefix:          cfg.Prefix,
		Formatter:       formatter,
	})

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
