package main

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ChamsBouzaiene/chatagent/internal/config"
)

// initLogger builds the process logger. Logs go to stderr so stdout stays
// reserved for replies; with log.file set they go to a rotated file instead.
func initLogger(cfg config.LogConfig) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return zerolog.Nop(), errors.Wrapf(err, "invalid log level %q", cfg.Level)
		}
		level = l
	}

	var out io.Writer = os.Stderr
	format := cfg.Format
	if cfg.File != "" {
		out = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		if format == "" {
			format = "json"
		}
	}
	if format == "" {
		format = "json"
		if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
			format = "text"
		}
	}
	if format == "text" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.Kitchen,
			NoColor:    cfg.File != "",
		}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}
