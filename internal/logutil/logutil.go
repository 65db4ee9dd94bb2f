// Package logutil builds the process logger from the logging.* settings.
package logutil

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/HUSSAIN3DEL/telegram-bot-hussain/internal/outputfmt"
	"github.com/spf13/viper"
)

type loggerConfig struct {
	Level     string
	Format    string
	AddSource bool
	Output    io.Writer
}

// LoggerFromViper reads logging.level, logging.format and
// logging.add_source. --trace lowers the default level to debug.
func LoggerFromViper() (*slog.Logger, error) {
	cfg := loggerConfig{
		Level:     viper.GetString("logging.level"),
		Format:    viper.GetString("logging.format"),
		AddSource: viper.GetBool("logging.add_source"),
	}
	if viper.GetBool("trace") && !viper.IsSet("logging.level") {
		cfg.Level = "debug"
	}
	return newLoggerFromConfig(cfg)
}

func newLoggerFromConfig(cfg loggerConfig) (*slog.Logger, error) {
	level, err := parseSlogLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:       level,
		AddSource:   cfg.AddSource,
		ReplaceAttr: scrubErrorAttr,
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "text":
		return slog.New(slog.NewTextHandler(out, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(out, opts)), nil
	default:
		return nil, fmt.Errorf("unknown logging.format: %s", cfg.Format)
	}
}

// scrubErrorAttr masks secrets in "error" attributes, whichever call site
// forgot to.
func scrubErrorAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Key != "error" {
		return a
	}
	switch v := a.Value.Any().(type) {
	case error:
		return slog.String(a.Key, outputfmt.FormatErrorForDisplay(v))
	case string:
		return slog.String(a.Key, outputfmt.SanitizeErrorText(v))
	}
	return a
}

func parseSlogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown logging.level: %s", s)
	}
}
