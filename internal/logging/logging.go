// Package logging configures the process-wide slog logger and bridges the
// SDK's telemetry hooks into it.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	augment "github.com/augmentlab/augment-go"
)

// New builds a logger for level: colourised tint output with sources at
// debug, JSON otherwise.
func New(w io.Writer, level string) (*slog.Logger, error) {
	lvl := slog.LevelInfo
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid log level: %s", level)
		}
	}

	if lvl == slog.LevelDebug {
		modulePrefix := modulePrefix()
		replacer := func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				if source, ok := a.Value.Any().(*slog.Source); ok {
					source.File = cleanSourcePath(source.File, modulePrefix)
				}
			}
			if err, ok := a.Value.Any().(error); ok {
				aErr := tint.Err(err)
				aErr.Key = a.Key
				return aErr
			}
			return a
		}
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:       slog.LevelDebug,
			TimeFormat:  time.TimeOnly,
			ReplaceAttr: replacer,
			AddSource:   true,
		})), nil
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// Setup installs New(os.Stderr, level) as the default logger.
func Setup(level string) (*slog.Logger, error) {
	logger, err := New(os.Stderr, level)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}

// Telemetry routes client log entries and metrics to logger. Metrics are
// logged at debug.
func Telemetry(logger *slog.Logger) augment.TelemetryHooks {
	return augment.TelemetryHooks{
		OnLogEntry: func(ctx context.Context, entry augment.LogEntry) {
			level := slog.LevelDebug
			if entry.Level == augment.LogLevelError {
				level = slog.LevelWarn
			}
			logger.LogAttrs(ctx, level, entry.Message, fieldAttrs(entry.Fields)...)
		},
		OnMetric: func(ctx context.Context, m augment.Metric) {
			attrs := []slog.Attr{slog.String("metric", m.Name), slog.Float64("value", m.Value)}
			for k, v := range m.Labels {
				attrs = append(attrs, slog.String(k, v))
			}
			logger.LogAttrs(ctx, slog.LevelDebug, "metric", attrs...)
		},
	}
}

func fieldAttrs(fields map[string]any) []slog.Attr {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	attrs := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, fields[k]))
	}
	return attrs
}

func modulePrefix() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Path == "" {
		if wd, err := os.Getwd(); err == nil {
			return "/" + filepath.Base(wd) + "/"
		}
		return "/augment-go/"
	}
	parts := strings.Split(info.Main.Path, "/")
	return "/" + parts[len(parts)-1] + "/"
}

// cleanSourcePath keeps the module-relative part of a source path.
func cleanSourcePath(filePath, modulePrefix string) string {
	parts := strings.Split(filePath, modulePrefix)
	if len(parts) == 2 {
		return parts[1]
	}
	if idx := strings.LastIndex(filePath, "/src/"); idx != -1 {
		return filePath[idx+5:]
	}
	return filePath
}
