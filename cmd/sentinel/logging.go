package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// setupLogging installs the default logger: text on stderr, plus JSON lines
// in logFile when one is given. The returned closer, nil without a
// file, releases it.
func setupLogging(stderr io.Writer, level, logFile string) (io.Closer, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	stderrHandler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: lvl})

	if logFile == "" {
		slog.SetDefault(slog.New(stderrHandler))
		return nil, nil
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	fileHandler := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})
	slog.SetDefault(slog.New(slogmulti.Fanout(stderrHandler, fileHandler)))
	return f, nil
}
