// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"onoffice/cli/internal/xdg"
)

// DefaultFileName is the log file created in the XDG state directory.
const DefaultFileName = "onoffice.log"

// Options configure the logger.
type Options struct {
	Level      string // debug, info, warn, error (default: warn)
	File       string // Log file path (empty = {state_dir}/onoffice.log)
	MaxSize    int    // Max log file size in MB (default: 10)
	MaxBackups int    // Max rotated files to keep (default: 5)
	MaxAge     int    // Max days to keep rotated files (default: 30)

	// Debug lowers the level to debug and mirrors log lines to Console.
	Debug   bool
	Console io.Writer
}

// New builds a logger writing JSON lines to a rotating file. The returned
// closer releases the file handle.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}
	if opts.Debug {
		level = zerolog.DebugLevel
	}

	path, err := filePath(opts.File)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("resolve log file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("create log dir: %w", err)
	}

	rotating := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    orDefault(opts.MaxSize, 10), // MB
		MaxBackups: orDefault(opts.MaxBackups, 5),
		MaxAge:     orDefault(opts.MaxAge, 30), // days
		Compress:   true,
	}

	var w io.Writer = &maskingWriter{out: rotating}
	if opts.Debug {
		console := opts.Console
		if console == nil {
			console = os.Stderr
		}
		w = zerolog.MultiLevelWriter(w, zerolog.ConsoleWriter{
			Out:        &maskingWriter{out: console},
			TimeFormat: time.Kitchen,
		})
	}

	logger := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return logger, rotating, nil
}

// ParseLevel maps a config level to a zerolog level. Empty means warn.
func ParseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return zerolog.WarnLevel, nil
	case "debug", "info", "warn", "error":
		return zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	default:
		return zerolog.WarnLevel, fmt.Errorf("invalid log level %q (valid: debug, info, warn, error)", s)
	}
}

func filePath(configured string) (string, error) {
	if configured != "" {
		if strings.HasPrefix(configured, "~") {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configured = filepath.Join(home, configured[1:])
		}
		return configured, nil
	}
	dir, err := xdg.StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultFileName), nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// maskingWriter scrubs credentials from each log line before writing it.
type maskingWriter struct {
	out io.Writer
}

func (w *maskingWriter) Write(p []byte) (int, error) {
	if _, err := io.WriteString(w.out, Mask(string(p))); err != nil {
		return 0, err
	}
	return len(p), nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
