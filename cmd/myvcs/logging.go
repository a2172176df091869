package main

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/odvcencio/myvcs/pkg/repo"
)

// verbose is the root --verbose flag.
var verbose bool

// logFile is the rotating log opened for this process, if any.
var logFile *lumberjack.Logger

func closeLog() {
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newLogger builds the process logger from the [log] config section. With
// a log file configured everything goes there at the configured level.
// Otherwise stderr only gets warnings unless loud is set (serve, -v).
func newLogger(cfg repo.LogConfig, metaDir string, stderr io.Writer, loud bool) *slog.Logger {
	level := parseLevel(cfg.Level)
	if strings.TrimSpace(cfg.File) != "" {
		path := cfg.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(metaDir, path)
		}
		closeLog()
		logFile = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
		return slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: level}))
	}
	if !loud {
		level = slog.LevelWarn
	}
	if verbose && level > slog.LevelDebug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
}

// openRepo opens the repository containing the working directory with a
// logger configured from its config file.
func openRepo(stderr io.Writer, loud bool) (*repo.Repo, *repo.Config, error) {
	r, err := repo.Open(".")
	if err != nil {
		return nil, nil, err
	}
	cfg, err := r.ReadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(cfg.Log, r.MetaDir, stderr, loud || verbose)
	r, err = repo.Open(r.RootDir, repo.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	return r, cfg, nil
}
