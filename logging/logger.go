// Package logging builds the structured logger shared by the server, the
// scheduler and the HTTP request log.
package logging

import (
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/warp/billable-planner/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New creates the root logger. With cfg.File set, output goes to stderr and
// to a rotating file; the returned closer releases the file.
func New(cfg config.LogConfig) (*log.Logger, io.Closer, error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	var (
		writer io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, nil, err
		}
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB, // megabytes
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays, // days
			Compress:   true,
		}
		writer = io.MultiWriter(os.Stderr, fileWriter)
		closer = fileWriter
	}

	logger := log.NewWithOptions(writer, log.Options{
		ReportCaller:    level == log.DebugLevel,
		ReportTimestamp: true,
		Level:           level,
		Prefix:          "planner",
	})
	return logger, closer, nil
}

// Discard is a logger that drops everything (tests, demo tooling).
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// RequestLogger is chi's request logger writing through logger at info level.
func RequestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	std := logger.WithPrefix("http").StandardLog(log.StandardLogOptions{ForceLevel: log.InfoLevel})
	return middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: std, NoColor: true})
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
