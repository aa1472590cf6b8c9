package log

import (
	"log/slog"
	"path/filepath"

	charmlog "github.com/charmbracelet/log/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup routes slog output to a rotated file under dataDir. The TUI owns the
// terminal, so nothing may ever log to stdout or stderr.
func Setup(dataDir string, debug bool) {
	writer := &lumberjack.Logger{
		Filename:   filepath.Join(dataDir, "logs", "skim.log"),
		MaxSize:    5, // megabytes
		MaxBackups: 3,
	}
	level := charmlog.InfoLevel
	if debug {
		level = charmlog.DebugLevel
	}
	logger := charmlog.NewWithOptions(writer, charmlog.Options{
		Level:           level,
		ReportTimestamp: true,
	})
	slog.SetDefault(slog.New(logger))
}
