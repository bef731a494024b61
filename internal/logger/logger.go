package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PatrickWalther/unfollow-watch-go/internal/config"
	"github.com/PatrickWalther/unfollow-watch-go/internal/constants"
)

const daysToKeep = 7

type Logger struct {
	file    *os.File
	handler slog.Handler
	path    string
}

// Setup installs the default slog logger. Records go to stdout and, when
// settings.Save is set, to <dataDir>/logs/<name>.log.
func Setup(dataDir, name string, settings config.LoggerSettings) (*Logger, error) {
	return SetupWithWriter(os.Stdout, dataDir, name, settings)
}

func SetupWithWriter(console io.Writer, dataDir, name string, settings config.LoggerSettings) (*Logger, error) {
	consoleLevel := ParseLevel(settings.ConsoleLevel)
	fileLevel := ParseLevel(settings.FileLevel)

	writers := []io.Writer{console}

	l := &Logger{}

	if settings.Save {
		logDir := filepath.Join(dataDir, constants.LogsDir)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, err
		}

		logPath := filepath.Join(logDir, name+".log")

		if settings.AutoClear {
			clearOldLogs(logPath, daysToKeep)
		}

		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, err
		}
		l.file = file
		l.path = logPath
		writers = append(writers, file)
	}

	level := consoleLevel
	if settings.Save && fileLevel < consoleLevel {
		level = fileLevel
	}

	handler := slog.NewTextHandler(io.MultiWriter(writers...), &slog.HandlerOptions{
		Level: level,
	})

	l.handler = handler
	slog.SetDefault(slog.New(handler))

	return l, nil
}

// Path returns the log file path, or "" when logs are not saved.
func (l *Logger) Path() string {
	return l.path
}

func (l *Logger) Close() {
	if l.file != nil {
		l.file.Close()
	}
}

// SetupBasic installs a console-only logger, used before the config is loaded.
func SetupBasic(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func clearOldLogs(logPath string, days int) {
	info, err := os.Stat(logPath)
	if err != nil {
		return
	}

	if time.Since(info.ModTime()) > time.Duration(days)*24*time.Hour {
		os.Remove(logPath)
	}
}
