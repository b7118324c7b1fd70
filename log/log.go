// Package log provides the application's structured logging, persisted to a daily file under the logs directory.
//
// Logging is opt-in: until Setup runs with logs.write enabled every emission is discarded,
// which keeps library use and tests silent.
package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/aniresolve/aniresolve/filesystem"
	"github.com/aniresolve/aniresolve/key"
	"github.com/aniresolve/aniresolve/where"
	logrus "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var enabled bool

// Fields is an alias so callers do not need to import logrus for structured entries.
type Fields = logrus.Fields

var discard = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}()

// Setup opens today's log file and applies the configured format and level.
func Setup() error {
	enabled = viper.GetBool(key.LogsWrite)
	if !enabled {
		return nil
	}

	dir := where.Logs()
	if dir == "" {
		return errors.New("log directory path is empty")
	}

	filename := fmt.Sprintf("%s.log", time.Now().Format("2006-01-02"))
	path := filepath.Join(dir, filename)

	f, err := filesystem.API().OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	logrus.SetOutput(f)

	if viper.GetBool(key.LogsJson) {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{})
	}

	parsed, err := logrus.ParseLevel(viper.GetString(key.LogsLevel))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logrus.SetLevel(parsed)

	return nil
}

func logger() *logrus.Logger {
	if enabled {
		return logrus.StandardLogger()
	}
	return discard
}

// WithFields returns an entry carrying the given fields, or a silent one when logging is off.
func WithFields(fields Fields) *logrus.Entry {
	return logger().WithFields(fields)
}

func Error(args ...any)                 { logger().Error(args...) }
func Errorf(format string, args ...any) { logger().Errorf(format, args...) }
func Warn(args ...any)                  { logger().Warn(args...) }
func Warnf(format string, args ...any)  { logger().Warnf(format, args...) }
func Info(args ...any)                  { logger().Info(args...) }
func Infof(format string, args ...any)  { logger().Infof(format, args...) }
func Debug(args ...any)                 { logger().Debug(args...) }
func Debugf(format string, args ...any) { logger().Debugf(format, args...) }
