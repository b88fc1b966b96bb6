// Package logging wires the process-wide structured logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	// Log is the process-wide logger. Callers should prefer the package
	// functions below over touching this directly.
	Log = logrus.New()
)

// Config controls where log output is written and at what level. Init
// writes every level to stdout and, if set, InfoLogPath; ErrorLogPath is
// not used by Init.
type Config struct {
	InfoLogPath  string
	ErrorLogPath string
	Level        string
}

// Init points Log at the configured sinks and installs the caller-aware
// formatter. Safe to call more than once; the last call wins.
func Init(cfg Config) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)
	Log.SetFormatter(&callerFormatter{})

	writers := []io.Writer{os.Stdout}
	if cfg.InfoLogPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.InfoLogPath), 0o755); err != nil {
			return err
		}
		f, err := os.OpenFile(cfg.InfoLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		writers = append(writers, f)
	}
	Log.SetOutput(io.MultiWriter(writers...))
	return nil
}

// callerFormatter renders "[time] [LEVL] (file:line) message", matching the
// teacher's house format.
type callerFormatter struct{}

func (f *callerFormatter) Format(e *logrus.Entry) ([]byte, error) {
	ts := e.Time.Format("15:04:05 MST 2006/01/02")
	level := strings.ToUpper(e.Level.String())
	if len(level) > 4 {
		level = level[:4]
	}
	caller := findCaller()
	line := fmt.Sprintf("[%s] [%s] (%s) %s\n", ts, level, caller, e.Message)
	return []byte(line), nil
}

func findCaller() string {
	for i := 2; i < 24; i++ {
		_, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		if strings.Contains(file, "sirupsen/logrus") || strings.Contains(file, "internal/logging") {
			continue
		}
		return fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}
	return "unknown"
}

// WithField and WithError are thin re-exports so callers don't import
// logrus directly.
func WithField(key string, value interface{}) *logrus.Entry { return Log.WithField(key, value) }
func WithError(err error) *logrus.Entry                      { return Log.WithError(err) }
