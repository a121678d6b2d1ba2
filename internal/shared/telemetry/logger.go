package telemetry

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	mu     sync.RWMutex
	level  = logrus.InfoLevel
	logger = newLogger(os.Stdout)
)

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(level)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "ts",
		},
	})
	return l
}

// SetOutput redirects log lines, mainly for tests.
func SetOutput(out io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(out)
}

// SetDebug toggles debug-level output.
func SetDebug(on bool) {
	mu.Lock()
	defer mu.Unlock()
	level = logrus.InfoLevel
	if on {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)
}

// Debug writes a debug-level log line with the given fields.
func Debug(msg string, fields map[string]any) {
	entry(fields).Debug(msg)
}

// Info writes an info-level log line with the given fields.
func Info(msg string, fields map[string]any) {
	entry(fields).Info(msg)
}

// Warn writes a warn-level log line with the given fields.
func Warn(msg string, fields map[string]any) {
	entry(fields).Warn(msg)
}

// Error writes an error-level log line with the given fields.
func Error(msg string, fields map[string]any) {
	entry(fields).Error(msg)
}

func entry(fields map[string]any) *logrus.Entry {
	mu.RLock()
	l := logger
	mu.RUnlock()
	e := logrus.NewEntry(l)
	if len(fields) == 0 {
		return e
	}
	data := make(logrus.Fields, len(fields))
	for k, v := range fields {
		if err, ok := v.(error); ok && err != nil {
			data[k] = err.Error()
			continue
		}
		data[k] = v
	}
	return e.WithFields(data)
}
