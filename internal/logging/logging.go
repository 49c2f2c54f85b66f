package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// SourceField carries the logical log source (e.g. "delivery.task").
// The daily report job uses it to attribute and, for its own source,
// exclude lines when counting system errors and warnings.
const SourceField = "source"

// LineFormatter renders entries as single bracketed lines:
//
//	[2025-01-02 15:04:05] [ERROR] delivery.task: message key=value
//
// The daily report job classifies exactly this format, so the day
// stamp and the bracketed level tag must stay stable.
type LineFormatter struct{}

// Format implements logrus.Formatter.
func (f *LineFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b strings.Builder

	b.WriteString("[")
	b.WriteString(entry.Time.Format("2006-01-02 15:04:05"))
	b.WriteString("] [")
	b.WriteString(strings.ToUpper(entry.Level.String()))
	b.WriteString("]")

	if source, ok := entry.Data[SourceField].(string); ok && source != "" {
		b.WriteString(" ")
		b.WriteString(source)
		b.WriteString(":")
	}

	b.WriteString(" ")
	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		if k == SourceField {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}

	b.WriteString("\n")
	return []byte(b.String()), nil
}

// NewLogger creates the worker logger writing to stdout and, when
// logPath is non-empty, to the append-only log file the daily report
// job scans. The returned closer releases the file handle.
func NewLogger(level, logPath string) (*logrus.Logger, func() error, error) {
	logger := logrus.New()
	logger.SetFormatter(&LineFormatter{})
	logger.SetLevel(parseLevel(level))

	closer := func() error { return nil }
	if logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		logger.SetOutput(io.MultiWriter(os.Stdout, f))
		closer = f.Close
	}

	return logger, closer, nil
}

// WithSource tags entries with a logical source name.
func WithSource(logger *logrus.Logger, source string) *logrus.Entry {
	return logger.WithField(SourceField, source)
}

func parseLevel(level string) logrus.Level {
	switch level {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
