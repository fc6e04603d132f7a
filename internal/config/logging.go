package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LogLevel represents logging verbosity levels.
type LogLevel int

// Log level constants.
const (
	LogLevelOff LogLevel = iota
	LogLevelError
	LogLevelInfo
	LogLevelDebug
)

// logTimeLayout is the timestamp prefix of every log line.
const logTimeLayout = "2006-01-02 15:04:05.000"

// ParseLogLevel parses a log level string. Unknown names map to error.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "none":
		return LogLevelOff
	case "info":
		return LogLevelInfo
	case "debug":
		return LogLevelDebug
	default:
		return LogLevelError
	}
}

// ValidLogLevel reports whether s names a known log level.
func ValidLogLevel(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "none", "error", "info", "debug":
		return true
	default:
		return false
	}
}

func (l LogLevel) String() string {
	switch l {
	case LogLevelOff:
		return "off"
	case LogLevelInfo:
		return "info"
	case LogLevelDebug:
		return "debug"
	default:
		return "error"
	}
}

// logSink is the file and level shared by a logger and its named children.
type logSink struct {
	mu    sync.Mutex
	level LogLevel
	file  *os.File
	now   func() time.Time
}

// Logger writes leveled lines to the walletgate log file. Loggers returned by
// Named share the parent's file and level.
type Logger struct {
	sink      *logSink
	component string
}

// NewLogger opens filePath for appending. A "~/" prefix is expanded. No file
// is created when level is off or filePath is empty.
func NewLogger(level LogLevel, filePath string) (*Logger, error) {
	sink := &logSink{level: level, now: time.Now}
	if level == LogLevelOff || filePath == "" {
		return &Logger{sink: sink}, nil
	}

	filePath = ExpandHome(filePath)
	if err := os.MkdirAll(filepath.Dir(filePath), 0o750); err != nil {
		return nil, err
	}

	// #nosec G304 -- log file path is from validated config
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	sink.file = f
	return &Logger{sink: sink}, nil
}

// NullLogger returns a logger that discards all output.
func NullLogger() *Logger {
	return &Logger{sink: &logSink{level: LogLevelOff, now: time.Now}}
}

// Named returns a child logger whose lines are tagged with component.
// Nested names are joined with a dot.
func (l *Logger) Named(component string) *Logger {
	if l.component != "" {
		component = l.component + "." + component
	}
	return &Logger{sink: l.sink, component: component}
}

// Close closes the log file shared by l and its named children.
func (l *Logger) Close() error {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	if l.sink.file != nil {
		return l.sink.file.Close()
	}
	return nil
}

// SetLevel changes the level for l and every logger sharing its file.
func (l *Logger) SetLevel(level LogLevel) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.level = level
}

// Level returns the current log level.
func (l *Logger) Level() LogLevel {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	return l.sink.level
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...any) {
	l.log(LogLevelDebug, format, args...)
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...any) {
	l.log(LogLevelInfo, format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...any) {
	l.log(LogLevelError, format, args...)
}

// Writer returns an io.Writer that logs each write as one line at level.
// It lets standard library loggers, such as http.Server.ErrorLog, write
// into the walletgate log.
func (l *Logger) Writer(level LogLevel) io.Writer {
	return &logWriter{logger: l, level: level}
}

func (l *Logger) log(level LogLevel, format string, args ...any) {
	s := l.sink
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.level == LogLevelOff || level > s.level || s.file == nil {
		return
	}

	var b strings.Builder
	b.WriteString(s.now().Format(logTimeLayout))
	b.WriteString(" [")
	b.WriteString(strings.ToUpper(level.String()))
	b.WriteString("] ")
	if l.component != "" {
		b.WriteString(l.component)
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, format, args...)
	b.WriteByte('\n')

	_, _ = io.WriteString(s.file, b.String())
}

type logWriter struct {
	logger *Logger
	level  LogLevel
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.logger.log(w.level, "%s", strings.TrimSpace(string(p)))
	return len(p), nil
}
