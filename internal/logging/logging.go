package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"time"
)

// Level is a logging severity.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a string to a Level. The empty string maps to Info.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug, nil
	case "info", "":
		return Info, nil
	case "warn", "warning":
		return Warn, nil
	case "error":
		return Error, nil
	default:
		return Level(0), fmt.Errorf("unsupported log level %q", s)
	}
}

// Format selects how entries are rendered.
type Format int

const (
	Text Format = iota
	JSON
)

// ParseFormat converts a string to a Format. The empty string maps to Text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "":
		return Text, nil
	case "json":
		return JSON, nil
	default:
		return Format(0), fmt.Errorf("unsupported log format %q", s)
	}
}

// Field is one structured key/value pair attached to a log entry.
type Field struct {
	Key   string
	Value any
}

// F is shorthand for constructing a Field.
func F(key string, value any) Field { return Field{Key: key, Value: value} }

// Logger defines leveled structured logging operations.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

var defaultLogger Logger

// Default returns the process-wide logger, discarding output until
// SetDefault is called.
func Default() Logger {
	if defaultLogger == nil {
		defaultLogger = New(Info, Text, io.Discard)
	}
	return defaultLogger
}

// SetDefault replaces the process-wide logger.
func SetDefault(l Logger) {
	if l != nil {
		defaultLogger = l
	}
}

type stdLogger struct {
	level  Level
	format Format
	bound  []Field
	out    *log.Logger
}

// New constructs a Logger writing entries at or above level to out.
func New(level Level, format Format, out io.Writer) Logger {
	return &stdLogger{
		level:  level,
		format: format,
		out:    log.New(out, "", log.LstdFlags),
	}
}

func (l *stdLogger) With(fields ...Field) Logger {
	bound := make([]Field, 0, len(l.bound)+len(fields))
	bound = append(bound, l.bound...)
	bound = append(bound, fields...)
	return &stdLogger{level: l.level, format: l.format, bound: bound, out: l.out}
}

func (l *stdLogger) Debug(msg string, fields ...Field) { l.emit(Debug, msg, fields) }
func (l *stdLogger) Info(msg string, fields ...Field)  { l.emit(Info, msg, fields) }
func (l *stdLogger) Warn(msg string, fields ...Field)  { l.emit(Warn, msg, fields) }
func (l *stdLogger) Error(msg string, fields ...Field) { l.emit(Error, msg, fields) }

func (l *stdLogger) emit(level Level, msg string, fields []Field) {
	if level < l.level {
		return
	}
	all := make([]Field, 0, len(l.bound)+len(fields))
	all = append(all, l.bound...)
	all = append(all, fields...)

	if l.format == JSON {
		payload := map[string]any{
			"time":  time.Now().Format(time.RFC3339Nano),
			"level": level.String(),
			"msg":   msg,
		}
		for _, f := range all {
			if f.Key != "" {
				payload[f.Key] = f.Value
			}
		}
		data, err := json.Marshal(payload)
		if err != nil {
			l.out.Printf("[ERROR] marshal log payload: %v", err)
			return
		}
		l.out.Print(string(data))
		return
	}

	var b strings.Builder
	for _, f := range all {
		if f.Key == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%v", f.Key, f.Value)
	}
	if b.Len() == 0 {
		l.out.Printf("[%s] %s", level.String(), msg)
		return
	}
	l.out.Printf("[%s] %s %s", level.String(), msg, b.String())
}
