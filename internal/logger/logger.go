package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger provides component-scoped structured logging
type Logger interface {
	Info(component, message string, fields map[string]interface{})
	Error(component string, err error, fields map[string]interface{})
	Warning(component, message string, fields map[string]interface{})
	Debug(component, message string, fields map[string]interface{})
}

// ParseLevel maps the configured level name onto a zerolog level
func ParseLevel(name string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "", "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.InfoLevel, fmt.Errorf("unknown log level %q", name)
	}
}

// New builds the application logger: JSON lines when useJSON is set, a console
// writer otherwise.
func New(writer io.Writer, level zerolog.Level, useJSON bool) *ZerologAdapter {
	if writer == nil {
		writer = os.Stdout
	}
	if !useJSON {
		writer = zerolog.ConsoleWriter{Out: writer, TimeFormat: "15:04:05"}
	}
	return NewZerolog(writer, level)
}

// NoOpLogger discards everything
type NoOpLogger struct{}

func (NoOpLogger) Info(component, message string, fields map[string]interface{})    {}
func (NoOpLogger) Error(component string, err error, fields map[string]interface{}) {}
func (NoOpLogger) Warning(component, message string, fields map[string]interface{}) {}
func (NoOpLogger) Debug(component, message string, fields map[string]interface{})   {}
