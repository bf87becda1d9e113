// bolaget-mcp - Systembolaget Model Context Protocol server
// License: MIT

// Package logger provides leveled, component-tagged logging for bolaget-mcp.
// All output goes to stderr: stdout is reserved for the MCP stdio transport,
// and a single stray log line there corrupts the JSON-RPC stream.
package logger

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Level is a log severity level.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "?"
	}
}

var (
	mu    sync.Mutex
	level           = INFO
	out   io.Writer = os.Stderr

	levelColors = map[Level]*color.Color{
		DEBUG: color.New(color.FgCyan),
		INFO:  color.New(color.FgGreen),
		WARN:  color.New(color.FgYellow),
		ERROR: color.New(color.FgRed),
	}
)

// SetLevel sets the minimum severity that will be emitted.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

// GetLevel returns the current minimum severity.
func GetLevel() Level {
	mu.Lock()
	defer mu.Unlock()
	return level
}

// SetOutput redirects log output, primarily for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

func emit(l Level, component, msg string, fields map[string]any) {
	mu.Lock()
	defer mu.Unlock()
	if l < level {
		return
	}

	ts := time.Now().Format("2006-01-02 15:04:05")
	tag := levelColors[l].Sprintf("%-5s", l.String())

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", ts, tag)
	if component != "" {
		fmt.Fprintf(&b, " [%s]", component)
	}
	b.WriteByte(' ')
	b.WriteString(msg)

	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, fields[k])
		}
	}

	fmt.Fprintln(out, b.String())
}

// Debug logs a formatted message at DEBUG level.
func Debug(format string, args ...any) { emit(DEBUG, "", fmt.Sprintf(format, args...), nil) }

// Info logs a formatted message at INFO level.
func Info(format string, args ...any) { emit(INFO, "", fmt.Sprintf(format, args...), nil) }

// Warn logs a formatted message at WARN level.
func Warn(format string, args ...any) { emit(WARN, "", fmt.Sprintf(format, args...), nil) }

// Error logs a formatted message at ERROR level.
func Error(format string, args ...any) { emit(ERROR, "", fmt.Sprintf(format, args...), nil) }

// DebugCF logs a message with a component tag and structured fields.
func DebugCF(component, msg string, fields map[string]any) { emit(DEBUG, component, msg, fields) }

// InfoCF logs a message with a component tag and structured fields.
func InfoCF(component, msg string, fields map[string]any) { emit(INFO, component, msg, fields) }

// WarnCF logs a message with a component tag and structured fields.
func WarnCF(component, msg string, fields map[string]any) { emit(WARN, component, msg, fields) }

// ErrorCF logs a message with a component tag and structured fields.
func ErrorCF(component, msg string, fields map[string]any) { emit(ERROR, component, msg, fields) }
