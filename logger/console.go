// Package logger provides a structured logging interface for applications.
package logger

import (
	"encoding/json"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// consoleEncoder is a custom encoder for development mode that outputs colored,
// human-readable logs with indented JSON for structured fields.
type consoleEncoder struct {
	zapcore.Encoder
	lineEncoder zapcore.Encoder
	jsonEncoder zapcore.Encoder
	pool        buffer.Pool
}

// newConsoleEncoder creates a development encoder with color support and JSON indentation.
func newConsoleEncoder(encoderConfig zapcore.EncoderConfig) zapcore.Encoder {
	lineEnc := zapcore.NewConsoleEncoder(encoderConfig)
	return &consoleEncoder{
		Encoder:     lineEnc, // embed the console encoder to satisfy the Encoder interface
		lineEncoder: lineEnc,
		jsonEncoder: zapcore.NewJSONEncoder(encoderConfig),
		pool:        buffer.NewPool(),
	}
}

// EncodeEntry formats a log entry with colored levels and indented fields.
func (e *consoleEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	lineBuf, err := e.lineEncoder.EncodeEntry(entry, nil)
	if err != nil {
		return nil, err
	}

	line := colorizeLevel(strings.TrimRight(lineBuf.String(), "\n"), entry.Level)

	if len(fields) > 0 {
		fieldBuf, encErr := e.jsonEncoder.EncodeEntry(entry, fields)
		if encErr != nil {
			return nil, encErr
		}

		var fieldsMap map[string]any
		if json.Unmarshal(fieldBuf.Bytes(), &fieldsMap) != nil {
			line += " " + strings.TrimRight(fieldBuf.String(), "\n")
		} else {
			line = appendFields(line, fieldsMap, fieldBuf)
		}
	}

	buf := e.pool.Get()
	buf.AppendString(line)
	buf.AppendString("\n")

	return buf, nil
}

// appendFields pretty-prints the remaining structured fields under the log line.
func appendFields(line string, fieldsMap map[string]any, fieldBuf *buffer.Buffer) string {
	// Drop fields that already appear in the line prefix.
	for _, k := range []string{messageKey, levelKey, timeKey, callerKey, nameKey} {
		delete(fieldsMap, k)
	}
	if len(fieldsMap) == 0 {
		return line
	}

	pretty, err := json.MarshalIndent(fieldsMap, "", "  ")
	if err != nil {
		return line + " " + strings.TrimRight(fieldBuf.String(), "\n")
	}
	return line + "\n" + string(pretty)
}

// colorizeLevel colors the log level token based on its severity.
func colorizeLevel(line string, level zapcore.Level) string {
	var colorFunc func(a ...any) string

	switch level {
	case zapcore.DebugLevel:
		colorFunc = color.New(color.FgCyan).SprintFunc()
	case zapcore.InfoLevel:
		colorFunc = color.New(color.FgGreen).SprintFunc()
	case zapcore.WarnLevel:
		colorFunc = color.New(color.FgYellow).SprintFunc()
	case zapcore.ErrorLevel, zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		colorFunc = color.New(color.FgRed, color.Bold).SprintFunc()
	default:
		return line
	}

	levelStr := level.CapitalString()
	if strings.Contains(line, levelStr) {
		return strings.Replace(line, levelStr, colorFunc(levelStr), 1)
	}
	return line
}
