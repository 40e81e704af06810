// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

package avd

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
)

var avdLogger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
	Level: slog.LevelInfo,
}))

// SetLogOutput redirects structured events, e.g. to keep stdout clean for
// machine readable command output.
func SetLogOutput(w io.Writer) {
	avdLogger = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func logEvent(env Env, message string, fields ...any) {
	baseFields := []any{"timestamp_ns", time.Now().UTC().UnixNano()}
	if env.CorrelationID != "" {
		baseFields = append(baseFields, "correlation_id", env.CorrelationID)
	}
	allFields := append(baseFields, fields...)
	avdLogger.Info(message, allFields...)
}

// emitRecord forwards a message to the global OpenTelemetry logger
// provider, which is a no-op until one is installed.
func emitRecord(env Env, severity otellog.Severity, severityText, message string) {
	var rec otellog.Record
	rec.SetTimestamp(time.Now())
	rec.SetSeverity(severity)
	rec.SetSeverityText(severityText)
	rec.SetBody(otellog.StringValue(message))
	if env.CorrelationID != "" {
		rec.AddAttributes(otellog.String("correlation_id", env.CorrelationID))
	}
	global.GetLoggerProvider().Logger("avdlane").Emit(spanContext(env), rec)
}

type lineLogWriter struct {
	env    Env
	fields []any
	buffer []byte
	msg    string
}

func (writer *lineLogWriter) Write(payload []byte) (int, error) {
	writer.buffer = append(writer.buffer, payload...)
	for {
		newlineIndex := bytes.IndexByte(writer.buffer, '\n')
		if newlineIndex == -1 {
			break
		}
		line := strings.TrimSpace(string(writer.buffer[:newlineIndex]))
		writer.buffer = writer.buffer[newlineIndex+1:]
		if line != "" {
			logEvent(writer.env, writer.msg, append(writer.fields, "line", line)...)
		}
	}
	return len(payload), nil
}

func newCommandLogWriter(env Env, command string, args []string) io.Writer {
	fields := []any{"command", command, "stream", "stderr"}
	if len(args) > 0 {
		fields = append(fields, "args", strings.Join(args, " "))
	}
	return &lineLogWriter{
		env:    env,
		fields: fields,
		msg:    "command stderr",
	}
}
