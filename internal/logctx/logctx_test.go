package logctx

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestLoggerRoundTrip(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))

	ctx := WithLogger(context.Background(), logger)

	if got := LoggerFromContext(ctx); got != logger {
		t.Error("LoggerFromContext should return the stored logger")
	}
}

func TestLoggerFromContextDefault(t *testing.T) {
	if got := LoggerFromContext(context.Background()); got != slog.Default() {
		t.Error("LoggerFromContext without a stored logger should return slog.Default()")
	}
}

func TestTraceHandlerNoSpanContext(t *testing.T) {
	var buf bytes.Buffer

	logger := slog.New(NewTraceHandler(slog.NewJSONHandler(&buf, nil)))
	logger.InfoContext(context.Background(), "message", "key", "value")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output: %v", err)
	}

	if _, exists := entry["trace_id"]; exists {
		t.Error("trace_id should not be present without a span context")
	}

	if entry["key"] != "value" {
		t.Errorf("attribute lost: %v", entry)
	}
}

func TestTraceHandlerNilInnerPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewTraceHandler(nil) should panic")
		}
	}()

	NewTraceHandler(nil)
}
