package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"info":  slog.LevelInfo,
		"":      slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestPrettyHandler_FormatsMessageWithTimestamp(t *testing.T) {
	var buf bytes.Buffer
	h := &prettyHandler{w: &buf, level: slog.LevelInfo}
	r := slog.Record{Message: "cycle complete"}
	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle error: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("cycle complete")) {
		t.Errorf("expected message in output, got %q", buf.String())
	}
}

func TestPrettyHandler_EnabledRespectsLevel(t *testing.T) {
	h := &prettyHandler{level: slog.LevelWarn}
	if h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("expected debug disabled when level is warn")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("expected error enabled when level is warn")
	}
}
