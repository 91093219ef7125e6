package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestConfigureLevelAndComponent(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "info", Output: &buf})
	t.Cleanup(func() { Configure(Config{}) })

	l := WithComponent("check")
	l.Debug().Msg("hidden")
	l.Info().Str("status", "OK").Msg("checked")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d: %s", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal(lines[0], &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["component"] != "check" {
		t.Errorf("component = %v, want check", entry["component"])
	}
	if entry["service"] != "xlinspect" {
		t.Errorf("service = %v, want xlinspect", entry["service"])
	}
	if entry["status"] != "OK" {
		t.Errorf("status = %v, want OK", entry["status"])
	}
}

func TestConfigureInvalidLevelFallsBack(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "chatty", Output: &buf})
	t.Cleanup(func() { Configure(Config{}) })

	l := Base()
	l.Info().Msg("below warn")
	l.Warn().Msg("warned")

	if bytes.Contains(buf.Bytes(), []byte("below warn")) {
		t.Errorf("info line should be filtered at the default level: %s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("warned")) {
		t.Errorf("warn line missing: %s", buf.String())
	}
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "info", Format: "console", Output: &buf})
	t.Cleanup(func() { Configure(Config{}) })

	l := WithFile("analyze", "book.xlsx")
	l.Info().Msg("done")

	out := buf.String()
	if json.Valid(bytes.TrimSpace(buf.Bytes())) {
		t.Errorf("console output should not be JSON: %s", out)
	}
	if !bytes.Contains(buf.Bytes(), []byte("book.xlsx")) {
		t.Errorf("file field missing: %s", out)
	}
}

func TestRequestIDFromContext(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		want string
	}{
		{name: "nil context", ctx: nil, want: ""},
		{name: "without id", ctx: context.Background(), want: ""},
		{name: "with id", ctx: ContextWithRequestID(context.Background(), "req-1"), want: "req-1"},
		{name: "wrong type", ctx: context.WithValue(context.Background(), requestIDKey, 42), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RequestIDFromContext(tt.ctx); got != tt.want {
				t.Errorf("RequestIDFromContext() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFromContextAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf})
	t.Cleanup(func() { Configure(Config{}) })

	ctx := ContextWithRequestID(context.Background(), "abc")
	l := FromContext(ctx, "web")
	l.Debug().Msg("request")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["request_id"] != "abc" {
		t.Errorf("request_id = %v, want abc", entry["request_id"])
	}
}
