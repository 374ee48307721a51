package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerRedactsTokens(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelDebug, "json")

	log.Info("trustee: invitation issued", "token", "abc123", "invitation_token", "", "trustee_id", "t1")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if line["token"] != "[REDACTED]" {
		t.Fatalf("expected token to be redacted, got %v", line["token"])
	}
	if line["invitation_token"] != "" {
		t.Fatalf("expected empty values to stay empty, got %v", line["invitation_token"])
	}
	if line["trustee_id"] != "t1" {
		t.Fatalf("unexpected trustee_id %v", line["trustee_id"])
	}
}

func TestLoggerCriticalAndErrors(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelInfo, "text")

	log.Critical("queue: broker unreachable")
	log.BusinessError("nominee: duplicate", nil)
	log.InternalError("store: write failed", errors.New("disk full"), "table", "nominees")

	out := buf.String()
	if !strings.Contains(out, "level=CRITICAL") {
		t.Fatalf("expected CRITICAL level, got %q", out)
	}
	if strings.Contains(out, "nominee: duplicate") {
		t.Fatalf("expected nil business error to be dropped, got %q", out)
	}
	if !strings.Contains(out, `err="disk full"`) || !strings.Contains(out, "table=nominees") {
		t.Fatalf("expected internal error attrs, got %q", out)
	}
}

func TestParseLevelFollowsEnv(t *testing.T) {
	if parseLevel("", "development") != slog.LevelDebug {
		t.Fatalf("expected debug in development")
	}
	if parseLevel("bogus", "production") != slog.LevelInfo {
		t.Fatalf("expected info fallback")
	}
	if parseLevel("fatal", "") != LevelCritical {
		t.Fatalf("expected fatal to map to critical")
	}
}
