package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithFormat("json", &buf); err != nil {
		t.Fatalf("failed to initialize json logger: %v", err)
	}

	ctx := context.Background()
	Get().Info(ctx, "compared robots",
		String("robot_a", "a1"),
		Int("total_comparable", 3),
		Bool("tie", false),
		Duration("took", 2*time.Millisecond),
	)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not json: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "compared robots" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["robot_a"] != "a1" {
		t.Errorf("robot_a = %v", entry["robot_a"])
	}
	source, _ := entry["source"].(string)
	if !strings.Contains(source, "logger_test.go") {
		t.Errorf("source = %q, want caller in logger_test.go", source)
	}
}

func TestLoggerUnknownFormat(t *testing.T) {
	if err := InitWithFormat("xml", &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestLoggerNamedAndWith(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithFormat("text", &buf); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	Named("dispatcher").With(String("action", "getRandomRobots")).Warn(ctx, "not enough candidates", Error(errors.New("boom")))

	out := buf.String()
	for _, want := range []string{"component=dispatcher", "action=getRandomRobots", "error=boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestSetLevelString(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithFormat("text", &buf); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	if err := SetLevelString("warn"); err != nil {
		t.Fatalf("SetLevelString(warn) error = %v", err)
	}
	Get().Info(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Errorf("info entry written at warn level: %q", buf.String())
	}

	if err := SetLevelString("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
	_ = SetLevelString("info")
}

func TestNop(t *testing.T) {
	Nop().Error(context.Background(), "discarded", String("k", "v"))
}
