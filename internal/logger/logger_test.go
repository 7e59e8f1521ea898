package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"WARNING": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestZapLoggerWritesObjectField(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZap(zap.New(core))

	log.InfoObj("fetch attempt", "fetch_attempt", map[string]any{"attempt": 1})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Message != "fetch attempt" {
		t.Fatalf("unexpected message %q", entries[0].Message)
	}
	if _, ok := entries[0].ContextMap()["fetch_attempt"]; !ok {
		t.Fatalf("missing fetch_attempt field: %#v", entries[0].ContextMap())
	}
}

func TestEnsureReturnsNopForNil(t *testing.T) {
	if _, ok := Ensure(nil).(NopLogger); !ok {
		t.Fatalf("expected NopLogger")
	}
}
