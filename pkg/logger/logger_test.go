package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		" warn ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_AddsServiceField(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "debug", Service: "notes", Output: &buf})

	log.Info().Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["service"] != "notes" {
		t.Fatalf("expected service field, got %v", entry["service"])
	}
	if entry["message"] != "hello" {
		t.Fatalf("unexpected message %v", entry["message"])
	}
}

func TestNew_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "warn", Output: &buf})

	log.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %q", buf.String())
	}
}

func TestInitIsSticky(t *testing.T) {
	Reset()
	defer Reset()

	var first, second bytes.Buffer
	Init(Options{Output: &first})
	Init(Options{Output: &second})

	log := Get()
	log.Info().Msg("once")
	if first.Len() == 0 || second.Len() != 0 {
		t.Fatalf("expected only the first writer to receive output")
	}
}

func TestGetBeforeInitIsNop(t *testing.T) {
	Reset()
	// Must not panic.
	log := Get()
	log.Info().Msg("ignored")
}
