package settings

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestOpenSeedsDefaults(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, newLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if got := s.Voice(); got != DefaultVoice {
		t.Fatalf("expected default voice %d, got %d", DefaultVoice, got)
	}
	if got := s.Speed(); got != DefaultSpeed {
		t.Fatalf("expected default speed %v, got %v", DefaultSpeed, got)
	}
	if _, err := os.Stat(filepath.Join(dir, "voice")); err != nil {
		t.Fatalf("expected seeded voice file: %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	s, err := Open(t.TempDir(), newLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.SetVoice(9); err != nil {
		t.Fatalf("set voice: %v", err)
	}
	if err := s.SetSpeed(1.5); err != nil {
		t.Fatalf("set speed: %v", err)
	}
	if got := s.Voice(); got != 9 {
		t.Fatalf("expected voice 9, got %d", got)
	}
	if got := s.Speed(); got != 1.5 {
		t.Fatalf("expected speed 1.5, got %v", got)
	}
}

func TestGarbageFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, newLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "voice"), []byte("not-a-number\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "speed"), []byte("-3\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := s.Voice(); got != DefaultVoice {
		t.Fatalf("expected fallback voice, got %d", got)
	}
	if got := s.Speed(); got != DefaultSpeed {
		t.Fatalf("expected fallback speed, got %v", got)
	}
}

func TestExternalEditIsPickedUp(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, newLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	// Front-ends write these files directly; reads must see the change.
	if err := os.WriteFile(filepath.Join(dir, "speed"), []byte("2.0\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := s.Speed(); got != 2.0 {
		t.Fatalf("expected externally written speed, got %v", got)
	}
}
