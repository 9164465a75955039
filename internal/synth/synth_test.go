package synth

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/voxlabs/vox-core/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildArgs(t *testing.T) {
	cfg := config.SynthConfig{
		ModelDir: "/opt/kokoro",
		Threads:  2,
	}
	req := Request{
		Text:       "Hello there.",
		VoiceID:    5,
		Speed:      1.25,
		OutputPath: "/tmp/out.wav",
	}

	args := buildArgs(cfg, req)

	want := []string{
		"--kokoro-model=/opt/kokoro/model.onnx",
		"--kokoro-voices=/opt/kokoro/voices.bin",
		"--kokoro-tokens=/opt/kokoro/tokens.txt",
		"--kokoro-data-dir=/opt/kokoro/espeak-ng-data",
		"--num-threads=2",
		"--sid=5",
		"--kokoro-length-scale=0.80",
		"--output-filename=/tmp/out.wav",
		"Hello there.",
	}
	if len(args) != len(want) {
		t.Fatalf("got %d args, want %d: %v", len(args), len(want), args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("arg %d: got %q want %q", i, args[i], want[i])
		}
	}
}

func TestBuildArgsDefaultSpeed(t *testing.T) {
	cfg := config.SynthConfig{ModelDir: "/m", Threads: 2}
	args := buildArgs(cfg, Request{Text: "x", Speed: 1.0, OutputPath: "/tmp/x.wav"})
	found := false
	for _, a := range args {
		if a == "--kokoro-length-scale=1.00" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected unit length scale in %v", args)
	}
}

func TestExecPreflightMissingBinary(t *testing.T) {
	dir := t.TempDir()
	cfg := config.SynthConfig{
		BinaryPath: filepath.Join(dir, "missing-binary"),
		ModelDir:   dir,
	}
	s := NewExecSynth(cfg, testLogger())
	err := s.Preflight()
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
	if !strings.Contains(err.Error(), "engine binary not found") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExecPreflightMissingModel(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "tts")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	cfg := config.SynthConfig{BinaryPath: bin, ModelDir: filepath.Join(dir, "model")}
	s := NewExecSynth(cfg, testLogger())
	err := s.Preflight()
	if err == nil {
		t.Fatal("expected error for missing model")
	}
	if !strings.Contains(err.Error(), "voice model not found") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMockSynthWritesFile(t *testing.T) {
	dir := t.TempDir()
	m := NewMockSynth(testLogger())
	out := filepath.Join(dir, "chunk.wav")
	if err := m.Synthesize(context.Background(), Request{Text: "hi", OutputPath: out, Speed: 1.0}); err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("output not written: %v", err)
	}
	texts := m.Texts()
	if len(texts) != 1 || texts[0] != "hi" {
		t.Fatalf("unexpected texts: %v", texts)
	}
}

func TestMockSynthFailAt(t *testing.T) {
	dir := t.TempDir()
	m := NewMockSynth(testLogger())
	m.FailAt = 1
	req := func(i string) Request {
		return Request{Text: i, OutputPath: filepath.Join(dir, i+".wav"), Speed: 1.0}
	}
	if err := m.Synthesize(context.Background(), req("a")); err != nil {
		t.Fatalf("first call should succeed: %v", err)
	}
	err := m.Synthesize(context.Background(), req("b"))
	if err == nil {
		t.Fatal("second call should fail")
	}
	if !strings.Contains(err.Error(), "synthesis failed") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestVoiceCatalog(t *testing.T) {
	voices := Voices()
	if len(voices) != 11 {
		t.Fatalf("got %d voices, want 11", len(voices))
	}
	if voices[5].Name != "AM - Adam" {
		t.Fatalf("voice 5: got %q", voices[5].Name)
	}
	if VoiceName(99) != "" {
		t.Fatalf("unknown voice should have empty name")
	}
}
