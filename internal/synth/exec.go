package synth

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/voxlabs/vox-core/internal/config"
)

const diagnosticLimit = 200

// execSynth shells out to the sherpa-onnx offline TTS binary, one blocking
// invocation per chunk.
type execSynth struct {
	cfg config.SynthConfig
	log *slog.Logger
}

// NewExecSynth returns a Synthesizer backed by the configured binary.
func NewExecSynth(cfg config.SynthConfig, log *slog.Logger) Synthesizer {
	return &execSynth{cfg: cfg, log: log.With(slog.String("component", "synth"))}
}

func (s *execSynth) Preflight() error {
	if _, err := os.Stat(s.cfg.BinaryPath); err != nil {
		return &Error{Detail: fmt.Sprintf("engine binary not found at %s", s.cfg.BinaryPath)}
	}
	model := filepath.Join(s.cfg.ModelDir, "model.onnx")
	if _, err := os.Stat(model); err != nil {
		return &Error{Detail: fmt.Sprintf("voice model not found at %s", model)}
	}
	return nil
}

func (s *execSynth) Synthesize(ctx context.Context, req Request) error {
	args := buildArgs(s.cfg, req)
	cmd := exec.CommandContext(ctx, s.cfg.BinaryPath, args...)
	if s.cfg.LibDir != "" {
		// The engine binary resolves its shared libraries relative to this.
		cmd.Env = append(os.Environ(),
			"LD_LIBRARY_PATH="+s.cfg.LibDir,
			"DYLD_LIBRARY_PATH="+s.cfg.LibDir,
		)
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return &Error{Detail: fmt.Sprintf("engine exited with error: %v: %s", err, excerpt(output))}
	}
	if _, statErr := os.Stat(req.OutputPath); statErr != nil {
		return &Error{Detail: fmt.Sprintf("no audio written to %s: %s", req.OutputPath, excerpt(output))}
	}
	return nil
}

// buildArgs assembles the sherpa-onnx kokoro invocation. The length scale
// is the inverse of playback speed: slower speed stretches the output.
func buildArgs(cfg config.SynthConfig, req Request) []string {
	lengthScale := 1.0 / req.Speed
	return []string{
		fmt.Sprintf("--kokoro-model=%s", filepath.Join(cfg.ModelDir, "model.onnx")),
		fmt.Sprintf("--kokoro-voices=%s", filepath.Join(cfg.ModelDir, "voices.bin")),
		fmt.Sprintf("--kokoro-tokens=%s", filepath.Join(cfg.ModelDir, "tokens.txt")),
		fmt.Sprintf("--kokoro-data-dir=%s", filepath.Join(cfg.ModelDir, "espeak-ng-data")),
		fmt.Sprintf("--num-threads=%d", cfg.Threads),
		fmt.Sprintf("--sid=%d", req.VoiceID),
		fmt.Sprintf("--kokoro-length-scale=%.2f", lengthScale),
		fmt.Sprintf("--output-filename=%s", req.OutputPath),
		req.Text,
	}
}

func excerpt(output []byte) string {
	text := strings.TrimSpace(string(output))
	if len(text) > diagnosticLimit {
		text = text[:diagnosticLimit]
	}
	if text == "" {
		return "(no output)"
	}
	return text
}
