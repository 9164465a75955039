package player

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"syscall"
)

// execPlayer spawns the configured player binary (afplay on macOS, or any
// CLI that takes a file path and exits when done).
type execPlayer struct {
	binary string
	log    *slog.Logger
}

// NewExecPlayer returns a Player backed by the given binary.
func NewExecPlayer(binary string, log *slog.Logger) Player {
	return &execPlayer{binary: binary, log: log.With(slog.String("component", "player"))}
}

func (p *execPlayer) Play(ctx context.Context, path string) (Handle, error) {
	cmd := exec.CommandContext(ctx, p.binary, path)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start player %s: %w", p.binary, err)
	}
	p.log.Debug("playback started", slog.String("path", path), slog.Int("pid", cmd.Process.Pid))
	return &execHandle{cmd: cmd}, nil
}

type execHandle struct {
	cmd *exec.Cmd
}

func (h *execHandle) Wait() error {
	return h.cmd.Wait()
}

func (h *execHandle) Suspend() error {
	return h.cmd.Process.Signal(syscall.SIGSTOP)
}

func (h *execHandle) Resume() error {
	return h.cmd.Process.Signal(syscall.SIGCONT)
}

func (h *execHandle) Terminate() error {
	return h.cmd.Process.Kill()
}
