package synth

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"
)

// MockSynth writes a placeholder file per request. It is selected by the
// mock synth mode and used heavily in tests.
type MockSynth struct {
	log *slog.Logger

	// Delay is applied before each synthesis completes.
	Delay time.Duration
	// FailAt, when >= 0, fails the request whose index matches the call
	// count at that point.
	FailAt int

	mu    sync.Mutex
	calls int
	texts []string
}

// NewMockSynth returns a mock that never fails.
func NewMockSynth(log *slog.Logger) *MockSynth {
	return &MockSynth{log: log.With(slog.String("component", "synth.mock")), FailAt: -1}
}

func (m *MockSynth) Preflight() error { return nil }

func (m *MockSynth) Synthesize(ctx context.Context, req Request) error {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.Lock()
	call := m.calls
	m.calls++
	m.texts = append(m.texts, req.Text)
	m.mu.Unlock()

	if m.FailAt >= 0 && call == m.FailAt {
		return &Error{Detail: "mock failure"}
	}
	return os.WriteFile(req.OutputPath, []byte("RIFFmock"), 0o644)
}

// Texts returns the chunk texts synthesized so far, in call order.
func (m *MockSynth) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.texts))
	copy(out, m.texts)
	return out
}
