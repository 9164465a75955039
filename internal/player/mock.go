package player

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTerminated is returned from Wait when a mock playback was killed.
var ErrTerminated = errors.New("playback terminated")

// MockPlayer simulates playback with short timed handles. Each Play call
// records its path and returns a pausable handle.
type MockPlayer struct {
	// PlayDuration is how long each simulated playback runs.
	PlayDuration time.Duration

	mu     sync.Mutex
	played []string
}

// NewMockPlayer returns a mock whose playbacks finish after 10ms.
func NewMockPlayer() *MockPlayer {
	return &MockPlayer{PlayDuration: 10 * time.Millisecond}
}

func (p *MockPlayer) Play(ctx context.Context, path string) (Handle, error) {
	p.mu.Lock()
	p.played = append(p.played, path)
	p.mu.Unlock()

	h := &mockHandle{
		remaining: p.PlayDuration,
		done:      make(chan struct{}),
	}
	go h.run()
	return h, nil
}

// Played returns the paths played so far, in order.
func (p *MockPlayer) Played() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.played))
	copy(out, p.played)
	return out
}

type mockHandle struct {
	mu         sync.Mutex
	paused     bool
	terminated bool
	finished   bool
	remaining  time.Duration
	done       chan struct{}
	err        error
}

const mockTick = time.Millisecond

func (h *mockHandle) run() {
	for {
		time.Sleep(mockTick)
		h.mu.Lock()
		if h.terminated {
			h.mu.Unlock()
			return
		}
		if !h.paused {
			h.remaining -= mockTick
			if h.remaining <= 0 {
				h.finished = true
				close(h.done)
				h.mu.Unlock()
				return
			}
		}
		h.mu.Unlock()
	}
}

func (h *mockHandle) Wait() error {
	<-h.done
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *mockHandle) Suspend() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.paused = true
	return nil
}

func (h *mockHandle) Resume() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.paused = false
	return nil
}

// Terminate is a no-op once playback has finished, matching a kill sent
// to an already exited process.
func (h *mockHandle) Terminate() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.terminated || h.finished {
		return nil
	}
	h.terminated = true
	h.err = ErrTerminated
	close(h.done)
	return nil
}

// Paused reports whether the handle is currently suspended. Test helper.
func (h *mockHandle) Paused() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.paused
}
