package inbox

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type fakeHandler struct {
	mu      sync.Mutex
	spoken  []string
	stops   int
	toggles int
}

func (h *fakeHandler) Speak(text string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.spoken = append(h.spoken, text)
}

func (h *fakeHandler) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stops++
}

func (h *fakeHandler) Toggle() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.toggles++
}

func (h *fakeHandler) counts() (int, int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.spoken), h.stops, h.toggles
}

func startWatcher(t *testing.T) (*Watcher, *fakeHandler, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".request")
	h := &fakeHandler{}
	w := New(path, h, slog.New(slog.NewTextHandler(io.Discard, nil)))
	w.pollInterval = 10 * time.Millisecond
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w, h, path
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestStartCreatesRequestFile(t *testing.T) {
	_, _, path := startWatcher(t)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("request file missing: %v", err)
	}
}

func TestDispatchSpeak(t *testing.T) {
	_, h, path := startWatcher(t)

	if err := os.WriteFile(path, []byte("  read this aloud \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "speak dispatch", func() bool {
		n, _, _ := h.counts()
		return n == 1
	})

	h.mu.Lock()
	got := h.spoken[0]
	h.mu.Unlock()
	if got != "read this aloud" {
		t.Fatalf("payload not trimmed: %q", got)
	}
}

func TestDispatchControlPayloads(t *testing.T) {
	_, h, path := startWatcher(t)

	if err := os.WriteFile(path, []byte(PayloadStop), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "stop dispatch", func() bool {
		_, stops, _ := h.counts()
		return stops == 1
	})

	if err := os.WriteFile(path, []byte(PayloadToggle+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "toggle dispatch", func() bool {
		_, _, toggles := h.counts()
		return toggles == 1
	})

	if n, _, _ := h.counts(); n != 0 {
		t.Fatal("control payload dispatched as speech")
	}
}

func TestInboxClearedAfterDispatch(t *testing.T) {
	_, h, path := startWatcher(t)

	if err := os.WriteFile(path, []byte("once only"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "dispatch", func() bool {
		n, _, _ := h.counts()
		return n == 1
	})

	waitFor(t, "inbox cleared", func() bool {
		data, err := os.ReadFile(path)
		return err == nil && len(data) == 0
	})

	// Several poll cycles later the payload must not replay.
	time.Sleep(50 * time.Millisecond)
	if n, _, _ := h.counts(); n != 1 {
		t.Fatalf("payload dispatched %d times", n)
	}
}

func TestWhitespaceOnlyPayloadIgnored(t *testing.T) {
	_, h, path := startWatcher(t)

	if err := os.WriteFile(path, []byte("   \n\t"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	if n, stops, toggles := h.counts(); n+stops+toggles != 0 {
		t.Fatalf("whitespace payload dispatched: %d %d %d", n, stops, toggles)
	}
}
