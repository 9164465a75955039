package player

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMockPlayerFinishes(t *testing.T) {
	p := NewMockPlayer()
	p.PlayDuration = 5 * time.Millisecond
	h, err := p.Play(context.Background(), "/tmp/a.wav")
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if err := h.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
	got := p.Played()
	if len(got) != 1 || got[0] != "/tmp/a.wav" {
		t.Fatalf("played: %v", got)
	}
}

func TestMockPlayerSuspendHoldsPlayback(t *testing.T) {
	p := NewMockPlayer()
	p.PlayDuration = 20 * time.Millisecond
	h, err := p.Play(context.Background(), "/tmp/b.wav")
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if err := h.Suspend(); err != nil {
		t.Fatalf("suspend: %v", err)
	}

	waited := make(chan error, 1)
	go func() { waited <- h.Wait() }()

	select {
	case <-waited:
		t.Fatal("playback finished while suspended")
	case <-time.After(60 * time.Millisecond):
	}

	if err := h.Resume(); err != nil {
		t.Fatalf("resume: %v", err)
	}
	select {
	case err := <-waited:
		if err != nil {
			t.Fatalf("wait after resume: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("playback never finished after resume")
	}
}

func TestMockPlayerTerminateAfterCompletion(t *testing.T) {
	p := NewMockPlayer()
	p.PlayDuration = 5 * time.Millisecond
	h, err := p.Play(context.Background(), "/tmp/d.wav")
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if err := h.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if err := h.Terminate(); err != nil {
		t.Fatalf("terminate after completion: %v", err)
	}
	if err := h.Wait(); err != nil {
		t.Fatalf("wait after late terminate: %v", err)
	}
}

func TestMockPlayerTerminate(t *testing.T) {
	p := NewMockPlayer()
	p.PlayDuration = time.Second
	h, err := p.Play(context.Background(), "/tmp/c.wav")
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if err := h.Terminate(); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	if err := h.Wait(); !errors.Is(err, ErrTerminated) {
		t.Fatalf("wait after terminate: %v", err)
	}
}
