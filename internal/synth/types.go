// Package synth produces audio files from chunk text by driving a local
// synthesis engine.
package synth

import "context"

// Request contains the parameters for synthesizing one chunk.
type Request struct {
	Text       string
	VoiceID    int
	Speed      float64
	OutputPath string
}

// Synthesizer is the contract for producing one audio file per request.
// Synthesize blocks until the engine has written OutputPath or failed.
type Synthesizer interface {
	// Preflight reports whether the synthesizer can run at all (binary and
	// model present). Called before a session starts.
	Preflight() error
	Synthesize(ctx context.Context, req Request) error
}

// Error is a failed synthesis attempt with a short diagnostic taken from
// the engine's output.
type Error struct {
	Detail string
}

func (e *Error) Error() string {
	return "synthesis failed: " + e.Detail
}
