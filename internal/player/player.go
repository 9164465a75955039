// Package player abstracts audio playback of synthesized chunk files.
package player

import "context"

// Player starts playback of a single audio file and hands back a Handle
// for lifecycle control. Play returns once the child process (or its mock
// equivalent) has started, not when the audio finishes.
type Player interface {
	Play(ctx context.Context, path string) (Handle, error)
}

// Handle controls one in-flight playback.
type Handle interface {
	// Wait blocks until playback finishes or the handle is terminated.
	Wait() error
	// Suspend freezes playback in place.
	Suspend() error
	// Resume continues a suspended playback.
	Resume() error
	// Terminate kills the playback immediately. Wait unblocks afterwards.
	Terminate() error
}
