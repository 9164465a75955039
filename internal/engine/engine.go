// Package engine drives the generation/playback pipeline: sanitize and
// segment text, run a look-ahead synthesis worker next to a strictly
// ordered playback worker, and publish session updates to subscribers.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voxlabs/vox-core/internal/player"
	"github.com/voxlabs/vox-core/internal/protocol"
	"github.com/voxlabs/vox-core/internal/settings"
	"github.com/voxlabs/vox-core/internal/synth"
	"github.com/voxlabs/vox-core/internal/textproc"
)

// State is the engine's playback state.
type State string

const (
	StateStopped State = "stopped"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
)

const (
	baseWPM        = 160.0
	doneResetDelay = 2 * time.Second
)

// Subscriber receives a session update after every engine mutation.
// Callbacks run outside the engine lock and must not block for long.
type Subscriber func(protocol.SessionUpdate)

type chunkStatus int

const (
	chunkPending chunkStatus = iota
	chunkGenerating
	chunkReady
	chunkFailed
)

type chunk struct {
	index  int
	text   string
	path   string
	status chunkStatus
}

// session is the live aggregate for one speak request. It is replaced,
// never reused, when a new speak arrives. Workers compare their session
// pointer against the engine's current one to detect teardown.
type session struct {
	id          string
	chunks      []*chunk
	files       map[int]string
	totalWords  int
	spokenWords int
	voiceID     int
	speed       float64
	done        chan struct{}
}

// Engine owns the playback state machine.
type Engine struct {
	synth    synth.Synthesizer
	player   player.Player
	settings *settings.Store
	dataDir  string
	log      *slog.Logger
	metrics  *engineMetrics

	mu           sync.Mutex
	sess         *session
	state        State
	currentIndex int
	progress     float64
	etaText      string
	lastError    string
	handle       player.Handle
	playing      bool
	subs         []Subscriber
}

// New constructs a stopped engine. Temp audio files are written under dataDir.
func New(s synth.Synthesizer, p player.Player, st *settings.Store, dataDir string, log *slog.Logger) *Engine {
	lg := log.With(slog.String("component", "engine"))
	return &Engine{
		synth:    s,
		player:   p,
		settings: st,
		dataDir:  dataDir,
		log:      lg,
		metrics:  newEngineMetrics(lg),
		state:    StateStopped,
	}
}

// Subscribe registers a callback invoked on every session update.
func (e *Engine) Subscribe(fn Subscriber) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subs = append(e.subs, fn)
}

// Speak tears down any active session and starts speaking the given text.
// Empty or markup-only text is a no-op.
func (e *Engine) Speak(text string) {
	e.Stop()

	cleaned := textproc.Clean(text)
	if cleaned == "" {
		return
	}

	e.mu.Lock()
	e.lastError = ""
	e.mu.Unlock()

	if err := e.synth.Preflight(); err != nil {
		e.log.Error("preflight failed", slog.String("error", err.Error()))
		e.mu.Lock()
		e.lastError = err.Error()
		u := e.snapshotLocked()
		e.mu.Unlock()
		e.notify(u)
		return
	}

	chunks := textproc.Segment(cleaned)
	if len(chunks) == 0 {
		return
	}

	s := &session{
		id:         uuid.NewString(),
		files:      make(map[int]string),
		totalWords: textproc.WordCount(cleaned),
		voiceID:    e.settings.Voice(),
		speed:      e.settings.Speed(),
		done:       make(chan struct{}),
	}
	for i, text := range chunks {
		s.chunks = append(s.chunks, &chunk{
			index: i,
			text:  text,
			path:  filepath.Join(e.dataDir, fmt.Sprintf(".chunk_%d.wav", i)),
		})
	}

	e.mu.Lock()
	e.sess = s
	e.state = StatePlaying
	e.currentIndex = 0
	e.progress = 0
	e.updateETALocked()
	u := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(u)

	e.log.Info("session started",
		slog.String("session_id", s.id),
		slog.Int("chunks", len(s.chunks)),
		slog.Int("words", s.totalWords),
		slog.Int("voice", s.voiceID),
		slog.Float64("speed", s.speed))

	if e.metrics.sessionsStarted != nil {
		e.metrics.sessionsStarted.Add(context.Background(), 1)
	}

	go e.generateLoop(s)
	go e.etaLoop(s)
}

// Toggle pauses a playing session or resumes a paused one. No-op when stopped.
func (e *Engine) Toggle() {
	e.mu.Lock()
	var handle player.Handle
	var suspend bool
	switch e.state {
	case StatePlaying:
		e.state = StatePaused
		handle, suspend = e.handle, true
	case StatePaused:
		e.state = StatePlaying
		handle, suspend = e.handle, false
	default:
		e.mu.Unlock()
		return
	}
	u := e.snapshotLocked()
	e.mu.Unlock()

	if handle != nil {
		var err error
		if suspend {
			err = handle.Suspend()
		} else {
			err = handle.Resume()
		}
		if err != nil {
			e.log.Warn("toggle signal failed", slog.String("error", err.Error()))
		}
	}
	e.notify(u)
}

// Stop tears down the active session, kills playback, and removes the
// session's temp files. Idempotent.
func (e *Engine) Stop() {
	e.mu.Lock()
	s := e.sess
	handle := e.handle
	e.state = StateStopped
	e.progress = 0
	e.etaText = ""
	e.currentIndex = 0
	u := e.snapshotLocked()
	e.sess = nil
	e.handle = nil
	e.playing = false
	e.mu.Unlock()

	if s != nil {
		close(s.done)
	}
	if handle != nil {
		if err := handle.Terminate(); err != nil {
			e.log.Debug("terminate playback", slog.String("error", err.Error()))
		}
	}
	if s != nil {
		e.removeFiles(s)
		e.log.Info("session stopped", slog.String("session_id", s.id))
	}
	e.notify(u)
}

// Snapshot returns the current observable fields.
func (e *Engine) Snapshot() protocol.SessionUpdate {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// generateLoop synthesizes chunks sequentially, running ahead of playback.
// A synthesis failure stops the loop; chunks already generated drain out.
func (e *Engine) generateLoop(s *session) {
	for i := 0; i < len(s.chunks); i++ {
		e.mu.Lock()
		if e.sess != s {
			e.mu.Unlock()
			return
		}
		c := s.chunks[i]
		c.status = chunkGenerating
		e.mu.Unlock()

		started := time.Now()
		err := e.synth.Synthesize(context.Background(), synth.Request{
			Text:       c.text,
			VoiceID:    s.voiceID,
			Speed:      s.speed,
			OutputPath: c.path,
		})

		e.mu.Lock()
		if e.sess != s {
			e.mu.Unlock()
			os.Remove(c.path)
			return
		}
		if err != nil {
			c.status = chunkFailed
			e.lastError = err.Error()
			u := e.snapshotLocked()
			e.mu.Unlock()
			e.log.Error("chunk synthesis failed",
				slog.String("session_id", s.id),
				slog.Int("chunk", c.index),
				slog.String("error", err.Error()))
			if e.metrics.synthFailures != nil {
				e.metrics.synthFailures.Add(context.Background(), 1)
			}
			e.notify(u)
			return
		}
		c.status = chunkReady
		s.files[c.index] = c.path
		e.lastError = ""
		kick := c.index == e.currentIndex && !e.playing
		if kick {
			e.playing = true
		}
		e.mu.Unlock()

		e.metrics.recordSynth(time.Since(started))
		if kick {
			go e.playLoop(s)
		}
	}
}

// playLoop plays ready chunks strictly in index order. It exits when the
// chunk it needs is not ready yet; generateLoop restarts it on arrival.
func (e *Engine) playLoop(s *session) {
	for {
		e.mu.Lock()
		if e.sess != s {
			e.mu.Unlock()
			return
		}
		if e.currentIndex >= len(s.chunks) {
			e.finishLocked(s)
			return
		}
		c := s.chunks[e.currentIndex]
		if c.status != chunkReady {
			e.playing = false
			e.mu.Unlock()
			return
		}
		e.mu.Unlock()

		handle, err := e.player.Play(context.Background(), c.path)
		if err != nil {
			e.mu.Lock()
			if e.sess == s {
				e.lastError = fmt.Sprintf("playback failed: %v", err)
				e.playing = false
				u := e.snapshotLocked()
				e.mu.Unlock()
				e.log.Error("playback launch failed",
					slog.String("session_id", s.id),
					slog.Int("chunk", c.index),
					slog.String("error", err.Error()))
				e.notify(u)
			} else {
				e.mu.Unlock()
			}
			return
		}

		e.mu.Lock()
		if e.sess != s {
			e.mu.Unlock()
			handle.Terminate()
			return
		}
		e.handle = handle
		// Toggles landing while Play was in flight could not signal a
		// handle, so the current state decides here.
		if e.state == StatePaused {
			handle.Suspend()
		}
		e.mu.Unlock()

		waitErr := handle.Wait()

		e.mu.Lock()
		if e.sess != s {
			e.mu.Unlock()
			return
		}
		e.handle = nil
		if waitErr != nil {
			e.log.Debug("playback wait", slog.Int("chunk", c.index), slog.String("error", waitErr.Error()))
		}
		os.Remove(c.path)
		delete(s.files, c.index)
		total := len(s.chunks)
		s.spokenWords = int(math.Round(float64(c.index+1) / float64(total) * float64(s.totalWords)))
		e.currentIndex++
		e.progress = float64(e.currentIndex) / float64(total)
		e.updateETALocked()
		u := e.snapshotLocked()
		e.mu.Unlock()

		if e.metrics.chunksPlayed != nil {
			e.metrics.chunksPlayed.Add(context.Background(), 1)
		}
		e.notify(u)
	}
}

// finishLocked completes the session naturally. Caller holds the lock,
// which is released here.
func (e *Engine) finishLocked(s *session) {
	e.state = StateStopped
	e.progress = 1.0
	e.etaText = "done"
	// Snapshot before the session is cleared so the terminal update
	// still carries the session identity and totals.
	u := e.snapshotLocked()
	e.sess = nil
	e.handle = nil
	e.playing = false
	e.mu.Unlock()

	close(s.done)
	e.removeFiles(s)
	e.log.Info("session finished", slog.String("session_id", s.id))
	e.notify(u)

	time.AfterFunc(doneResetDelay, func() {
		e.mu.Lock()
		if e.state == StateStopped && e.etaText == "done" {
			e.etaText = ""
			u := e.snapshotLocked()
			e.mu.Unlock()
			e.notify(u)
			return
		}
		e.mu.Unlock()
	})
}

// etaLoop refreshes the estimate once a second while the session lives.
func (e *Engine) etaLoop(s *session) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			e.mu.Lock()
			if e.sess != s {
				e.mu.Unlock()
				return
			}
			e.updateETALocked()
			u := e.snapshotLocked()
			e.mu.Unlock()
			e.notify(u)
		}
	}
}

func (e *Engine) updateETALocked() {
	s := e.sess
	if s == nil {
		return
	}
	remaining := s.totalWords - s.spokenWords
	if remaining <= 0 {
		e.etaText = "almost done"
		return
	}
	effectiveWPM := baseWPM * s.speed
	seconds := float64(remaining) / effectiveWPM * 60
	switch {
	case seconds < 5:
		e.etaText = "almost done"
	case seconds < 60:
		e.etaText = fmt.Sprintf("~%ds left", int(math.Round(seconds)))
	default:
		whole := int(math.Round(seconds))
		e.etaText = fmt.Sprintf("~%dm %ds left", whole/60, whole%60)
	}
}

func (e *Engine) snapshotLocked() protocol.SessionUpdate {
	u := protocol.SessionUpdate{
		State:        string(e.state),
		Progress:     e.progress,
		ETAText:      e.etaText,
		CurrentIndex: e.currentIndex,
		LastError:    e.lastError,
		Timestamp:    time.Now().UTC(),
	}
	if e.sess != nil {
		u.SessionID = e.sess.id
		u.WordCount = e.sess.totalWords
		u.TotalSentences = len(e.sess.chunks)
	}
	return u
}

func (e *Engine) notify(u protocol.SessionUpdate) {
	e.mu.Lock()
	subs := make([]Subscriber, len(e.subs))
	copy(subs, e.subs)
	e.mu.Unlock()
	for _, fn := range subs {
		fn(u)
	}
}

// removeFiles deletes every temp file the session created and still owns.
func (e *Engine) removeFiles(s *session) {
	e.mu.Lock()
	paths := make([]string, 0, len(s.files))
	for _, p := range s.files {
		paths = append(paths, p)
	}
	e.mu.Unlock()
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			e.log.Debug("temp file removal", slog.String("path", p), slog.String("error", err.Error()))
		}
	}
}
