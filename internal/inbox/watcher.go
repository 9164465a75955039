// Package inbox watches the request file external front-ends write into
// and dispatches its payloads to the engine.
package inbox

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Control payloads recognized in the request file. Anything else is
// literal text to speak.
const (
	PayloadStop   = "__STOP__"
	PayloadToggle = "__TOGGLE__"
)

const defaultPollInterval = 500 * time.Millisecond

// Handler receives dispatched requests.
type Handler interface {
	Speak(text string)
	Stop()
	Toggle()
}

// Watcher tails a single request file. File-system events drive dispatch,
// with a periodic poll as a backstop against missed notifications.
type Watcher struct {
	path         string
	handler      Handler
	log          *slog.Logger
	pollInterval time.Duration

	fw     *fsnotify.Watcher
	cancel context.CancelFunc
	done   chan struct{}
}

// New prepares a watcher for the given request file.
func New(path string, handler Handler, log *slog.Logger) *Watcher {
	return &Watcher{
		path:         path,
		handler:      handler,
		log:          log.With(slog.String("component", "inbox")),
		pollInterval: defaultPollInterval,
	}
}

// Start creates the request file if needed and begins watching. Stop the
// watcher with Close.
func (w *Watcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create inbox directory: %w", err)
	}
	if _, err := os.Stat(w.path); os.IsNotExist(err) {
		if err := os.WriteFile(w.path, nil, 0o644); err != nil {
			return fmt.Errorf("create request file: %w", err)
		}
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("filesystem watcher: %w", err)
	}
	// Watch the directory: editors and shells replace the file rather
	// than writing it in place.
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return fmt.Errorf("watch inbox directory: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	w.fw = fw
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.run(ctx)
	w.log.Info("inbox watching", slog.String("path", w.path))
	return nil
}

// Close stops the watcher and waits for the loop to exit.
func (w *Watcher) Close() error {
	if w.cancel == nil {
		return nil
	}
	w.cancel()
	err := w.fw.Close()
	<-w.done
	return err
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if ev.Name != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.poll()
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.log.Warn("inbox watch error", slog.String("error", err.Error()))
		case <-ticker.C:
			w.poll()
		}
	}
}

// poll consumes the request file. The file is truncated before dispatch
// so a crash mid-dispatch never replays a payload.
func (w *Watcher) poll() {
	data, err := os.ReadFile(w.path)
	if err != nil || len(data) == 0 {
		return
	}
	if err := os.WriteFile(w.path, nil, 0o644); err != nil {
		w.log.Warn("inbox clear failed", slog.String("error", err.Error()))
		return
	}

	payload := strings.TrimSpace(string(data))
	if payload == "" {
		return
	}
	switch payload {
	case PayloadStop:
		w.log.Info("request received", slog.String("kind", "stop"))
		w.handler.Stop()
	case PayloadToggle:
		w.log.Info("request received", slog.String("kind", "toggle"))
		w.handler.Toggle()
	default:
		w.log.Info("request received", slog.String("kind", "speak"), slog.Int("bytes", len(payload)))
		w.handler.Speak(payload)
	}
}
