// Package settings persists the two user-tunable playback settings, voice
// and speed, as single-value files in the vox data directory. The file
// format is a compatibility contract: shell helpers and other front-ends
// read and write the same files.
package settings

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

const (
	DefaultVoice = 5
	DefaultSpeed = 1.0

	voiceFile = "voice"
	speedFile = "speed"
)

// Store reads and writes the persisted voice id and playback speed.
type Store struct {
	dir string
	log *slog.Logger
	mu  sync.Mutex
}

// Open ensures the data directory exists and seeds missing settings files
// with defaults.
func Open(dir string, log *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	s := &Store{dir: dir, log: log}

	if _, err := os.Stat(s.path(voiceFile)); os.IsNotExist(err) {
		if err := s.write(voiceFile, strconv.Itoa(DefaultVoice)); err != nil {
			return nil, err
		}
	}
	if _, err := os.Stat(s.path(speedFile)); os.IsNotExist(err) {
		if err := s.write(speedFile, strconv.FormatFloat(DefaultSpeed, 'f', 1, 64)); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Voice returns the persisted voice id, falling back to the default when
// the file is missing or unparseable.
func (s *Store) Voice() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := os.ReadFile(s.path(voiceFile))
	if err != nil {
		return DefaultVoice
	}
	id, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		s.log.Warn("unparseable voice setting, using default", slog.String("raw", strings.TrimSpace(string(raw))))
		return DefaultVoice
	}
	return id
}

// Speed returns the persisted playback speed, falling back to the default
// when the file is missing or unparseable.
func (s *Store) Speed() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := os.ReadFile(s.path(speedFile))
	if err != nil {
		return DefaultSpeed
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil || v <= 0 {
		s.log.Warn("unparseable speed setting, using default", slog.String("raw", strings.TrimSpace(string(raw))))
		return DefaultSpeed
	}
	return v
}

func (s *Store) SetVoice(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(voiceFile, strconv.Itoa(id))
}

func (s *Store) SetSpeed(v float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(speedFile, strconv.FormatFloat(v, 'f', -1, 64))
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *Store) write(name, value string) error {
	if err := os.WriteFile(s.path(name), []byte(value+"\n"), 0o644); err != nil {
		return fmt.Errorf("write %s setting: %w", name, err)
	}
	return nil
}
