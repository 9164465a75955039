package protocol

import "time"

// SpeakRequest asks the engine to speak a block of text.
type SpeakRequest struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionUpdate is a snapshot of the playback session, emitted on every
// engine mutation and broadcast on the bus.
type SessionUpdate struct {
	SessionID      string    `json:"session_id,omitempty"`
	State          string    `json:"state"`
	Progress       float64   `json:"progress"`
	ETAText        string    `json:"eta_text,omitempty"`
	WordCount      int       `json:"word_count"`
	CurrentIndex   int       `json:"current_index"`
	TotalSentences int       `json:"total_sentences"`
	LastError      string    `json:"last_error,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

const (
	SubjectSpeakRequest  = "vox.request.speak"
	SubjectStopRequest   = "vox.request.stop"
	SubjectToggleRequest = "vox.request.toggle"
	SubjectSessionUpdate = "vox.session.update"
)
