package notify

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Notifier shows short-lived success and failure messages to the user.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Level is the kind of a recorded message.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

type Message struct {
	Level Level  `json:"level" yaml:"level"`
	Text  string `json:"text" yaml:"text"`
}

// LogNotifier writes notifications to the global logger.
type LogNotifier struct{}

var _ Notifier = LogNotifier{}

func (LogNotifier) Success(message string) {
	log.Info().Str("notification", string(LevelSuccess)).Msg(message)
}

func (LogNotifier) Error(message string) {
	log.Error().Str("notification", string(LevelError)).Msg(message)
}

// Recorder keeps every message it receives and optionally forwards them.
type Recorder struct {
	next     Notifier
	mu       sync.Mutex
	messages []Message
}

var _ Notifier = (*Recorder)(nil)

// NewRecorder returns a Recorder forwarding to next, which may be nil.
func NewRecorder(next Notifier) *Recorder {
	return &Recorder{next: next}
}

func (r *Recorder) Success(message string) {
	r.record(LevelSuccess, message)
	if r.next != nil {
		r.next.Success(message)
	}
}

func (r *Recorder) Error(message string) {
	r.record(LevelError, message)
	if r.next != nil {
		r.next.Error(message)
	}
}

func (r *Recorder) record(level Level, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Level: level, Text: text})
}

// Messages returns a copy of everything recorded so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Errors returns the text of recorded error messages.
func (r *Recorder) Errors() []string {
	return r.texts(LevelError)
}

func (r *Recorder) Successes() []string {
	return r.texts(LevelSuccess)
}

func (r *Recorder) texts(level Level) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, m := range r.messages {
		if m.Level == level {
			out = append(out, m.Text)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
}
