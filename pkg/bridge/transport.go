package bridge

import (
	"context"
	"iter"

	"github.com/haivivi/voicebridge/pkg/mediastream"
)

// Telephony is the caller side of a call. *mediastream.Conn implements it.
//
// Messages yields raw inbound messages until the connection closes; Close
// must unblock it. Send is called from several goroutines and must be safe for
// concurrent use.
type Telephony interface {
	Messages() iter.Seq2[[]byte, error]
	Send(msg mediastream.Outbound) error
	Close() error
}

var _ Telephony = (*mediastream.Conn)(nil)

// Backend is the voice model side of a call.
//
// Events yields backend events until the connection closes. A message the
// backend client could not parse is yielded as an error and iteration
// continues. Close must unblock Events. Send methods are called from both
// relays and must be safe for concurrent use.
type Backend interface {
	Configure(cfg Config) error
	AppendAudio(audio []byte) error
	Truncate(itemID string, audioEndMs int64) error
	Greet(text string) error
	Events() iter.Seq2[BackendEvent, error]
	Closed() bool
	Close() error
}

// DialFunc opens one backend connection.
type DialFunc func(ctx context.Context) (Backend, error)

// BackendEvent is one of AudioDelta, ResponseDone, SpeechStarted, Failure,
// SessionReady or Other.
type BackendEvent interface {
	isBackendEvent()
}

// AudioDelta is a chunk of model audio in the session's output format.
type AudioDelta struct {
	ItemID     string
	ResponseID string
	Audio      []byte
}

// ResponseDone marks the end of a model response.
type ResponseDone struct {
	ResponseID string
	Status     string
}

// SpeechStarted is the backend's voice activity detector reporting caller
// speech.
type SpeechStarted struct {
	ItemID       string
	AudioStartMs int64
}

// Failure is an error event reported by the backend.
type Failure struct {
	Type    string
	Code    string
	Message string
}

// Err converts the failure to a *BackendError.
func (f *Failure) Err() error {
	return &BackendError{Type: f.Type, Code: f.Code, Message: f.Message}
}

// SessionReady reports that the backend created or updated the session.
type SessionReady struct {
	SessionID string
	Updated   bool
}

// Other is any event the relays do not act on.
type Other struct {
	Type string
}

func (*AudioDelta) isBackendEvent()    {}
func (*ResponseDone) isBackendEvent()  {}
func (*SpeechStarted) isBackendEvent() {}
func (*Failure) isBackendEvent()       {}
func (*SessionReady) isBackendEvent()  {}
func (*Other) isBackendEvent()         {}
