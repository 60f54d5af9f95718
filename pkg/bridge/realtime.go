package bridge

import (
	"context"
	"iter"
	"log/slog"

	openairealtime "github.com/haivivi/voicebridge/pkg/openai-realtime"
)

// loggedEventTypes are backend events worth an info line even though the
// relays ignore them.
var loggedEventTypes = map[string]bool{
	openairealtime.EventTypeError:                         true,
	openairealtime.EventTypeResponseContentDone:           true,
	openairealtime.EventTypeRateLimitsUpdated:             true,
	openairealtime.EventTypeResponseDone:                  true,
	openairealtime.EventTypeInputAudioBufferCommitted:     true,
	openairealtime.EventTypeInputAudioBufferSpeechStopped: true,
	openairealtime.EventTypeInputAudioBufferSpeechStarted: true,
	openairealtime.EventTypeSessionCreated:                true,
}

// RealtimeBackend adapts an OpenAI Realtime session to Backend.
type RealtimeBackend struct {
	session *openairealtime.Session
	logger  *slog.Logger
}

var _ Backend = (*RealtimeBackend)(nil)

// NewRealtimeBackend wraps an open session.
func NewRealtimeBackend(session *openairealtime.Session, logger *slog.Logger) *RealtimeBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &RealtimeBackend{session: session, logger: logger}
}

// DialRealtime returns a DialFunc connecting client to model.
func DialRealtime(client *openairealtime.Client, model string, logger *slog.Logger) DialFunc {
	return func(ctx context.Context) (Backend, error) {
		session, err := client.Connect(ctx, model)
		if err != nil {
			return nil, err
		}
		return NewRealtimeBackend(session, logger), nil
	}
}

// SessionConfig converts cfg into a session.update payload.
func SessionConfig(cfg Config) *openairealtime.SessionConfig {
	sc := &openairealtime.SessionConfig{
		Modalities:        cfg.Modalities,
		Instructions:      cfg.Instructions,
		Voice:             cfg.Voice,
		InputAudioFormat:  cfg.InputAudioFormat,
		OutputAudioFormat: cfg.OutputAudioFormat,
	}
	if cfg.Temperature != 0 {
		t := cfg.Temperature
		sc.Temperature = &t
	}
	switch cfg.TurnDetection {
	case "":
	case TurnDetectionNone:
		sc.TurnDetectionDisabled = true
	default:
		sc.TurnDetection = &openairealtime.TurnDetection{Type: cfg.TurnDetection}
	}
	return sc
}

func (b *RealtimeBackend) Configure(cfg Config) error {
	return b.session.UpdateSession(SessionConfig(cfg))
}

func (b *RealtimeBackend) AppendAudio(audio []byte) error {
	return b.session.AppendAudio(audio)
}

func (b *RealtimeBackend) Truncate(itemID string, audioEndMs int64) error {
	return b.session.TruncateItem(itemID, 0, audioEndMs)
}

// Greet asks the model to speak first.
func (b *RealtimeBackend) Greet(text string) error {
	if err := b.session.AddUserMessage(text); err != nil {
		return err
	}
	return b.session.CreateResponse(nil)
}

func (b *RealtimeBackend) Closed() bool {
	return b.session.Closed()
}

func (b *RealtimeBackend) Close() error {
	return b.session.Close()
}

func (b *RealtimeBackend) Events() iter.Seq2[BackendEvent, error] {
	return func(yield func(BackendEvent, error) bool) {
		for ev, err := range b.session.Events() {
			if err != nil {
				if !yield(nil, err) {
					return
				}
				continue
			}
			if loggedEventTypes[ev.Type] {
				b.logger.Info("backend event", "type", ev.Type)
			}
			if !yield(convertEvent(ev), nil) {
				return
			}
		}
	}
}

func convertEvent(ev *openairealtime.ServerEvent) BackendEvent {
	switch ev.Type {
	case openairealtime.EventTypeResponseAudioDelta:
		return &AudioDelta{ItemID: ev.ItemID, ResponseID: ev.ResponseID, Audio: ev.Audio}
	case openairealtime.EventTypeResponseDone:
		done := &ResponseDone{}
		if ev.Response != nil {
			done.ResponseID = ev.Response.ID
			done.Status = ev.Response.Status
		}
		return done
	case openairealtime.EventTypeInputAudioBufferSpeechStarted:
		return &SpeechStarted{ItemID: ev.ItemID, AudioStartMs: ev.AudioStartMs}
	case openairealtime.EventTypeError:
		f := &Failure{}
		if ev.Error != nil {
			f.Type = ev.Error.Type
			f.Code = ev.Error.Code
			f.Message = ev.Error.Message
		}
		return f
	case openairealtime.EventTypeSessionCreated, openairealtime.EventTypeSessionUpdated:
		ready := &SessionReady{Updated: ev.Type == openairealtime.EventTypeSessionUpdated}
		if ev.Session != nil {
			ready.SessionID = ev.Session.ID
		}
		return ready
	default:
		return &Other{Type: ev.Type}
	}
}
