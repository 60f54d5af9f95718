package openairealtime

import (
	"encoding/json"
	"fmt"

	"github.com/haivivi/voicebridge/pkg/encoding"
)

// Client event types.
const (
	EventTypeSessionUpdate            = "session.update"
	EventTypeInputAudioBufferAppend   = "input_audio_buffer.append"
	EventTypeInputAudioBufferClear    = "input_audio_buffer.clear"
	EventTypeConversationItemCreate   = "conversation.item.create"
	EventTypeConversationItemTruncate = "conversation.item.truncate"
	EventTypeResponseCreate           = "response.create"
	EventTypeResponseCancel           = "response.cancel"
)

// Server event types.
const (
	EventTypeError = "error"

	EventTypeSessionCreated = "session.created"
	EventTypeSessionUpdated = "session.updated"

	EventTypeConversationItemCreated   = "conversation.item.created"
	EventTypeConversationItemTruncated = "conversation.item.truncated"

	EventTypeInputAudioBufferCommitted     = "input_audio_buffer.committed"
	EventTypeInputAudioBufferSpeechStarted = "input_audio_buffer.speech_started"
	EventTypeInputAudioBufferSpeechStopped = "input_audio_buffer.speech_stopped"

	EventTypeResponseCreated     = "response.created"
	EventTypeResponseDone        = "response.done"
	EventTypeResponseContentDone = "response.content_part.done"
	EventTypeResponseAudioDelta  = "response.audio.delta"
	EventTypeResponseAudioDone   = "response.audio.done"

	EventTypeResponseAudioTranscriptDelta = "response.audio_transcript.delta"
	EventTypeResponseAudioTranscriptDone  = "response.audio_transcript.done"

	EventTypeRateLimitsUpdated = "rate_limits.updated"
)

// clientEvent carries the fields shared by every client event.
type clientEvent struct {
	EventID string `json:"event_id,omitzero"`
	Type    string `json:"type"`
}

type sessionUpdateEvent struct {
	clientEvent
	Session *SessionConfig `json:"session"`
}

type audioAppendEvent struct {
	clientEvent
	Audio encoding.StdBase64Data `json:"audio"`
}

type itemTruncateEvent struct {
	clientEvent
	ItemID       string `json:"item_id"`
	ContentIndex int    `json:"content_index"`
	AudioEndMs   int64  `json:"audio_end_ms"`
}

type itemCreateEvent struct {
	clientEvent
	Item *ConversationItem `json:"item"`
}

type responseCreateEvent struct {
	clientEvent
	Response *ResponseOptions `json:"response,omitzero"`
}

// ServerEvent is a server event received from the Realtime API. Only the
// fields relevant to the event's Type are set.
type ServerEvent struct {
	Type    string `json:"type"`
	EventID string `json:"event_id,omitzero"`

	// Session is set for session.created and session.updated.
	Session *SessionResource `json:"session,omitzero"`

	// Item is set for conversation.item.* events.
	Item *ConversationItem `json:"item,omitzero"`

	ItemID       string `json:"item_id,omitzero"`
	ResponseID   string `json:"response_id,omitzero"`
	OutputIndex  int    `json:"output_index,omitzero"`
	ContentIndex int    `json:"content_index,omitzero"`

	// AudioStartMs and AudioEndMs are set by VAD and truncation events.
	AudioStartMs int64 `json:"audio_start_ms,omitzero"`
	AudioEndMs   int64 `json:"audio_end_ms,omitzero"`

	// Response is set for response.created and response.done.
	Response *ResponseResource `json:"response,omitzero"`

	// Delta is the raw delta field. For response.audio.delta it holds
	// base64 audio, which is decoded into Audio.
	Delta string `json:"delta,omitzero"`
	Audio []byte `json:"-"`

	Transcript string `json:"transcript,omitzero"`

	// Error is set for error events.
	Error *EventError `json:"error,omitzero"`

	RateLimits []RateLimit `json:"rate_limits,omitzero"`

	// Raw is the original JSON message.
	Raw []byte `json:"-"`
}

// RateLimit represents rate limit information.
type RateLimit struct {
	Name         string  `json:"name"`
	Limit        int     `json:"limit"`
	Remaining    int     `json:"remaining"`
	ResetSeconds float64 `json:"reset_seconds"`
}

// ParseServerEvent parses one raw server message.
func ParseServerEvent(message []byte) (*ServerEvent, error) {
	var event ServerEvent
	if err := json.Unmarshal(message, &event); err != nil {
		return nil, fmt.Errorf("openai-realtime: parse event: %w", err)
	}
	if event.Type == "" {
		return nil, fmt.Errorf("openai-realtime: parse event: missing type")
	}
	event.Raw = message

	if event.Type == EventTypeResponseAudioDelta {
		audio, err := encoding.DecodeStdBase64(event.Delta)
		if err != nil {
			return nil, fmt.Errorf("openai-realtime: parse %s: %w", event.Type, err)
		}
		event.Audio = audio
	}
	return &event, nil
}
