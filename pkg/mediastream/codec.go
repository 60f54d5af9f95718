package mediastream

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/haivivi/voicebridge/pkg/encoding"
)

// ErrMalformedFrame is returned by Decode when a message cannot be decoded.
// It only ever concerns the single message; the stream stays usable.
var ErrMalformedFrame = errors.New("mediastream: malformed frame")

// envelope holds the common fields; per-event sections are decoded lazily so
// that an unknown event never fails on a section we do not understand.
type envelope struct {
	Event          string          `json:"event"`
	SequenceNumber flexInt         `json:"sequenceNumber"`
	StreamSID      string          `json:"streamSid"`
	Protocol       string          `json:"protocol"`
	Version        string          `json:"version"`
	Start          json.RawMessage `json:"start"`
	Media          json.RawMessage `json:"media"`
	Mark           json.RawMessage `json:"mark"`
	Stop           json.RawMessage `json:"stop"`
	DTMF           json.RawMessage `json:"dtmf"`
}

type wireStart struct {
	StreamSID        string            `json:"streamSid"`
	AccountSID       string            `json:"accountSid"`
	CallSID          string            `json:"callSid"`
	Tracks           []string          `json:"tracks"`
	MediaFormat      MediaFormat       `json:"mediaFormat"`
	CustomParameters map[string]string `json:"customParameters"`
}

type wireMedia struct {
	Track     string                 `json:"track"`
	Chunk     flexInt                `json:"chunk"`
	Timestamp flexInt                `json:"timestamp"`
	Payload   encoding.StdBase64Data `json:"payload"`
}

type wireMark struct {
	Name string `json:"name"`
}

type wireStop struct {
	AccountSID string `json:"accountSid"`
	CallSID    string `json:"callSid"`
}

type wireDTMF struct {
	Track string `json:"track"`
	Digit string `json:"digit"`
}

type wireOutbound struct {
	Event     string        `json:"event"`
	StreamSID string        `json:"streamSid"`
	Media     *wireOutMedia `json:"media,omitempty"`
	Mark      *wireMark     `json:"mark,omitempty"`
}

type wireOutMedia struct {
	Payload encoding.StdBase64Data `json:"payload"`
}

// flexInt accepts a JSON number or a decimal string. Media Streams sends
// timestamps and sequence numbers as strings.
type flexInt int64

func (n *flexInt) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	if len(b) >= 2 && b[0] == '"' && b[len(b)-1] == '"' {
		b = b[1 : len(b)-1]
		if len(b) == 0 {
			return nil
		}
	}
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid integer %q", b)
	}
	*n = flexInt(v)
	return nil
}

func malformed(what string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrMalformedFrame, what)
	}
	return fmt.Errorf("%w: %s: %v", ErrMalformedFrame, what, err)
}

func decodeSection(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return errors.New("missing section")
	}
	return json.Unmarshal(raw, v)
}

// Decode decodes one raw inbound message.
//
// Recognised events are returned as their concrete types. Messages with an
// unknown event name are returned as *Unknown. Any decoding failure is
// reported as ErrMalformedFrame.
func Decode(raw []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, malformed("decode envelope", err)
	}

	switch env.Event {
	case "":
		return nil, malformed("missing event name", nil)

	case EventConnected:
		return &Connected{Protocol: env.Protocol, Version: env.Version}, nil

	case EventStart:
		var s wireStart
		if err := decodeSection(env.Start, &s); err != nil {
			return nil, malformed("start", err)
		}
		sid := s.StreamSID
		if sid == "" {
			sid = env.StreamSID
		}
		if sid == "" {
			return nil, malformed("start without stream id", nil)
		}
		return &Start{
			StreamSID:        sid,
			CallSID:          s.CallSID,
			AccountSID:       s.AccountSID,
			Tracks:           s.Tracks,
			MediaFormat:      s.MediaFormat,
			CustomParameters: s.CustomParameters,
			Sequence:         int64(env.SequenceNumber),
		}, nil

	case EventMedia:
		var m wireMedia
		if err := decodeSection(env.Media, &m); err != nil {
			return nil, malformed("media", err)
		}
		return &Media{
			StreamSID: env.StreamSID,
			Track:     m.Track,
			Chunk:     int64(m.Chunk),
			Sequence:  int64(env.SequenceNumber),
			Frame: Frame{
				Payload:   m.Payload,
				Timestamp: int64(m.Timestamp),
			},
		}, nil

	case EventMark:
		// Acknowledgments are matched by order, so a missing name is tolerated.
		var m wireMark
		if len(env.Mark) > 0 {
			if err := json.Unmarshal(env.Mark, &m); err != nil {
				return nil, malformed("mark", err)
			}
		}
		return &Mark{StreamSID: env.StreamSID, Name: m.Name, Sequence: int64(env.SequenceNumber)}, nil

	case EventStop:
		var s wireStop
		if len(env.Stop) > 0 {
			if err := json.Unmarshal(env.Stop, &s); err != nil {
				return nil, malformed("stop", err)
			}
		}
		return &Stop{
			StreamSID:  env.StreamSID,
			CallSID:    s.CallSID,
			AccountSID: s.AccountSID,
			Sequence:   int64(env.SequenceNumber),
		}, nil

	case EventDTMF:
		var d wireDTMF
		if err := decodeSection(env.DTMF, &d); err != nil {
			return nil, malformed("dtmf", err)
		}
		if d.Digit == "" {
			return nil, malformed("dtmf without digit", nil)
		}
		return &DTMF{StreamSID: env.StreamSID, Track: d.Track, Digit: d.Digit}, nil

	case EventSpeechStarted:
		return &SpeechStarted{StreamSID: env.StreamSID}, nil

	default:
		return &Unknown{Name: env.Event, Raw: raw}, nil
	}
}

// Encode encodes one outbound message. It only fails for values that are not
// one of the Outbound types of this package.
func Encode(msg Outbound) ([]byte, error) {
	var w wireOutbound
	switch m := msg.(type) {
	case *OutboundMedia:
		w = wireOutbound{
			Event:     EventMedia,
			StreamSID: m.StreamSID,
			Media:     &wireOutMedia{Payload: m.Frame.Payload},
		}
	case *OutboundMark:
		w = wireOutbound{
			Event:     EventMark,
			StreamSID: m.StreamSID,
			Mark:      &wireMark{Name: m.Name},
		}
	case *OutboundClear:
		w = wireOutbound{Event: EventClear, StreamSID: m.StreamSID}
	default:
		return nil, fmt.Errorf("mediastream: cannot encode %T", msg)
	}
	return json.Marshal(w)
}
