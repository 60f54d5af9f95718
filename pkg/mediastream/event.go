package mediastream

// Event names used on the wire.
const (
	EventConnected     = "connected"
	EventStart         = "start"
	EventMedia         = "media"
	EventMark          = "mark"
	EventStop          = "stop"
	EventDTMF          = "dtmf"
	EventClear         = "clear"
	EventSpeechStarted = "speech_started"
)

// Audio encodings announced in the start event.
const (
	// EncodingMulaw is G.711 μ-law, 8kHz mono.
	EncodingMulaw = "audio/x-mulaw"
	// EncodingL16 is 16-bit linear PCM.
	EncodingL16 = "audio/x-l16"
)

// Frame is one chunk of encoded audio. Frames are immutable once produced.
type Frame struct {
	// Payload is the encoded audio, opaque to the bridge.
	Payload []byte

	// Format is the encoding tag, e.g. "g711_ulaw" or "audio/x-mulaw".
	Format string

	// Timestamp is the caller-side media clock in milliseconds.
	// Only set for frames that originate from the telephony side.
	Timestamp int64

	// Sequence is the position of the frame within an AI utterance.
	// Only set for frames that originate from the AI backend.
	Sequence int64
}

// Event is an inbound telephony message. The set of implementations is closed.
type Event interface {
	// EventName returns the wire name of the event.
	EventName() string

	isEvent()
}

// Connected is the first message of a stream.
type Connected struct {
	Protocol string
	Version  string
}

// MediaFormat describes the audio carried by the stream.
type MediaFormat struct {
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sampleRate"`
	Channels   int    `json:"channels"`
}

// Start announces a new stream and carries its identifier.
type Start struct {
	StreamSID        string
	CallSID          string
	AccountSID       string
	Tracks           []string
	MediaFormat      MediaFormat
	CustomParameters map[string]string
	Sequence         int64
}

// Media carries one frame of caller audio.
type Media struct {
	StreamSID string
	Track     string
	Chunk     int64
	Sequence  int64
	Frame     Frame
}

// Mark acknowledges that a previously sent mark has been played.
type Mark struct {
	StreamSID string
	Name      string
	Sequence  int64
}

// Stop ends the stream.
type Stop struct {
	StreamSID  string
	CallSID    string
	AccountSID string
	Sequence   int64
}

// DTMF carries a keypad digit pressed by the caller.
type DTMF struct {
	StreamSID string
	Track     string
	Digit     string
}

// SpeechStarted signals that the caller started talking.
// Transports with their own voice activity detection send it; plain Media
// Streams never do.
type SpeechStarted struct {
	StreamSID string
}

// Unknown is any event with an unrecognised name. It is passed through
// rather than rejected.
type Unknown struct {
	Name string
	Raw  []byte
}

func (*Connected) EventName() string     { return EventConnected }
func (*Start) EventName() string         { return EventStart }
func (*Media) EventName() string         { return EventMedia }
func (*Mark) EventName() string          { return EventMark }
func (*Stop) EventName() string          { return EventStop }
func (*DTMF) EventName() string          { return EventDTMF }
func (*SpeechStarted) EventName() string { return EventSpeechStarted }
func (u *Unknown) EventName() string     { return u.Name }

func (*Connected) isEvent()     {}
func (*Start) isEvent()         {}
func (*Media) isEvent()         {}
func (*Mark) isEvent()          {}
func (*Stop) isEvent()          {}
func (*DTMF) isEvent()          {}
func (*SpeechStarted) isEvent() {}
func (*Unknown) isEvent()       {}

// Outbound is a message the bridge sends to the telephony side.
// The set of implementations is closed.
type Outbound interface {
	isOutbound()
}

// OutboundMedia plays a frame of audio to the caller.
type OutboundMedia struct {
	StreamSID string
	Frame     Frame
}

// OutboundMark asks the telephony side to acknowledge when playback reaches
// this point.
type OutboundMark struct {
	StreamSID string
	Name      string
}

// OutboundClear discards audio buffered on the telephony side.
type OutboundClear struct {
	StreamSID string
}

func (*OutboundMedia) isOutbound() {}
func (*OutboundMark) isOutbound()  {}
func (*OutboundClear) isOutbound() {}
