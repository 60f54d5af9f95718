package bridge

import (
	"fmt"
	"slices"
	"strings"

	openairealtime "github.com/haivivi/voicebridge/pkg/openai-realtime"
)

// Defaults for a telephony call.
const (
	DefaultVoice           = openairealtime.VoiceAlloy
	DefaultAudioFormat     = openairealtime.AudioFormatG711ULaw
	DefaultTurnDetection   = openairealtime.VADServerVAD
	DefaultTemperature     = 0.8
	DefaultMaxPendingMarks = 256
	DefaultMarkName        = "responsePart"
)

// TurnDetectionNone disables server-side turn detection.
const TurnDetectionNone = "none"

// Config is the per-call bridge configuration. Session settings are passed
// to the backend unmodified.
type Config struct {
	Voice             string   `json:"voice,omitzero" yaml:"voice,omitempty"`
	Instructions      string   `json:"instructions,omitzero" yaml:"instructions,omitempty"`
	Temperature       float64  `json:"temperature,omitzero" yaml:"temperature,omitempty"`
	InputAudioFormat  string   `json:"input_audio_format,omitzero" yaml:"input_audio_format,omitempty"`
	OutputAudioFormat string   `json:"output_audio_format,omitzero" yaml:"output_audio_format,omitempty"`
	TurnDetection     string   `json:"turn_detection,omitzero" yaml:"turn_detection,omitempty"`
	Modalities        []string `json:"modalities,omitzero" yaml:"modalities,omitempty"`

	// Greeting, when set, is sent as a user message before the call starts
	// so the model speaks first.
	Greeting string `json:"greeting,omitzero" yaml:"greeting,omitempty"`

	// MaxPendingMarks bounds audio forwarded to the caller but not yet
	// acknowledged as played. The outbound relay pauses at the bound.
	MaxPendingMarks int `json:"max_pending_marks,omitzero" yaml:"max_pending_marks,omitempty"`

	// MarkName is the name carried by every playback mark.
	MarkName string `json:"mark_name,omitzero" yaml:"mark_name,omitempty"`
}

// DefaultConfig returns the configuration used for a plain phone call.
func DefaultConfig() Config {
	return Config{
		Voice:             DefaultVoice,
		Temperature:       DefaultTemperature,
		InputAudioFormat:  DefaultAudioFormat,
		OutputAudioFormat: DefaultAudioFormat,
		TurnDetection:     DefaultTurnDetection,
		Modalities:        []string{openairealtime.ModalityText, openairealtime.ModalityAudio},
		MaxPendingMarks:   DefaultMaxPendingMarks,
		MarkName:          DefaultMarkName,
	}
}

// WithDefaults fills zero fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.Voice == "" {
		c.Voice = d.Voice
	}
	if c.Temperature == 0 {
		c.Temperature = d.Temperature
	}
	if c.InputAudioFormat == "" {
		c.InputAudioFormat = d.InputAudioFormat
	}
	if c.OutputAudioFormat == "" {
		c.OutputAudioFormat = d.OutputAudioFormat
	}
	if c.TurnDetection == "" {
		c.TurnDetection = d.TurnDetection
	}
	if len(c.Modalities) == 0 {
		c.Modalities = d.Modalities
	}
	if c.MaxPendingMarks == 0 {
		c.MaxPendingMarks = d.MaxPendingMarks
	}
	if c.MarkName == "" {
		c.MarkName = d.MarkName
	}
	return c
}

// Validate checks a configuration after defaults have been applied. Audio
// formats, turn detection and modalities are passed to the backend as given;
// only their presence is checked here.
func (c Config) Validate() error {
	if c.MaxPendingMarks <= 0 {
		return fmt.Errorf("%w: max_pending_marks must be positive, got %d", ErrConfigurationInvalid, c.MaxPendingMarks)
	}
	if c.MarkName == "" {
		return fmt.Errorf("%w: mark_name is empty", ErrConfigurationInvalid)
	}
	if c.Temperature < 0.6 || c.Temperature > 1.2 {
		return fmt.Errorf("%w: temperature %.2f outside [0.6, 1.2]", ErrConfigurationInvalid, c.Temperature)
	}
	if strings.TrimSpace(c.InputAudioFormat) == "" {
		return fmt.Errorf("%w: input_audio_format is empty", ErrConfigurationInvalid)
	}
	if strings.TrimSpace(c.OutputAudioFormat) == "" {
		return fmt.Errorf("%w: output_audio_format is empty", ErrConfigurationInvalid)
	}
	if strings.TrimSpace(c.TurnDetection) == "" {
		return fmt.Errorf("%w: turn_detection is empty", ErrConfigurationInvalid)
	}
	if slices.ContainsFunc(c.Modalities, func(m string) bool { return strings.TrimSpace(m) == "" }) {
		return fmt.Errorf("%w: empty modality", ErrConfigurationInvalid)
	}
	if !slices.Contains(c.Modalities, openairealtime.ModalityAudio) {
		return fmt.Errorf("%w: modalities must include %q", ErrConfigurationInvalid, openairealtime.ModalityAudio)
	}
	return nil
}
