package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/haivivi/voicebridge/pkg/bridge"
	"github.com/haivivi/voicebridge/pkg/server"
)

// BridgeService is the service file holding the bridge settings.
const BridgeService = "bridge"

// DefaultPort is the listen port when neither the file nor $PORT sets one.
const DefaultPort = 5050

// Environment overrides.
const (
	EnvAPIKey = "OPENAI_API_KEY"
	EnvPort   = "PORT"
)

// Bridge is the content of bridge.yaml. Keys are flat so that
// 'voicebridge config set' can address each of them.
type Bridge struct {
	APIKey       string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Organization string `json:"organization,omitempty" yaml:"organization,omitempty"`
	Project      string `json:"project,omitempty" yaml:"project,omitempty"`
	Model        string `json:"model,omitempty" yaml:"model,omitempty"`
	BackendURL   string `json:"backend_url,omitempty" yaml:"backend_url,omitempty"`

	Host      string `json:"host,omitempty" yaml:"host,omitempty"`
	Port      int    `json:"port,omitempty" yaml:"port,omitempty"`
	PublicURL string `json:"public_url,omitempty" yaml:"public_url,omitempty"`
	DataDir   string `json:"data_dir,omitempty" yaml:"data_dir,omitempty"`
	Retention string `json:"retention,omitempty" yaml:"retention,omitempty"`

	Intro           string `json:"intro,omitempty" yaml:"intro,omitempty"`
	FallbackMessage string `json:"fallback_message,omitempty" yaml:"fallback_message,omitempty"`

	Voice             string   `json:"voice,omitempty" yaml:"voice,omitempty"`
	Instructions      string   `json:"instructions,omitempty" yaml:"instructions,omitempty"`
	Temperature       float64  `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	InputAudioFormat  string   `json:"input_audio_format,omitempty" yaml:"input_audio_format,omitempty"`
	OutputAudioFormat string   `json:"output_audio_format,omitempty" yaml:"output_audio_format,omitempty"`
	TurnDetection     string   `json:"turn_detection,omitempty" yaml:"turn_detection,omitempty"`
	Modalities        []string `json:"modalities,omitempty" yaml:"modalities,omitempty"`
	Greeting          string   `json:"greeting,omitempty" yaml:"greeting,omitempty"`
	MaxPendingMarks   int      `json:"max_pending_marks,omitempty" yaml:"max_pending_marks,omitempty"`
}

// BridgeKeys lists the keys accepted in bridge.yaml.
var BridgeKeys = []string{
	"api_key", "organization", "project", "model", "backend_url",
	"host", "port", "public_url", "data_dir", "retention",
	"intro", "fallback_message",
	"voice", "instructions", "temperature", "input_audio_format",
	"output_audio_format", "turn_detection", "modalities", "greeting",
	"max_pending_marks",
}

// IsBridgeKey reports whether key is a bridge.yaml key.
func IsBridgeKey(key string) bool {
	return slices.Contains(BridgeKeys, key)
}

// LoadBridge reads bridge.yaml from contextDir. An empty contextDir or a
// missing file yields zero settings.
func LoadBridge(contextDir string) (*Bridge, error) {
	if contextDir == "" {
		return &Bridge{}, nil
	}
	b, err := LoadService[Bridge](contextDir, BridgeService)
	if errors.Is(err, os.ErrNotExist) {
		return &Bridge{}, nil
	}
	return b, err
}

// ApplyEnv overrides settings from the environment.
func (b *Bridge) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvAPIKey); v != "" {
		b.APIKey = v
	}
	if v := getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a port", bridge.ErrConfigurationInvalid, EnvPort, v)
		}
		b.Port = port
	}
	return nil
}

// Addr is the listen address.
func (b *Bridge) Addr() string {
	port := b.Port
	if port == 0 {
		port = DefaultPort
	}
	return b.Host + ":" + strconv.Itoa(port)
}

// RetentionPeriod parses Retention. Zero keeps records forever.
func (b *Bridge) RetentionPeriod() (time.Duration, error) {
	if b.Retention == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(b.Retention)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: retention %q", bridge.ErrConfigurationInvalid, b.Retention)
	}
	return d, nil
}

// BridgeConfig returns the per-call settings.
func (b *Bridge) BridgeConfig() bridge.Config {
	return bridge.Config{
		Voice:             b.Voice,
		Instructions:      b.Instructions,
		Temperature:       b.Temperature,
		InputAudioFormat:  b.InputAudioFormat,
		OutputAudioFormat: b.OutputAudioFormat,
		TurnDetection:     b.TurnDetection,
		Modalities:        b.Modalities,
		Greeting:          b.Greeting,
		MaxPendingMarks:   b.MaxPendingMarks,
	}
}

// ServerConfig returns the HTTP front door settings.
func (b *Bridge) ServerConfig() server.Config {
	return server.Config{
		PublicURL:       b.PublicURL,
		Intro:           b.Intro,
		FallbackMessage: b.FallbackMessage,
		Bridge:          b.BridgeConfig(),
	}
}

// Validate checks everything serve needs before listening.
func (b *Bridge) Validate() error {
	if b.APIKey == "" {
		return fmt.Errorf("%w: missing OpenAI API key (set %s or api_key)", bridge.ErrConfigurationInvalid, EnvAPIKey)
	}
	if b.Port < 0 || b.Port > 65535 {
		return fmt.Errorf("%w: port %d", bridge.ErrConfigurationInvalid, b.Port)
	}
	if _, err := b.RetentionPeriod(); err != nil {
		return err
	}
	return b.ServerConfig().Validate()
}
