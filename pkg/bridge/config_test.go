package bridge

import (
	"errors"
	"slices"
	"testing"
)

func TestConfig_DefaultsAreValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
	cfg := Config{Instructions: "be brief"}.WithDefaults()
	if cfg.Voice != DefaultVoice || cfg.MaxPendingMarks != DefaultMaxPendingMarks || cfg.MarkName != DefaultMarkName {
		t.Errorf("WithDefaults = %+v", cfg)
	}
	if cfg.Instructions != "be brief" {
		t.Errorf("Instructions overwritten: %q", cfg.Instructions)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"negative marks", func(c *Config) { c.MaxPendingMarks = -1 }},
		{"empty mark name", func(c *Config) { c.MarkName = "" }},
		{"temperature too low", func(c *Config) { c.Temperature = 0.1 }},
		{"temperature too high", func(c *Config) { c.Temperature = 2 }},
		{"blank input format", func(c *Config) { c.InputAudioFormat = " " }},
		{"blank output format", func(c *Config) { c.OutputAudioFormat = " " }},
		{"blank turn detection", func(c *Config) { c.TurnDetection = " " }},
		{"no audio modality", func(c *Config) { c.Modalities = []string{"text"} }},
		{"empty modality", func(c *Config) { c.Modalities = []string{"audio", ""} }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrConfigurationInvalid) {
				t.Errorf("Validate = %v, want ErrConfigurationInvalid", err)
			}
		})
	}
}

func TestConfig_PassesUnknownValuesThrough(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InputAudioFormat = "opus"
	cfg.OutputAudioFormat = "g722"
	cfg.TurnDetection = "push_to_talk"
	cfg.Modalities = []string{"audio", "video"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate = %v", err)
	}

	sc := SessionConfig(cfg)
	if sc.InputAudioFormat != "opus" || sc.OutputAudioFormat != "g722" {
		t.Errorf("formats = %q, %q", sc.InputAudioFormat, sc.OutputAudioFormat)
	}
	if sc.TurnDetection == nil || sc.TurnDetection.Type != "push_to_talk" {
		t.Errorf("turn detection = %+v", sc.TurnDetection)
	}
	if !slices.Equal(sc.Modalities, cfg.Modalities) {
		t.Errorf("modalities = %v", sc.Modalities)
	}
}

func TestErrors(t *testing.T) {
	te := &TransportError{Side: SideTelephony, Err: errors.New("reset")}
	if !errors.Is(te, ErrTransportClosed) {
		t.Error("TransportError does not match ErrTransportClosed")
	}
	if te.Error() != "bridge: telephony transport closed: reset" {
		t.Errorf("Error() = %q", te.Error())
	}
	if !errors.Is(&TransportError{Side: SideBackend}, ErrTransportClosed) {
		t.Error("TransportError without cause does not match ErrTransportClosed")
	}

	f := &Failure{Code: "invalid_value", Message: "bad item"}
	if !errors.Is(f.Err(), ErrBackendRejected) {
		t.Error("Failure.Err does not match ErrBackendRejected")
	}
}
