package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/haivivi/voicebridge/pkg/bridge"
)

func TestContexts(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cfg.ResolveContext(""); !errors.Is(err, ErrNoContext) {
		t.Fatalf("ResolveContext without current = %v", err)
	}

	if err := cfg.AddContext("dev"); err != nil {
		t.Fatalf("AddContext: %v", err)
	}
	if err := cfg.AddContext("dev"); err == nil {
		t.Error("duplicate AddContext succeeded")
	}
	if err := cfg.AddContext("../escape"); err == nil {
		t.Error("AddContext accepted a path")
	}
	if err := cfg.UseContext("missing"); err == nil {
		t.Error("UseContext accepted a missing context")
	}
	if err := cfg.UseContext("dev"); err != nil {
		t.Fatalf("UseContext: %v", err)
	}

	reloaded, err := LoadFrom(cfg.Dir)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.CurrentContext != "dev" {
		t.Errorf("CurrentContext = %q after reload", reloaded.CurrentContext)
	}
	dir, err := reloaded.ResolveContext("")
	if err != nil || dir != cfg.ContextDir("dev") {
		t.Errorf("ResolveContext = %q, %v", dir, err)
	}

	names, _ := cfg.ListContexts()
	if !slices.Equal(names, []string{"dev"}) {
		t.Errorf("ListContexts = %v", names)
	}

	if err := cfg.DeleteContext("dev"); err != nil {
		t.Fatalf("DeleteContext: %v", err)
	}
	if cfg.CurrentContext != "" {
		t.Errorf("CurrentContext = %q after delete", cfg.CurrentContext)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvConfigDir, dir)
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Dir != dir {
		t.Errorf("Dir = %q, want %q", cfg.Dir, dir)
	}
	if cfg.DataDir() != filepath.Join(dir, "data") {
		t.Errorf("DataDir = %q", cfg.DataDir())
	}
}

func TestBridgeRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := &Bridge{APIKey: "sk-test", Port: 6000, Voice: "shimmer", Modalities: []string{"audio", "text"}}
	if err := SaveService(dir, BridgeService, in); err != nil {
		t.Fatalf("SaveService: %v", err)
	}
	info, err := os.Stat(ServicePath(dir, BridgeService))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("bridge.yaml mode = %v, want 0600", info.Mode().Perm())
	}

	out, err := LoadBridge(dir)
	if err != nil {
		t.Fatalf("LoadBridge: %v", err)
	}
	if out.APIKey != "sk-test" || out.Port != 6000 || out.Voice != "shimmer" {
		t.Errorf("loaded %+v", out)
	}
	if !slices.Equal(out.Modalities, in.Modalities) {
		t.Errorf("Modalities = %v", out.Modalities)
	}
}

func TestLoadBridge_Missing(t *testing.T) {
	b, err := LoadBridge(t.TempDir())
	if err != nil {
		t.Fatalf("LoadBridge: %v", err)
	}
	if b.APIKey != "" {
		t.Errorf("expected zero settings, got %+v", b)
	}
	if b, err := LoadBridge(""); err != nil || b == nil {
		t.Errorf("LoadBridge(\"\") = %v, %v", b, err)
	}
}

func TestBridge_ApplyEnv(t *testing.T) {
	env := map[string]string{EnvAPIKey: "sk-env", EnvPort: "7070"}
	b := &Bridge{APIKey: "sk-file", Port: 1}
	if err := b.ApplyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if b.APIKey != "sk-env" || b.Port != 7070 {
		t.Errorf("after env: %+v", b)
	}
	if b.Addr() != ":7070" {
		t.Errorf("Addr = %q", b.Addr())
	}

	env[EnvPort] = "abc"
	if err := b.ApplyEnv(func(k string) string { return env[k] }); !errors.Is(err, bridge.ErrConfigurationInvalid) {
		t.Errorf("bad PORT err = %v", err)
	}
}

func TestBridge_Validate(t *testing.T) {
	tests := []struct {
		name string
		b    Bridge
		ok   bool
	}{
		{"minimal", Bridge{APIKey: "k"}, true},
		{"no key", Bridge{}, false},
		{"bad port", Bridge{APIKey: "k", Port: 70000}, false},
		{"bad retention", Bridge{APIKey: "k", Retention: "soon"}, false},
		{"bad voice setting", Bridge{APIKey: "k", Temperature: 3}, false},
		{"bad public url", Bridge{APIKey: "k", PublicURL: "ftp://x"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.b.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v", err)
			}
			if !tt.ok && !errors.Is(err, bridge.ErrConfigurationInvalid) {
				t.Errorf("Validate() = %v, want ErrConfigurationInvalid", err)
			}
		})
	}
}

func TestBridge_Defaults(t *testing.T) {
	b := &Bridge{}
	if b.Addr() != ":5050" {
		t.Errorf("Addr = %q", b.Addr())
	}
	d, err := (&Bridge{Retention: "720h"}).RetentionPeriod()
	if err != nil || d != 720*time.Hour {
		t.Errorf("RetentionPeriod = %v, %v", d, err)
	}
	if !IsBridgeKey("voice") || IsBridgeKey("nope") {
		t.Error("IsBridgeKey mismatch")
	}
}
