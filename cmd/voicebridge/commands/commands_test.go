package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/haivivi/voicebridge/cmd/voicebridge/internal/config"
	"github.com/haivivi/voicebridge/pkg/calllog"
	"github.com/haivivi/voicebridge/pkg/kv"
)

// setupTestEnv points the config root at a temp dir and clears the
// environment overrides.
func setupTestEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.EnvConfigDir, dir)
	t.Setenv(config.EnvAPIKey, "")
	t.Setenv(config.EnvPort, "")
	return dir
}

func runCmd(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	rootCmd.SetOut(&outBuf)
	rootCmd.SetErr(&errBuf)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()

	stdout, stderr = outBuf.String(), errBuf.String()
	if err != nil {
		exitCode = 1
		stderr += err.Error()
	}
	resetFlags(rootCmd)
	return stdout, stderr, exitCode
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Changed = false
		f.Value.Set(f.DefValue)
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func TestVersion(t *testing.T) {
	setupTestEnv(t)

	stdout, _, code := runCmd(t, "version")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stdout, "voicebridge") {
		t.Fatalf("expected 'voicebridge', got: %s", stdout)
	}
}

func TestVersionJSON(t *testing.T) {
	setupTestEnv(t)

	stdout, _, code := runCmd(t, "version", "--format", "json")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stdout, `"version"`) {
		t.Fatalf("expected JSON, got: %s", stdout)
	}
}

func TestBadFormat(t *testing.T) {
	setupTestEnv(t)

	_, stderr, code := runCmd(t, "version", "--format", "csv")
	if code == 0 || !strings.Contains(stderr, "unsupported output format") {
		t.Fatalf("code=%d stderr=%s", code, stderr)
	}
}

func TestConfigWorkflow(t *testing.T) {
	setupTestEnv(t)

	stdout, _, _ := runCmd(t, "config", "list")
	if !strings.Contains(stdout, "No contexts configured") {
		t.Errorf("empty list output: %s", stdout)
	}

	steps := [][]string{
		{"config", "add-context", "dev"},
		{"config", "use-context", "dev"},
		{"config", "set", "api_key", "sk-1234567890abcd"},
		{"config", "set", "temperature", "0.9"},
		{"config", "set", "modalities", "text, audio"},
		{"config", "set", "instructions", "Be brief: callers are busy."},
	}
	for _, args := range steps {
		if _, stderr, code := runCmd(t, args...); code != 0 {
			t.Fatalf("%v: exit %d: %s", args, code, stderr)
		}
	}

	stdout, stderr, code := runCmd(t, "config", "show")
	if code != 0 {
		t.Fatalf("show: %s", stderr)
	}
	for _, want := range []string{"temperature: 0.9", "sk-1", "abcd", "- text", "- audio", "callers are busy"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("show output missing %q:\n%s", want, stdout)
		}
	}
	if strings.Contains(stdout, "sk-1234567890abcd") {
		t.Error("show printed the API key")
	}

	stdout, _, _ = runCmd(t, "config", "list")
	if !strings.Contains(stdout, "dev") || !strings.Contains(stdout, "*") {
		t.Errorf("list output: %s", stdout)
	}
}

func TestConfigSet_Rejects(t *testing.T) {
	setupTestEnv(t)
	runCmd(t, "config", "add-context", "dev")

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"config", "set", "-c", "dev", "colour", "red"}, "unknown key"},
		{[]string{"config", "set", "-c", "dev", "port", "abc"}, "invalid value"},
		{[]string{"config", "set", "-c", "nope", "voice", "alloy"}, "not found"},
		{[]string{"config", "set", "voice", "alloy"}, "no current context"},
	}
	for _, tt := range tests {
		_, stderr, code := runCmd(t, tt.args...)
		if code == 0 || !strings.Contains(stderr, tt.want) {
			t.Errorf("%v: code=%d stderr=%q, want %q", tt.args, code, stderr, tt.want)
		}
	}
}

func TestServe_RequiresAPIKey(t *testing.T) {
	setupTestEnv(t)

	_, stderr, code := runCmd(t, "serve", "--memory")
	if code == 0 {
		t.Fatal("serve started without an API key")
	}
	if !strings.Contains(stderr, "missing OpenAI API key") {
		t.Errorf("stderr = %s", stderr)
	}
}

func TestServe_InvalidSettings(t *testing.T) {
	setupTestEnv(t)
	t.Setenv(config.EnvAPIKey, "sk-test")

	_, stderr, code := runCmd(t, "serve", "--memory", "--public-url", "ftp://example.com")
	if code == 0 || !strings.Contains(stderr, "public url") {
		t.Fatalf("code=%d stderr=%s", code, stderr)
	}
}

func TestCalls(t *testing.T) {
	dir := setupTestEnv(t)

	stdout, stderr, code := runCmd(t, "calls", "list")
	if code != 0 {
		t.Fatalf("empty list: %s", stderr)
	}
	if !strings.Contains(stdout, "No calls recorded") {
		t.Errorf("empty list output: %s", stdout)
	}

	start := time.Now().Add(-2 * time.Hour)
	seedLedger(t, filepath.Join(dir, "data"), calllog.Record{
		ID:        "call-1",
		Status:    calllog.StatusCompleted,
		StreamID:  "MZ1",
		StartedAt: start,
		EndedAt:   start.Add(90 * time.Second),
	})

	stdout, stderr, code = runCmd(t, "calls", "list")
	if code != 0 {
		t.Fatalf("list: %s", stderr)
	}
	for _, want := range []string{"CALL", "call-1", "completed", "1m30.0s"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("list output missing %q:\n%s", want, stdout)
		}
	}

	stdout, _, _ = runCmd(t, "calls", "list", "--format", "json")
	if !strings.Contains(stdout, `"id": "call-1"`) {
		t.Errorf("json list: %s", stdout)
	}

	stdout, _, code = runCmd(t, "calls", "get", "call-1", "--format", "yaml")
	if code != 0 || !strings.Contains(stdout, "stream_id: MZ1") {
		t.Errorf("get: code=%d out=%s", code, stdout)
	}

	_, stderr, code = runCmd(t, "calls", "get", "nope")
	if code == 0 || !strings.Contains(stderr, "not found") {
		t.Errorf("get missing: code=%d stderr=%s", code, stderr)
	}

	stdout, _, code = runCmd(t, "calls", "prune", "--older-than", "1h")
	if code != 0 || !strings.Contains(stdout, "Removed 1") {
		t.Errorf("prune: code=%d out=%s", code, stdout)
	}
}

func seedLedger(t *testing.T, dir string, records ...calllog.Record) {
	t.Helper()
	store, err := kv.NewBadger(kv.BadgerOptions{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	l := calllog.New(store, nil)
	for _, r := range records {
		if err := l.Put(context.Background(), r); err != nil {
			t.Fatal(err)
		}
	}
}
