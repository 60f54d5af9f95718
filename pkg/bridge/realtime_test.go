package bridge

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	openairealtime "github.com/haivivi/voicebridge/pkg/openai-realtime"
)

func TestSessionConfig(t *testing.T) {
	sc := SessionConfig(DefaultConfig())
	if sc.Voice != DefaultVoice || sc.InputAudioFormat != DefaultAudioFormat || sc.OutputAudioFormat != DefaultAudioFormat {
		t.Errorf("SessionConfig = %+v", sc)
	}
	if sc.TurnDetection == nil || sc.TurnDetection.Type != openairealtime.VADServerVAD {
		t.Errorf("TurnDetection = %+v", sc.TurnDetection)
	}
	if sc.Temperature == nil || *sc.Temperature != DefaultTemperature {
		t.Errorf("Temperature = %v", sc.Temperature)
	}

	cfg := DefaultConfig()
	cfg.TurnDetection = TurnDetectionNone
	sc = SessionConfig(cfg)
	if !sc.TurnDetectionDisabled || sc.TurnDetection != nil {
		t.Errorf("turn detection not disabled: %+v", sc)
	}
}

func TestConvertEvent(t *testing.T) {
	tests := []struct {
		raw   string
		check func(t *testing.T, ev BackendEvent)
	}{
		{
			`{"type":"response.audio.delta","item_id":"1","response_id":"r","delta":"eQ=="}`,
			func(t *testing.T, ev BackendEvent) {
				d, ok := ev.(*AudioDelta)
				if !ok || d.ItemID != "1" || string(d.Audio) != "y" {
					t.Errorf("got %+v", ev)
				}
			},
		},
		{
			`{"type":"response.done","response":{"id":"r","status":"completed"}}`,
			func(t *testing.T, ev BackendEvent) {
				d, ok := ev.(*ResponseDone)
				if !ok || d.ResponseID != "r" || d.Status != "completed" {
					t.Errorf("got %+v", ev)
				}
			},
		},
		{
			`{"type":"input_audio_buffer.speech_started","item_id":"u1","audio_start_ms":320}`,
			func(t *testing.T, ev BackendEvent) {
				s, ok := ev.(*SpeechStarted)
				if !ok || s.AudioStartMs != 320 {
					t.Errorf("got %+v", ev)
				}
			},
		},
		{
			`{"type":"error","error":{"type":"invalid_request_error","code":"x","message":"m"}}`,
			func(t *testing.T, ev BackendEvent) {
				f, ok := ev.(*Failure)
				if !ok || f.Code != "x" || f.Message != "m" {
					t.Errorf("got %+v", ev)
				}
			},
		},
		{
			`{"type":"session.updated","session":{"id":"s1"}}`,
			func(t *testing.T, ev BackendEvent) {
				r, ok := ev.(*SessionReady)
				if !ok || r.SessionID != "s1" || !r.Updated {
					t.Errorf("got %+v", ev)
				}
			},
		},
		{
			`{"type":"rate_limits.updated"}`,
			func(t *testing.T, ev BackendEvent) {
				if o, ok := ev.(*Other); !ok || o.Type != "rate_limits.updated" {
					t.Errorf("got %+v", ev)
				}
			},
		},
	}
	for _, tc := range tests {
		se, err := openairealtime.ParseServerEvent([]byte(tc.raw))
		if err != nil {
			t.Fatalf("ParseServerEvent(%s): %v", tc.raw, err)
		}
		tc.check(t, convertEvent(se))
	}
}

func TestRealtimeBackend_OverWebSocket(t *testing.T) {
	conns := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := (&websocket.Upgrader{}).Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- c
	}))
	defer srv.Close()

	client, err := openairealtime.NewClient("sk-test",
		openairealtime.WithWebSocketURL("ws"+strings.TrimPrefix(srv.URL, "http")))
	if err != nil {
		t.Fatal(err)
	}
	backend, err := DialRealtime(client, "", nil)(context.Background())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer backend.Close()
	server := <-conns
	defer server.Close()

	read := func() map[string]any {
		server.SetReadDeadline(time.Now().Add(2 * time.Second))
		var m map[string]any
		if err := server.ReadJSON(&m); err != nil {
			t.Fatalf("server read: %v", err)
		}
		return m
	}

	if err := backend.Configure(DefaultConfig()); err != nil {
		t.Fatal(err)
	}
	if m := read(); m["type"] != "session.update" {
		t.Errorf("configure sent %v", m["type"])
	}

	if err := backend.Truncate("item_9", 420); err != nil {
		t.Fatal(err)
	}
	m := read()
	if m["type"] != "conversation.item.truncate" || m["item_id"] != "item_9" ||
		m["content_index"] != float64(0) || m["audio_end_ms"] != float64(420) {
		t.Errorf("truncate sent %v", m)
	}

	if err := backend.Greet("hi"); err != nil {
		t.Fatal(err)
	}
	if m := read(); m["type"] != "conversation.item.create" {
		t.Errorf("greet sent %v", m["type"])
	}
	if m := read(); m["type"] != "response.create" {
		t.Errorf("greet sent %v", m["type"])
	}

	server.WriteMessage(websocket.TextMessage, []byte(`{"type":"response.audio.delta","item_id":"1","delta":"eQ=="}`))
	server.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))

	var got []BackendEvent
	for ev, err := range backend.Events() {
		if err != nil {
			t.Errorf("event error: %v", err)
			continue
		}
		got = append(got, ev)
	}
	if len(got) != 1 {
		t.Fatalf("got %d events", len(got))
	}
	if d, ok := got[0].(*AudioDelta); !ok || string(d.Audio) != "y" {
		t.Errorf("event = %+v", got[0])
	}
	if !backend.Closed() {
		t.Error("backend not closed after peer close")
	}
}
