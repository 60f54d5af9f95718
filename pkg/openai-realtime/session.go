package openairealtime

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Session is a websocket-based realtime session.
//
// Send methods are safe for concurrent use. Events should be consumed by a
// single goroutine.
type Session struct {
	conn   *websocket.Conn
	model  string
	logger *slog.Logger

	mu        sync.Mutex // serializes writes
	stateMu   sync.Mutex
	sessionID string

	events    chan eventOrError
	closeCh   chan struct{}
	readDone  chan struct{}
	closeOnce sync.Once
}

type eventOrError struct {
	event *ServerEvent
	err   error
}

func newSession(conn *websocket.Conn, model string, logger *slog.Logger) *Session {
	s := &Session{
		conn:     conn,
		model:    model,
		logger:   logger,
		events:   make(chan eventOrError, 100),
		closeCh:  make(chan struct{}),
		readDone: make(chan struct{}),
	}
	go s.readLoop()
	return s
}

func generateEventID() string {
	return "evt_" + uuid.New().String()[:12]
}

// Model returns the model the session was opened with.
func (s *Session) Model() string {
	return s.model
}

// SessionID returns the id from session.created, or "" before it arrives.
func (s *Session) SessionID() string {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.sessionID
}

// UpdateSession sends session.update.
func (s *Session) UpdateSession(config *SessionConfig) error {
	return s.sendEvent(&sessionUpdateEvent{
		clientEvent: clientEvent{EventID: generateEventID(), Type: EventTypeSessionUpdate},
		Session:     config,
	})
}

// AppendAudio appends raw audio, in the session's input format, to the
// input audio buffer.
func (s *Session) AppendAudio(audio []byte) error {
	return s.sendEvent(&audioAppendEvent{
		clientEvent: clientEvent{EventID: generateEventID(), Type: EventTypeInputAudioBufferAppend},
		Audio:       audio,
	})
}

// ClearInput discards buffered input audio.
func (s *Session) ClearInput() error {
	return s.sendEvent(&clientEvent{EventID: generateEventID(), Type: EventTypeInputAudioBufferClear})
}

// TruncateItem truncates the audio of an assistant item at audioEndMs so the
// server's transcript matches what the caller actually heard.
func (s *Session) TruncateItem(itemID string, contentIndex int, audioEndMs int64) error {
	return s.sendEvent(&itemTruncateEvent{
		clientEvent:  clientEvent{EventID: generateEventID(), Type: EventTypeConversationItemTruncate},
		ItemID:       itemID,
		ContentIndex: contentIndex,
		AudioEndMs:   audioEndMs,
	})
}

// AddUserMessage adds a user text message to the conversation.
func (s *Session) AddUserMessage(text string) error {
	return s.sendEvent(&itemCreateEvent{
		clientEvent: clientEvent{EventID: generateEventID(), Type: EventTypeConversationItemCreate},
		Item: &ConversationItem{
			Type:    "message",
			Role:    "user",
			Content: []ContentPart{{Type: "input_text", Text: text}},
		},
	})
}

// CreateResponse asks the model to respond. Pass nil for session defaults.
func (s *Session) CreateResponse(opts *ResponseOptions) error {
	return s.sendEvent(&responseCreateEvent{
		clientEvent: clientEvent{EventID: generateEventID(), Type: EventTypeResponseCreate},
		Response:    opts,
	})
}

// CancelResponse cancels the in-flight response.
func (s *Session) CancelResponse() error {
	return s.sendEvent(&clientEvent{EventID: generateEventID(), Type: EventTypeResponseCancel})
}

// Events returns an iterator over server events.
//
// Unparseable messages are yielded as errors and iteration continues. A
// connection failure other than a local Close or a normal close is yielded
// once, after which the iterator ends.
func (s *Session) Events() iter.Seq2[*ServerEvent, error] {
	return func(yield func(*ServerEvent, error) bool) {
		for item := range s.events {
			if !yield(item.event, item.err) {
				return
			}
		}
	}
}

// Closed reports whether the connection has been closed by either side.
func (s *Session) Closed() bool {
	select {
	case <-s.closeCh:
		return true
	case <-s.readDone:
		return true
	default:
		return false
	}
}

// Done returns a channel closed once the connection is no longer readable.
func (s *Session) Done() <-chan struct{} {
	return s.readDone
}

// Close closes the session. It is safe to call more than once.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closeCh)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = s.conn.Close()
	})
	return err
}

func (s *Session) sendEvent(event any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Closed() {
		return ErrSessionClosed
	}

	if s.logger.Enabled(context.Background(), slog.LevelDebug) {
		if b, err := json.Marshal(event); err == nil {
			str := string(b)
			if len(str) > 500 {
				str = str[:500] + "..."
			}
			s.logger.Debug("openai-realtime: sending event", "content", str)
		}
	}

	if err := s.conn.WriteJSON(event); err != nil {
		return fmt.Errorf("openai-realtime: write: %w", err)
	}
	return nil
}

func (s *Session) readLoop() {
	defer close(s.events)
	defer close(s.readDone)

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.closeCh:
				return
			default:
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			s.push(eventOrError{err: fmt.Errorf("openai-realtime: read: %w", err)})
			return
		}

		if s.logger.Enabled(context.Background(), slog.LevelDebug) {
			msgStr := string(message)
			if len(msgStr) > 1000 {
				msgStr = msgStr[:1000] + "..."
			}
			s.logger.Debug("openai-realtime: received message", "len", len(message), "content", msgStr)
		}

		event, err := ParseServerEvent(message)
		if err != nil {
			if !s.push(eventOrError{err: err}) {
				return
			}
			continue
		}

		if event.Type == EventTypeSessionCreated && event.Session != nil {
			s.stateMu.Lock()
			s.sessionID = event.Session.ID
			s.stateMu.Unlock()
		}

		if !s.push(eventOrError{event: event}) {
			return
		}
	}
}

// push delivers one item unless the session is closed first.
func (s *Session) push(item eventOrError) bool {
	select {
	case <-s.closeCh:
		return false
	case s.events <- item:
		return true
	}
}
