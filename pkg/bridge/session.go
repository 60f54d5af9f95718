package bridge

import (
	"context"
	"errors"
	"sync"
)

var (
	errNoStream   = errors.New("bridge: stream not started")
	errStaleAudio = errors.New("bridge: audio for truncated item")
)

// CallSession is the state shared by the goroutines of one call. All
// methods are safe for concurrent use.
type CallSession struct {
	id       string
	markName string
	maxMarks int

	mu       sync.Mutex
	streamID string
	callSID  string
	clock    Clock
	turns    *TurnTracker

	// space is signalled whenever marks are released.
	space chan struct{}
}

// NewCallSession returns an empty session. maxMarks bounds outstanding
// playback marks.
func NewCallSession(id, markName string, maxMarks int) *CallSession {
	s := &CallSession{
		id:       id,
		markName: markName,
		maxMarks: maxMarks,
		space:    make(chan struct{}, 1),
	}
	s.turns = NewTurnTracker(&s.clock)
	return s
}

// ID returns the call identifier.
func (s *CallSession) ID() string {
	return s.id
}

// StreamID returns the telephony stream id, "" before the stream starts.
func (s *CallSession) StreamID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamID
}

// CallSID returns the telephony call id carried by the start event.
func (s *CallSession) CallSID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callSID
}

// MediaClockMs returns the last observed caller timestamp.
func (s *CallSession) MediaClockMs() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock.Now()
}

// PlaybackAnchorMs returns the playback anchor and whether one is set.
func (s *CallSession) PlaybackAnchorMs() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock.AnchorMs(), s.clock.Anchored()
}

// ActiveItem returns a copy of the item being played.
func (s *CallSession) ActiveItem() (TurnItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turns.Active()
}

// PendingMarks returns the outstanding marks, oldest first.
func (s *CallSession) PendingMarks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turns.PendingMarks()
}

// HasUnconfirmedAudio reports whether forwarded audio awaits a playback ack.
func (s *CallSession) HasUnconfirmedAudio() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turns.HasUnconfirmedAudio()
}

// ItemCounts returns completed and truncated item counts.
func (s *CallSession) ItemCounts() (completed, truncated int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turns.Counts()
}

// Start begins a new stream, resetting the clock and turn state.
func (s *CallSession) Start(streamID, callSID string) {
	s.mu.Lock()
	s.streamID = streamID
	s.callSID = callSID
	s.clock.Reset()
	s.turns.Reset()
	s.mu.Unlock()
	s.signalSpace()
}

// ObserveMedia advances the media clock.
func (s *CallSession) ObserveMedia(timestampMs int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock.Observe(timestampMs)
}

// AckMark releases the oldest outstanding mark.
func (s *CallSession) AckMark() bool {
	s.mu.Lock()
	_, ok := s.turns.Ack()
	s.mu.Unlock()
	if ok {
		s.signalSpace()
	}
	return ok
}

// CompleteResponse ends the active response.
func (s *CallSession) CompleteResponse() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns.Complete()
}

// BargeIn truncates the playing item. hadUnconfirmed reports whether audio
// was still buffered on the caller side at the time.
func (s *CallSession) BargeIn() (tr Truncation, hadUnconfirmed, ok bool) {
	s.mu.Lock()
	hadUnconfirmed = s.turns.HasUnconfirmedAudio()
	tr, ok = s.turns.Interrupt()
	s.mu.Unlock()
	if ok {
		s.signalSpace()
	}
	return tr, hadUnconfirmed, ok
}

// waitForSpace blocks while the mark queue is at its bound.
func (s *CallSession) waitForSpace(ctx context.Context) error {
	for {
		s.mu.Lock()
		full := s.turns.Pending() >= s.maxMarks
		s.mu.Unlock()
		if !full {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.space:
		}
	}
}

// reserve admits one chunk of itemID for playback: the item moves to
// playing and a mark is enqueued. It returns the stream id to tag the chunk
// with.
func (s *CallSession) reserve(itemID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streamID == "" {
		return "", errNoStream
	}
	if !s.turns.BeginAudio(itemID) {
		return "", errStaleAudio
	}
	s.turns.EnqueueMark(s.markName)
	return s.streamID, nil
}

func (s *CallSession) signalSpace() {
	select {
	case s.space <- struct{}{}:
	default:
	}
}
