package bridge

// ItemState is the playback state of a model utterance.
type ItemState int

const (
	ItemPending ItemState = iota
	ItemPlaying
	ItemCompleted
	ItemTruncated
)

func (s ItemState) String() string {
	switch s {
	case ItemPending:
		return "pending"
	case ItemPlaying:
		return "playing"
	case ItemCompleted:
		return "completed"
	case ItemTruncated:
		return "truncated"
	default:
		return "unknown"
	}
}

// TurnItem is one model utterance as seen by the caller.
type TurnItem struct {
	ID    string
	State ItemState

	// StartMs is the media clock value when the first chunk was forwarded.
	StartMs int64

	// TruncatedAtMs is the heard duration at truncation.
	TruncatedAtMs int64

	// Chunks counts forwarded audio chunks.
	Chunks int

	// responseDone is set when the backend finished the response while
	// marks were still outstanding.
	responseDone bool
}

// Truncation instructs the backend to cut an item at AudioEndMs.
type Truncation struct {
	ItemID     string
	AudioEndMs int64
}

// TurnTracker tracks the item being played and the queue of outstanding
// playback marks. It is not safe for concurrent use; CallSession guards it.
type TurnTracker struct {
	clock *Clock

	active        *TurnItem
	lastTruncated string
	marks         []string

	// flushed counts marks discarded by an interruption whose acks have not
	// arrived yet. The caller acknowledges marks removed by a clear, so these
	// acks precede any for marks enqueued afterwards.
	flushed int

	completed int
	truncated int
}

// NewTurnTracker returns a tracker anchoring playback on clock.
func NewTurnTracker(clock *Clock) *TurnTracker {
	return &TurnTracker{clock: clock}
}

// Reset drops the active item and all marks.
func (t *TurnTracker) Reset() {
	t.active = nil
	t.lastTruncated = ""
	t.marks = nil
	t.flushed = 0
	t.clock.ResetAnchor()
}

// Active returns a copy of the active item.
func (t *TurnTracker) Active() (TurnItem, bool) {
	if t.active == nil {
		return TurnItem{}, false
	}
	return *t.active, true
}

// BeginAudio records that a chunk of itemID is about to be forwarded. The
// first chunk of an item moves it to playing and anchors the clock; an item
// still playing is completed when a different one begins.
//
// It returns false when itemID was already truncated, in which case the
// chunk must not be played.
func (t *TurnTracker) BeginAudio(itemID string) bool {
	if itemID != "" && itemID == t.lastTruncated {
		return false
	}

	if t.active != nil {
		if itemID == "" || t.active.ID == itemID {
			t.active.Chunks++
			return true
		}
		t.finish(ItemCompleted)
	}

	item := &TurnItem{ID: itemID, State: ItemPending}
	t.clock.Anchor()
	item.StartMs = t.clock.AnchorMs()
	item.State = ItemPlaying
	item.Chunks = 1
	t.active = item
	return true
}

// Complete marks the end of the active response. With marks outstanding the
// item stays playing until the last one is acknowledged.
func (t *TurnTracker) Complete() {
	if t.active == nil {
		return
	}
	if len(t.marks) > 0 {
		t.active.responseDone = true
		return
	}
	t.finish(ItemCompleted)
}

// Interrupt truncates the playing item at the heard duration. It reports
// false when nothing is playing. Outstanding marks are discarded and their
// late acks are absorbed by Ack.
func (t *TurnTracker) Interrupt() (Truncation, bool) {
	if t.active == nil || t.active.State != ItemPlaying {
		return Truncation{}, false
	}
	elapsed := t.clock.ElapsedSinceAnchor()
	t.active.TruncatedAtMs = elapsed
	tr := Truncation{ItemID: t.active.ID, AudioEndMs: elapsed}
	t.lastTruncated = t.active.ID
	t.flushed += len(t.marks)
	t.marks = nil
	t.finish(ItemTruncated)
	return tr, true
}

// EnqueueMark appends one outstanding mark.
func (t *TurnTracker) EnqueueMark(name string) {
	t.marks = append(t.marks, name)
}

// Ack dequeues the oldest mark. Acknowledgments are matched by order only;
// an ack with nothing outstanding is ignored. Acks owed for marks discarded
// by Interrupt are consumed first and return an empty name.
func (t *TurnTracker) Ack() (string, bool) {
	if t.flushed > 0 {
		t.flushed--
		return "", true
	}
	if len(t.marks) == 0 {
		return "", false
	}
	name := t.marks[0]
	t.marks[0] = ""
	t.marks = t.marks[1:]
	if len(t.marks) == 0 && t.active != nil && t.active.responseDone {
		t.finish(ItemCompleted)
	}
	return name, true
}

// Pending returns the number of outstanding marks. Discarded marks still
// owed an ack are not counted.
func (t *TurnTracker) Pending() int {
	return len(t.marks)
}

// PendingMarks returns a copy of the outstanding marks, oldest first.
func (t *TurnTracker) PendingMarks() []string {
	return append([]string(nil), t.marks...)
}

// HasUnconfirmedAudio reports whether forwarded audio has not been
// acknowledged as played.
func (t *TurnTracker) HasUnconfirmedAudio() bool {
	return len(t.marks) > 0
}

// Counts returns how many items completed and how many were truncated.
func (t *TurnTracker) Counts() (completed, truncated int) {
	return t.completed, t.truncated
}

func (t *TurnTracker) finish(state ItemState) {
	t.active.State = state
	switch state {
	case ItemCompleted:
		t.completed++
	case ItemTruncated:
		t.truncated++
	}
	t.active = nil
	t.clock.ResetAnchor()
}
