package bridge

import (
	"slices"
	"testing"
)

func newTracker() (*Clock, *TurnTracker) {
	c := &Clock{}
	return c, NewTurnTracker(c)
}

func TestTurnTracker_BeginAudioAnchors(t *testing.T) {
	clock, tt := newTracker()
	clock.Observe(100)

	if !tt.BeginAudio("1") {
		t.Fatal("BeginAudio refused a new item")
	}
	item, ok := tt.Active()
	if !ok || item.ID != "1" || item.State != ItemPlaying || item.StartMs != 100 {
		t.Fatalf("Active = %+v, %v", item, ok)
	}

	clock.Observe(180)
	tt.BeginAudio("1")
	item, _ = tt.Active()
	if item.StartMs != 100 || item.Chunks != 2 {
		t.Errorf("second chunk moved the anchor: %+v", item)
	}
}

func TestTurnTracker_HandoverCompletesPrevious(t *testing.T) {
	clock, tt := newTracker()
	clock.Observe(100)
	tt.BeginAudio("1")
	clock.Observe(300)
	tt.BeginAudio("2")

	item, _ := tt.Active()
	if item.ID != "2" || item.StartMs != 300 {
		t.Errorf("Active = %+v", item)
	}
	if completed, truncated := tt.Counts(); completed != 1 || truncated != 0 {
		t.Errorf("Counts = %d, %d", completed, truncated)
	}
}

func TestTurnTracker_MarksFIFO(t *testing.T) {
	_, tt := newTracker()
	for _, n := range []string{"a", "b", "c"} {
		tt.EnqueueMark(n)
	}
	var got []string
	for {
		name, ok := tt.Ack()
		if !ok {
			break
		}
		got = append(got, name)
	}
	if !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("ack order = %v", got)
	}
	if _, ok := tt.Ack(); ok {
		t.Error("Ack on empty queue reported a mark")
	}
	if tt.Pending() != 0 || tt.HasUnconfirmedAudio() {
		t.Errorf("Pending = %d", tt.Pending())
	}
}

func TestTurnTracker_InterruptOnce(t *testing.T) {
	clock, tt := newTracker()
	clock.Observe(100)
	tt.BeginAudio("1")
	tt.EnqueueMark(DefaultMarkName)
	tt.EnqueueMark(DefaultMarkName)
	clock.Observe(340)

	tr, ok := tt.Interrupt()
	if !ok {
		t.Fatal("Interrupt reported nothing playing")
	}
	if tr.ItemID != "1" || tr.AudioEndMs != 240 {
		t.Errorf("Truncation = %+v, want {1 240}", tr)
	}
	if tt.Pending() != 0 {
		t.Errorf("marks survived interrupt: %v", tt.PendingMarks())
	}
	if _, ok := tt.Interrupt(); ok {
		t.Error("second Interrupt emitted a truncation")
	}
	if _, ok := tt.Active(); ok {
		t.Error("truncated item still active")
	}
	if tt.BeginAudio("1") {
		t.Error("late audio for truncated item was accepted")
	}
	if !tt.BeginAudio("2") {
		t.Error("next item refused")
	}
	if _, truncated := tt.Counts(); truncated != 1 {
		t.Errorf("truncated = %d", truncated)
	}
}

func TestTurnTracker_AcksForDiscardedMarks(t *testing.T) {
	_, tt := newTracker()
	tt.BeginAudio("1")
	for range 3 {
		tt.EnqueueMark("m")
	}
	tt.Interrupt()

	tt.BeginAudio("2")
	tt.EnqueueMark("m")
	tt.Complete()

	for i := range 3 {
		name, ok := tt.Ack()
		if !ok || name != "" {
			t.Fatalf("ack %d = %q, %v; want discarded mark", i, name, ok)
		}
		if tt.Pending() != 1 || !tt.HasUnconfirmedAudio() {
			t.Fatalf("ack %d consumed a live mark", i)
		}
		if _, ok := tt.Active(); !ok {
			t.Fatalf("ack %d completed item 2 early", i)
		}
	}

	if name, ok := tt.Ack(); !ok || name != "m" {
		t.Errorf("live ack = %q, %v", name, ok)
	}
	if _, ok := tt.Active(); ok {
		t.Error("item 2 still active after its mark was acked")
	}
	if _, ok := tt.Ack(); ok {
		t.Error("Ack on empty queue reported a mark")
	}
}

func TestTurnTracker_ResetForgetsDiscardedMarks(t *testing.T) {
	_, tt := newTracker()
	tt.BeginAudio("1")
	tt.EnqueueMark("m")
	tt.Interrupt()
	tt.Reset()

	tt.BeginAudio("2")
	tt.EnqueueMark("m")
	if name, _ := tt.Ack(); name != "m" {
		t.Errorf("ack after reset = %q, want live mark", name)
	}
}

func TestTurnTracker_InterruptWithoutPlaying(t *testing.T) {
	_, tt := newTracker()
	if _, ok := tt.Interrupt(); ok {
		t.Error("Interrupt with no item emitted a truncation")
	}
}

func TestTurnTracker_CompleteWaitsForMarks(t *testing.T) {
	_, tt := newTracker()
	tt.BeginAudio("1")
	tt.EnqueueMark("m")
	tt.EnqueueMark("m")

	tt.Complete()
	item, ok := tt.Active()
	if !ok || item.State != ItemPlaying {
		t.Fatalf("item finished with marks outstanding: %+v", item)
	}

	tt.Ack()
	if _, ok := tt.Active(); !ok {
		t.Fatal("item finished before last ack")
	}
	tt.Ack()
	if _, ok := tt.Active(); ok {
		t.Error("item still active after last ack")
	}
	if completed, _ := tt.Counts(); completed != 1 {
		t.Errorf("completed = %d", completed)
	}
}

func TestTurnTracker_CompleteImmediately(t *testing.T) {
	_, tt := newTracker()
	tt.Complete()
	tt.BeginAudio("1")
	tt.Complete()
	if _, ok := tt.Active(); ok {
		t.Error("item still active after Complete")
	}
}

func TestTurnTracker_Reset(t *testing.T) {
	clock, tt := newTracker()
	clock.Observe(50)
	tt.BeginAudio("1")
	tt.EnqueueMark("m")
	tt.Interrupt()
	tt.Reset()

	if !tt.BeginAudio("1") {
		t.Error("Reset did not forget truncated item")
	}
}

func TestItemState_String(t *testing.T) {
	tests := map[ItemState]string{
		ItemPending:   "pending",
		ItemPlaying:   "playing",
		ItemCompleted: "completed",
		ItemTruncated: "truncated",
		ItemState(42): "unknown",
	}
	for s, want := range tests {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", s, s.String(), want)
		}
	}
}
