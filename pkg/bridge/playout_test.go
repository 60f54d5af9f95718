package bridge

import (
	"context"
	"testing"
	"time"
)

func TestPlayout_FIFOThenClose(t *testing.T) {
	p := newPlayout()
	p.push(&AudioDelta{ItemID: "1"})
	p.push(&ResponseDone{ResponseID: "r"})
	p.close()
	p.push(&AudioDelta{ItemID: "late"})

	ctx := context.Background()
	ev, ok := p.pop(ctx)
	if d, isDelta := ev.(*AudioDelta); !ok || !isDelta || d.ItemID != "1" {
		t.Fatalf("first pop = %+v, %v", ev, ok)
	}
	ev, ok = p.pop(ctx)
	if _, isDone := ev.(*ResponseDone); !ok || !isDone {
		t.Fatalf("second pop = %+v, %v", ev, ok)
	}
	if ev, ok := p.pop(ctx); ok {
		t.Errorf("pop after drain = %+v", ev)
	}
}

func TestPlayout_PopWaits(t *testing.T) {
	p := newPlayout()
	got := make(chan BackendEvent, 1)
	go func() {
		ev, _ := p.pop(context.Background())
		got <- ev
	}()

	time.Sleep(20 * time.Millisecond)
	p.push(&AudioDelta{ItemID: "1"})
	select {
	case ev := <-got:
		if d, ok := ev.(*AudioDelta); !ok || d.ItemID != "1" {
			t.Errorf("pop = %+v", ev)
		}
	case <-time.After(waitTimeout):
		t.Fatal("pop did not wake on push")
	}
}

func TestPlayout_PopCancelled(t *testing.T) {
	p := newPlayout()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, ok := p.pop(ctx); ok {
		t.Error("pop on cancelled context reported an event")
	}
}
