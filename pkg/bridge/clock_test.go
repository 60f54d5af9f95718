package bridge

import "testing"

func TestClock_ObserveRecordsLatest(t *testing.T) {
	var c Clock
	for _, ts := range []int64{0, 20, 40, 100} {
		c.Observe(ts)
		if c.Now() != ts {
			t.Fatalf("Now() = %d after Observe(%d)", c.Now(), ts)
		}
	}
	c.Reset()
	if c.Now() != 0 {
		t.Errorf("Now() = %d after Reset, want 0", c.Now())
	}
}

func TestClock_AnchorIsIdempotent(t *testing.T) {
	var c Clock
	if c.ElapsedSinceAnchor() != 0 {
		t.Errorf("elapsed without anchor = %d", c.ElapsedSinceAnchor())
	}

	c.Observe(100)
	c.Anchor()
	c.Observe(250)
	c.Anchor()
	if c.AnchorMs() != 100 {
		t.Errorf("AnchorMs = %d, want 100", c.AnchorMs())
	}
	if got := c.ElapsedSinceAnchor(); got != 150 {
		t.Errorf("ElapsedSinceAnchor = %d, want 150", got)
	}

	c.ResetAnchor()
	if c.Anchored() {
		t.Error("still anchored after ResetAnchor")
	}
	c.Anchor()
	if c.AnchorMs() != 250 {
		t.Errorf("AnchorMs after re-anchor = %d, want 250", c.AnchorMs())
	}
}

func TestClock_ElapsedNeverNegative(t *testing.T) {
	var c Clock
	c.Observe(500)
	c.Anchor()
	c.Observe(0)
	if got := c.ElapsedSinceAnchor(); got != 0 {
		t.Errorf("ElapsedSinceAnchor = %d, want 0", got)
	}
}
